package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/elee1766/polaris/src/config"
)

// CLI represents the main CLI structure
type CLI struct {
	Config    string `short:"c" type:"path" env:"POLARIS_CONFIG" help:"Configuration file (YAML or JSON)"`
	LogLevel  string `env:"POLARIS_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`
	LogFormat string `env:"POLARIS_LOG_FORMAT" enum:"text,json," default:"" help:"Log format (text, json)"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API, event consumer and workflow engine"`
	Prompt  PromptCmd  `cmd:"" help:"Process a single message in-process"`
	Files   FilesCmd   `cmd:"" help:"Inspect and upload project files"`
	Project ProjectCmd `cmd:"" help:"Manage projects"`
	Migrate MigrateCmd `cmd:"" help:"Database migrations"`
	Model   ModelCmd   `cmd:"" help:"Model management and information"`
	Init    InitCmd    `cmd:"" help:"Write a default configuration file"`

	cfg    *config.Config
	logger *slog.Logger
}

// AfterApply loads configuration once flags are parsed.
func (cli *CLI) AfterApply() error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cli.cfg = cfg
	cli.logger = logger
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("polaris"),
		kong.Description("Durable coding agent for hosted projects"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logger := cli.logger
	if logger == nil {
		logger = slog.Default()
	}
	NewErrorHandler(logger).HandleError(ctx.Run(&cli))
	os.Exit(ExitSuccess)
}
