package main

import (
	"fmt"
	"os"

	"github.com/elee1766/polaris/src/config"
)

// InitCmd writes the default configuration
type InitCmd struct {
	Path  string `arg:"" optional:"" type:"path" help:"Destination (defaults to the user config file)"`
	Force bool   `help:"Overwrite an existing file"`
}

// Run executes the init command
func (c *InitCmd) Run(cli *CLI) error {
	path := c.Path
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	if err := config.NewLoader(config.ConfigPrecedence{}).SaveFile(cfg, path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
