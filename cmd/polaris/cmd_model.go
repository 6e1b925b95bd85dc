package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/aisdk"
	"github.com/elee1766/polaris/src/orclient"
)

// ModelCmd manages model operations
type ModelCmd struct {
	List   ModelListCmd   `cmd:"" help:"List available models"`
	Info   ModelInfoCmd   `cmd:"" help:"Get information about a specific model"`
	Test   ModelTestCmd   `cmd:"" help:"Test a model with a simple prompt"`
	Search ModelSearchCmd `cmd:"" help:"Search for models by name"`
}

func (cli *CLI) openRouter() *orclient.Client {
	return (&app{cfg: cli.cfg, logger: cli.logger}).client()
}

// ModelListCmd lists available models
type ModelListCmd struct {
	Format    string `help:"Output format (table, json)" enum:"table,json" default:"table"`
	WithCosts bool   `help:"Include pricing information"`
}

// Run executes the model list command
func (c *ModelListCmd) Run(cli *CLI) error {
	models, err := cli.openRouter().ListModels(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	return printModels(os.Stdout, c.Format, models, c.WithCosts)
}

// ModelInfoCmd gets information about a specific model
type ModelInfoCmd struct {
	Model  string `arg:"" help:"Model ID or name"`
	Format string `help:"Output format (table, json)" enum:"table,json" default:"table"`
}

// Run executes the model info command
func (c *ModelInfoCmd) Run(cli *CLI) error {
	model, err := cli.openRouter().FindModel(context.Background(), c.Model)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	if c.Format == "json" {
		return writeJSON(os.Stdout, model)
	}
	printModelTable(os.Stdout, model)
	return nil
}

// ModelTestCmd tests a model with a simple prompt
type ModelTestCmd struct {
	Model  string `arg:"" optional:"" help:"Model ID (defaults to the configured agent model)"`
	Prompt string `help:"Test prompt" default:"what is 9 + 10?"`
}

// Run executes the model test command
func (c *ModelTestCmd) Run(cli *CLI) error {
	ctx := context.Background()
	name := c.Model
	if name == "" {
		name = cli.cfg.Agent.Model
	}

	client, err := cli.openRouter().Model(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	runner := &agent.Runner{
		Name:        "model-test",
		Model:       client,
		Temperature: aisdk.Float64(0.7),
		MaxTokens:   aisdk.Int(100),
		Logger:      cli.logger,
	}

	fmt.Printf("Testing model: %s\n", name)
	fmt.Printf("Prompt: %s\n\n", c.Prompt)

	answer, err := runner.Ask(ctx, c.Prompt)
	if err != nil {
		return fmt.Errorf("failed to create chat completion: %w", err)
	}
	fmt.Printf("Response: %s\n", answer)
	return nil
}

// ModelSearchCmd searches for models by name
type ModelSearchCmd struct {
	Query  string `arg:"" help:"Search query"`
	Format string `help:"Output format (table, json)" enum:"table,json" default:"table"`
}

// Run executes the model search command
func (c *ModelSearchCmd) Run(cli *CLI) error {
	matches, err := cli.openRouter().SearchModels(context.Background(), c.Query)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if len(matches) == 0 {
		fmt.Printf("No models found matching '%s'\n", c.Query)
		return nil
	}

	if c.Format == "table" {
		fmt.Printf("Found %d models matching '%s':\n\n", len(matches), c.Query)
	}
	return printModels(os.Stdout, c.Format, matches, false)
}

// Helper functions for printing

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printModels(w io.Writer, format string, models []*orclient.ModelInfo, withCosts bool) error {
	if format == "json" {
		return writeJSON(w, models)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if withCosts {
		fmt.Fprintln(tw, "ID\tName\tContext\tPrompt Cost\tCompletion Cost")
		fmt.Fprintln(tw, "---\t----\t-------\t-----------\t---------------")
		for _, model := range models {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				model.ID, model.Name, model.ContextLength, orNA(model.Pricing.Prompt), orNA(model.Pricing.Completion))
		}
		return nil
	}

	fmt.Fprintln(tw, "ID\tName\tContext Length")
	fmt.Fprintln(tw, "---\t----\t--------------")
	for _, model := range models {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", model.ID, model.Name, model.ContextLength)
	}
	return nil
}

func printModelTable(w io.Writer, model *orclient.ModelInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "ID:\t%s\n", model.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", model.Name)
	fmt.Fprintf(tw, "Description:\t%s\n", model.Description)
	fmt.Fprintf(tw, "Context Length:\t%d\n", model.ContextLength)
	fmt.Fprintf(tw, "Prompt:\t%s per token\n", orNA(model.Pricing.Prompt))
	fmt.Fprintf(tw, "Completion:\t%s per token\n", orNA(model.Pricing.Completion))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
