package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/storage"
)

// ProjectCmd manages projects
type ProjectCmd struct {
	Create   ProjectCreateCmd   `cmd:"" help:"Create a project with an empty conversation"`
	List     ProjectListCmd     `cmd:"" help:"List an owner's projects"`
	Rename   ProjectRenameCmd   `cmd:"" help:"Rename a project"`
	Settings ProjectSettingsCmd `cmd:"" help:"Set the install and dev commands of a project"`
}

// ProjectCreateCmd creates a project
type ProjectCreateCmd struct {
	Owner string `required:"" help:"Owner ID"`
	Name  string `help:"Project name (random when empty)"`
}

// Run executes the project create command
func (c *ProjectCreateCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	name := c.Name
	if name == "" {
		name = polarisagent.ProjectName()
	}
	project := &storage.Project{Name: name, OwnerID: c.Owner}
	conversation, err := a.repo.CreateProjectWithConversation(ctx, project, polarisagent.DefaultConversationTitle)
	if err != nil {
		return err
	}

	fmt.Printf("Project:      %s (%s)\n", project.Name, project.ID)
	fmt.Printf("Conversation: %s\n", conversation.ID)
	return nil
}

// ProjectListCmd lists projects
type ProjectListCmd struct {
	Owner string `required:"" help:"Owner ID"`
	Limit int    `default:"20" help:"Maximum number of projects"`
}

// Run executes the project list command
func (c *ProjectListCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	projects, err := storage.ListProjectsByOwner(ctx, a.db.DB(), c.Owner, c.Limit)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Printf("No projects for owner '%s'\n", c.Owner)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tName\tConversations\tUpdated")
	fmt.Fprintln(w, "---\t----\t-------------\t-------")
	for _, p := range projects {
		conversations, err := storage.ListConversations(ctx, a.db.DB(), p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Name, len(conversations), p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// ProjectRenameCmd renames a project
type ProjectRenameCmd struct {
	Project string `arg:"" help:"Project ID"`
	Name    string `arg:"" help:"New name"`
}

// Run executes the project rename command
func (c *ProjectRenameCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := storage.RenameProject(ctx, a.db.DB(), c.Project, c.Name); err != nil {
		return err
	}
	fmt.Printf("Renamed project %s to %q\n", c.Project, c.Name)
	return nil
}

// ProjectSettingsCmd updates the commands the preview runtime would use
type ProjectSettingsCmd struct {
	Project string  `arg:"" help:"Project ID"`
	Install *string `help:"Install command"`
	Dev     *string `help:"Dev server command"`
}

// Run executes the project settings command
func (c *ProjectSettingsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := storage.UpdateProjectSettings(ctx, a.db.DB(), c.Project, c.Install, c.Dev); err != nil {
		return err
	}
	fmt.Printf("Updated settings of project %s\n", c.Project)
	return nil
}
