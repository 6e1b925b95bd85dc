package main

import (
	"context"
	"fmt"

	"github.com/elee1766/polaris/src/storage"
)

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" help:"Run pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show applied migrations"`
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate up command
func (c *MigrateUpCmd) Run(cli *CLI) error {
	db, err := openDatabase(c.DBPath, cli)
	if err != nil {
		return err
	}
	defer db.Close()

	versions, err := db.AppliedVersions(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Database %s is at version %d\n", db.Path(), latest(versions))
	return nil
}

// MigrateStatusCmd shows migration status
type MigrateStatusCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate status command
func (c *MigrateStatusCmd) Run(cli *CLI) error {
	db, err := openDatabase(c.DBPath, cli)
	if err != nil {
		return err
	}
	defer db.Close()

	versions, err := db.AppliedVersions(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Database: %s\n", db.Path())
	for _, v := range versions {
		fmt.Printf("  applied %05d\n", v)
	}
	return nil
}

// openDatabase opens and migrates the database at path, or the configured one.
func openDatabase(path string, cli *CLI) (*storage.DB, error) {
	if path == "" {
		path = cli.cfg.Storage.DatabasePath
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func latest(versions []int) int {
	if len(versions) == 0 {
		return 0
	}
	return versions[len(versions)-1]
}
