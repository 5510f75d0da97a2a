package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crewmint/depot/internal/config"
	"github.com/crewmint/depot/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBSeedCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all Depot tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	return cmd
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	return nil
}

func newDBSeedCmd() *cobra.Command {
	var (
		configPath string
		demo       bool
	)

	cmd := &cobra.Command{
		Use:   "seed [region...]",
		Short: "Seed regions, or a demo dataset with --demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBSeed(cmd, configPath, args, demo)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	cmd.Flags().BoolVar(&demo, "demo", false, "load a small demo dataset")
	return cmd
}

func runDBSeed(cmd *cobra.Command, configPath string, regions []string, demo bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	if demo {
		if err := db.SeedDemo(gormDB); err != nil {
			return err
		}
		fmt.Fprintln(out, "Demo dataset seeded")
		return nil
	}

	if len(regions) == 0 {
		return fmt.Errorf("no regions given; pass region names or --demo")
	}
	if err := db.SeedRegions(gormDB, regions); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d region(s)\n", len(regions))
	return nil
}
