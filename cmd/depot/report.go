package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crewmint/depot/internal/config"
	"github.com/crewmint/depot/internal/db"
	"github.com/crewmint/depot/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export xlsx reports",
	}

	cmd.AddCommand(newReportStockCmd())
	cmd.AddCommand(newReportCostsCmd())
	return cmd
}

func newReportStockCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Export the per-region stock inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportStock(cmd, configPath, output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	cmd.Flags().StringVarP(&output, "output", "o", "stock.xlsx", "output file path")
	return cmd
}

func runReportStock(cmd *cobra.Command, configPath, output string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	f, err := report.Stock(gormDB)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(output); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stock report written to %s\n", output)
	return nil
}

func newReportCostsCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "costs <maintenance-id>",
		Short: "Export the cost summary for one maintenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid maintenance id %q", args[0])
			}
			return runReportCosts(cmd, configPath, output, uint(id))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	cmd.Flags().StringVarP(&output, "output", "o", "costs.xlsx", "output file path")
	return cmd
}

func runReportCosts(cmd *cobra.Command, configPath, output string, id uint) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	f, err := report.MaintenanceCosts(gormDB, id)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(output); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cost report written to %s\n", output)
	return nil
}
