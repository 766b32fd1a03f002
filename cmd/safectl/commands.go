package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BudHamud/safe/internal/catalog"
	"github.com/BudHamud/safe/internal/config"
	"github.com/BudHamud/safe/internal/database"
	"github.com/BudHamud/safe/internal/dates"
	"github.com/BudHamud/safe/internal/fileio"
	"github.com/BudHamud/safe/internal/logger"
	"github.com/BudHamud/safe/internal/rates"
	"github.com/BudHamud/safe/internal/services"
	"github.com/BudHamud/safe/internal/uuid"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	db           *database.Manager
	transactions services.TransactionServicer
	imports      services.ImportServicer
	insights     services.InsightsServicer
}

func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to load category catalog: %w", err)
		}
	}

	source := rates.FromConfig(context.Background(), cfg)
	a.db = db
	a.transactions = services.NewTransactionService(db.DB(), source, cat)
	a.imports = services.NewImportService(db.DB(), source, cat)
	a.insights = services.NewInsightsService(db.DB(), cfg.SavingsTarget)
	return nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		logger.Get().Warnf("database close error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "safectl",
		Short:        "Maintenance tasks for the Safe expense tracker",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.open()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	cmd.AddCommand(
		newBackfillCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newChecklistCmd(a),
	)
	return cmd
}

func userFlag(cmd *cobra.Command, target *string, required bool) {
	cmd.Flags().StringVarP(target, "user", "u", "", "user ID")
	if required {
		_ = cmd.MarkFlagRequired("user")
	}
}

func checkUser(id string) error {
	if id != "" && !uuid.IsValid(id) {
		return fmt.Errorf("invalid user ID %q", id)
	}
	return nil
}

func newBackfillCmd(a *app) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fill missing currency snapshots with today's rates",
		Long:  "Fill missing currency snapshots with today's rates. Without --user every user is scanned.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkUser(userID); err != nil {
				return err
			}
			result, err := a.transactions.BackfillSnapshots(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, updated %d\n", result.Scanned, result.Updated)
			return nil
		},
	}
	userFlag(cmd, &userID, false)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an xlsx or csv spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkUser(userID); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := a.imports.Import(cmd.Context(), userID, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d movements (rates: %t)\n", result.Imported, result.WithRates)
			return nil
		},
	}
	userFlag(cmd, &userID, true)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		userID string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the movement log as a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkUser(userID); err != nil {
				return err
			}
			f, err := fileio.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" {
				output = f.FileName()
			}
			out, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := a.imports.Export(userID, f, out); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	userFlag(cmd, &userID, true)
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "xlsx or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default "+fileio.BaseName+".<format>)")
	return cmd
}

func newChecklistCmd(a *app) *cobra.Command {
	var (
		userID   string
		fallback string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Print this month's recurring payments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkUser(userID); err != nil {
				return err
			}
			policy, err := dates.ParsePolicy(fallback)
			if err != nil {
				return err
			}
			entries, err := a.insights.Checklist(userID, services.ViewOptions{Fallback: policy})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, e := range entries {
				mark := " "
				if e.IsPaid {
					mark = "x"
				}
				fmt.Fprintf(w, "[%s] %-30s %-12s day %2d  %s\n", mark, e.Label, e.Cadence, e.DueDay, e.Transaction.Amount.StringFixed(2))
			}
			return nil
		},
	}
	userFlag(cmd, &userID, true)
	cmd.Flags().StringVar(&fallback, "date-fallback", "epoch", "unreadable date policy (epoch, today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
