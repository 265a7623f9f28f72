package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"reportit/backend/internal/complaint"
	"reportit/backend/internal/config"
	"reportit/backend/internal/storage"

	"github.com/spf13/cobra"
)

const programName = "reportit-admin"

var (
	configFile string
	debug      bool
)

type adminContext struct {
	service *complaint.Service
	store   *storage.Service
	close   func()
}

func connect() (*adminContext, error) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		return nil, errors.New("admin commands need a persistent database driver")
	}
	db, err := storage.Open(cfg.Database, false)
	if err != nil {
		return nil, err
	}
	s := storage.NewStorageService(db, logger)
	return &adminContext{
		service: complaint.NewService(s, nil, logger),
		store:   s,
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}, nil
}

func setStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <complaint_id> <status>",
		Short: "Move a complaint to another stage of the workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect()
			if err != nil {
				return err
			}
			defer a.close()

			stage, err := a.service.SetStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Complaint %s is now %s.\n", args[0], stage)
			return nil
		},
	}
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <complaint_id>",
		Short: "Print a complaint and its status timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect()
			if err != nil {
				return err
			}
			defer a.close()

			c, err := a.service.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(c); err != nil {
				return err
			}
			fmt.Fprintf(out, "created: %s\n", time.UnixMilli(c.CreatedAt).Format(time.RFC1123))
			for _, step := range complaint.Timeline(c.Status) {
				mark := " "
				switch {
				case step.Active:
					mark = ">"
				case step.Completed:
					mark = "x"
				}
				fmt.Fprintf(out, "[%s] %s\n", mark, step.Label)
			}
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations complete.")
			return nil
		},
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Administrative tasks for the ReportIt backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		BoolVarP(&debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(setStatusCommand())
	rootCmd.AddCommand(showCommand())
	rootCmd.AddCommand(migrateCommand())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
