package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/okian/garb/internal/app"
	"github.com/okian/garb/internal/config"
	"github.com/okian/garb/pkg/logger"
)

var rotateCommand = &cobra.Command{
	Use:   "rotate",
	Short: "Run one seasonal rotation analysis and print the report",
	RunE:  runRotate,
}

var rotateUser string

func init() {
	rotateCommand.Flags().StringVarP(&rotateUser, "user", "u", "", "User to analyze (defaults to the configured default user)")

	rootCmd.AddCommand(rotateCommand)
}

func runRotate(_ *cobra.Command, _ []string) error {
	if err := logger.Init(); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	svc := app.New(cfg)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	userID := rotateUser
	if userID == "" {
		userID = cfg.DefaultUser
	}
	report, err := svc.RunRotation(ctx, userID)
	if err != nil {
		return fmt.Errorf("rotation failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
