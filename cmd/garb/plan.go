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
	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/internal/orchestrator"
	"github.com/okian/garb/pkg/logger"
)

var planCommand = &cobra.Command{
	Use:   "plan",
	Short: "Run one planning pass and print the recommendation",
	RunE:  runPlan,
}

var (
	planUser     string
	planOccasion string
	planGender   string
	planTopN     int
)

func init() {
	planCommand.Flags().StringVarP(&planUser, "user", "u", "", "User to plan for (defaults to the configured default user)")
	planCommand.Flags().StringVarP(&planOccasion, "occasion", "o", "", "Occasion override (work, casual, formal, ...)")
	planCommand.Flags().StringVarP(&planGender, "gender", "g", "", "Style rule profile (female, male, unisex)")
	planCommand.Flags().IntVarP(&planTopN, "top", "n", 0, "Number of ranked outfits to return")

	rootCmd.AddCommand(planCommand)
}

func runPlan(_ *cobra.Command, _ []string) error {
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

	userID := planUser
	if userID == "" {
		userID = cfg.DefaultUser
	}
	rec, err := svc.Recommend(ctx, orchestrator.Request{
		UserID:   userID,
		Occasion: model.Occasion(planOccasion),
		Gender:   model.Gender(planGender),
		TopN:     planTopN,
	})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
