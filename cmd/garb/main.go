// Package main provides the entry point for the garb outfit service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "garb",
	Short: "Daily outfit recommendation agent",
	Long: `Garb plans a daily outfit from the wardrobe catalog using color harmony,
occasion formality, weather fit, and learned preferences. It serves an HTTP
API, runs one-off planning and rotation passes, and learns from feedback.`,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
