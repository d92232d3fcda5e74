package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title K-Lens API
// @version 1.0
// @description Document intake service: stores uploads, classifies their text and keeps metadata.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "klens",
		Short: "K-Lens document intake service",
		Long: `K-Lens stores uploaded documents, enriches their text through a
completion model when one is configured and keeps metadata in SQLite or
PostgreSQL. Old uploads are removed by a retention sweeper.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newSweepCommand(),
		newTokenCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version info",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("klens %s (%s, %s)\n", version, commit, buildDate)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
