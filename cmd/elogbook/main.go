package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env is fine; the environment and elogbook.yaml still apply.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "elogbook",
		Short: "Electronic logbook backend",
		Long:  "elogbook stores journal entries with file attachments and serves them through single-use download links.",
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
