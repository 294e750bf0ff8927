package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marat/regdesk/internal/db"
	"github.com/marat/regdesk/internal/output"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize the local replica",
	Long:    `Creates the local .regdesk directory and SQLite replica database.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		if _, err := os.Stat(filepath.Join(baseDir, ".regdesk")); err == nil {
			output.Warning(".regdesk/ already exists")
			return nil
		}

		database, err := db.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		fmt.Println("INITIALIZED .regdesk/")
		output.Subtle("Next: regdesk auth login, then regdesk sync")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
