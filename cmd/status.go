package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marat/regdesk/internal/api"
	"github.com/marat/regdesk/internal/config"
	"github.com/marat/regdesk/internal/db"
	"github.com/marat/regdesk/internal/output"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show replica and server status",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		version, err := database.GetSchemaVersion()
		if err != nil {
			output.Error("schema version: %v", err)
			return err
		}

		counts, err := database.CountsByTable()
		if err != nil {
			output.Error("row counts: %v", err)
			return err
		}

		pending, err := database.CountPendingPush()
		if err != nil {
			output.Error("pending count: %v", err)
			return err
		}

		lastSynced, err := database.LastSyncedAt()
		if err != nil {
			output.Error("last synced: %v", err)
			return err
		}

		output.Title("Replica")
		fmt.Printf("  Schema version: %d\n", version)
		for _, table := range []string{"events", "collectives", "registrations", "accounting_entries"} {
			fmt.Printf("  %-20s %d\n", table, counts[table])
		}
		if lastSynced == "" {
			fmt.Println("  Last synced:    never")
		} else {
			fmt.Printf("  Last synced:    %s\n", lastSynced)
		}
		if pending > 0 {
			output.Warning("%d local change(s) waiting for push", pending)
		}

		output.Title("Server")
		serverURL := config.GetServerURL()
		fmt.Printf("  URL: %s\n", serverURL)
		client := api.New(serverURL, config.GetToken())
		if health, err := client.HealthCheck(); err != nil {
			output.Warning("unreachable: %v", err)
		} else {
			output.Success("  reachable (%s)", health.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
