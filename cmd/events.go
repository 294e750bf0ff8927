package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marat/regdesk/internal/db"
	"github.com/marat/regdesk/internal/models"
	"github.com/marat/regdesk/internal/output"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "List events in the local replica",
	GroupID: "query",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		serverID, _ := cmd.Flags().GetInt64("server")
		syncedOnly, _ := cmd.Flags().GetBool("synced")

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if serverID != 0 {
			return showEvent(database, serverID, asJSON)
		}

		var events []models.Event
		if syncedOnly {
			events, err = database.EventsWithServerID()
		} else {
			events, err = database.ListEvents()
		}
		if err != nil {
			output.Error("list events: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(events)
		}

		if len(events) == 0 {
			fmt.Println("No events. Run: regdesk sync")
			return nil
		}

		for _, e := range events {
			sid := "-"
			if e.ServerID != nil {
				sid = fmt.Sprintf("#%d", *e.ServerID)
			}
			fmt.Printf("%-4d %-6s %-10s %-10s %-8s %s\n",
				e.ID, sid,
				output.FormatDate(e.StartDate), output.FormatDate(e.EndDate),
				e.Status, e.Name)
		}
		return nil
	},
}

// showEvent prints one event looked up by its server id.
func showEvent(database *db.DB, serverID int64, asJSON bool) error {
	e, err := database.GetEventByServerID(serverID)
	if err != nil {
		output.Error("get event: %v", err)
		return err
	}
	if e == nil {
		fmt.Printf("No local event for server id %d. Run: regdesk sync\n", serverID)
		return nil
	}

	if asJSON {
		return output.JSON(e)
	}

	output.Title("%s", e.Name)
	fmt.Printf("Local id:    %d\n", e.ID)
	fmt.Printf("Server id:   %d\n", serverID)
	fmt.Printf("Dates:       %s – %s\n", output.FormatDate(e.StartDate), output.FormatDate(e.EndDate))
	fmt.Printf("Status:      %s\n", e.Status)
	fmt.Printf("Sync status: %s\n", output.FormatSyncStatus(e.SyncStatus))
	if e.LastSyncedAt != nil {
		fmt.Printf("Last synced: %s\n", e.LastSyncedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func init() {
	eventsCmd.Flags().Bool("json", false, "Output as JSON")
	eventsCmd.Flags().Bool("synced", false, "Only events linked to the server")
	eventsCmd.Flags().Int64("server", 0, "Show one event by its server id")
	rootCmd.AddCommand(eventsCmd)
}
