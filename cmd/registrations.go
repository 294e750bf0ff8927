package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marat/regdesk/internal/db"
	"github.com/marat/regdesk/internal/models"
	"github.com/marat/regdesk/internal/output"
)

var registrationsCmd = &cobra.Command{
	Use:     "registrations",
	Short:   "List registrations for an event",
	GroupID: "query",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetInt64("event")
		asJSON, _ := cmd.Flags().GetBool("json")

		if eventID == 0 {
			return fmt.Errorf("--event is required")
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		regs, err := database.ListRegistrationsForEvent(eventID)
		if err != nil {
			output.Error("list registrations: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(regs)
		}

		if len(regs) == 0 {
			fmt.Println("No registrations for this event.")
			return nil
		}

		for _, r := range regs {
			category := r.Category
			if category == "" {
				category = "-"
			}
			fmt.Printf("%-4d %-24s %-14s %-12s %-10s %-3d %-16s %s\n",
				r.ID, truncate(r.Collective, 24), truncate(r.Discipline, 14),
				r.Nomination, category, r.Participants, r.PaymentStatus,
				output.FormatSyncStatus(models.SyncStatus(r.SyncStatus)))
		}
		fmt.Printf("\n%d registration(s)\n", len(regs))
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	registrationsCmd.Flags().Int64("event", 0, "Local event id")
	registrationsCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(registrationsCmd)
}
