package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marat/regdesk/internal/api"
	"github.com/marat/regdesk/internal/config"
	"github.com/marat/regdesk/internal/db"
	"github.com/marat/regdesk/internal/output"
	regsync "github.com/marat/regdesk/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Reconcile the local replica with the server",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		pullOnly, _ := cmd.Flags().GetBool("pull-only")
		pushOnly, _ := cmd.Flags().GetBool("push-only")
		asJSON, _ := cmd.Flags().GetBool("json")

		if pullOnly && pushOnly {
			return fmt.Errorf("--pull-only and --push-only are mutually exclusive")
		}

		if !config.IsAuthenticated() {
			output.Error("not logged in (run: regdesk auth login)")
			return fmt.Errorf("not authenticated")
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("open database: %v", err)
			return err
		}
		defer database.Close()

		client := api.New(config.GetServerURL(), config.GetToken())
		syncer := regsync.New(database, client)

		var res *regsync.Result
		switch {
		case pullOnly:
			res = syncer.Pull()
		case pushOnly:
			res = syncer.Push()
		case !config.GetPushOnSync():
			res = syncer.Pull()
		default:
			res = syncer.SyncAll()
		}

		if asJSON {
			return output.JSON(res)
		}
		printSyncResult(res)
		if !res.Success {
			return fmt.Errorf("sync finished with errors")
		}
		return nil
	},
}

// printSyncResult renders a sync summary for humans.
func printSyncResult(res *regsync.Result) {
	if res.Success {
		output.Success("Sync complete")
	} else {
		output.Warning("Sync finished with errors")
	}

	order := []struct{ key, label string }{
		{regsync.StageReference, "Reference data"},
		{regsync.StageEvents, "Events"},
		{regsync.StageRegistrations, "Registrations"},
		{regsync.StageAccounting, "Accounting entries"},
		{regsync.StagePushed, "Pushed"},
	}
	for _, st := range order {
		if n, ok := res.Synced[st.key]; ok {
			fmt.Printf("  %-20s %d\n", st.label, n)
		}
	}

	for _, e := range res.Errors {
		output.Error("%s", e)
	}
}

func init() {
	syncCmd.Flags().Bool("pull-only", false, "Pull server data without pushing local changes")
	syncCmd.Flags().Bool("push-only", false, "Push local changes without pulling")
	syncCmd.Flags().Bool("json", false, "Output result as JSON")
	rootCmd.AddCommand(syncCmd)
}
