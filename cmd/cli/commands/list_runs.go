package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/activity-assignment/pkg/core/services"
)

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listRuns",
		Short: "List saved assignment runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("listRuns requires databaseURL in config")
			}

			runs, err := services.ListRuns(app.Ctx, store, app.Logger)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}

			fmt.Printf("\n%-36s  %-16s  %-8s  %8s  %10s  %s\n", "Run ID", "Created", "Strategy", "Assigned", "Unassigned", "Source")
			for _, run := range runs {
				fmt.Printf("%-36s  %-16s  %-8s  %8d  %10d  %s\n",
					run.ID,
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					run.Strategy,
					run.Assigned,
					run.Unassigned,
					run.Source,
				)
			}
			fmt.Println()

			return nil
		},
	}
}
