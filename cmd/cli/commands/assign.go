package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/activity-assignment/pkg/core/services"
	"github.com/jakechorley/activity-assignment/pkg/db"
)

// AssignCmd creates the assign command
func AssignCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign [csv]",
		Short: "Assign activities from student preferences",
		Long: `Assign each student-day to at most one activity, honouring per-day capacities,
ranked preferences and priority tiers.

Preferences are read from the CSV argument, then inputCSV, then the configured preference sheet.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, _ := cmd.Flags().GetString("strategy")
			parallel, _ := cmd.Flags().GetBool("parallel")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			publish, _ := cmd.Flags().GetBool("publish")
			tab, _ := cmd.Flags().GetString("tab")
			fromSheet, _ := cmd.Flags().GetBool("sheet")

			source, err := resolveSource(app, args, fromSheet)
			if err != nil {
				return err
			}

			app.Logger.Debug("assign command",
				zap.String("source", source.Name()),
				zap.String("strategy", strategy),
				zap.Bool("parallel", parallel),
				zap.Bool("dry_run", dryRun),
				zap.Bool("publish", publish))

			opts := services.AssignOptions{
				Strategy:   strategy,
				Parallel:   parallel,
				DryRun:     dryRun,
				ResultsTab: tab,
				Env:        app.Env,
			}

			if publish && !dryRun {
				client, err := app.SheetsClient()
				if err != nil {
					return err
				}
				opts.Publisher = client
			}

			var store db.ResultStore
			if !dryRun {
				store, err = app.Store()
				if err != nil {
					return err
				}
			}

			result, err := services.AssignActivities(app.Ctx, source, store, app.Cfg, app.Logger, opts)
			if err != nil {
				return err
			}

			PrintReport(os.Stdout, result)

			switch {
			case dryRun:
				fmt.Println("Dry run: nothing was saved or published.")
			case result.Persisted:
				fmt.Printf("Run %s saved.\n", result.Run.ID)
			}
			if result.Published {
				fmt.Printf("Published to tab %q.\n", result.Run.ResultsTab)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("strategy", "", "Solve strategy: mincost or tiered (defaults to config)")
	cmd.Flags().Bool("parallel", false, "Solve days concurrently")
	cmd.Flags().Bool("dry-run", false, "Run without saving to database or publishing")
	cmd.Flags().Bool("publish", false, "Publish assignments to a new tab of the results sheet")
	cmd.Flags().String("tab", "", "Results tab title (defaults to a timestamp)")
	cmd.Flags().Bool("sheet", false, "Read preferences from the configured preference sheet")

	return cmd
}

// resolveSource picks the CSV argument, the configured CSV or the preference sheet
func resolveSource(app *AppContext, args []string, fromSheet bool) (services.PreferenceSource, error) {
	if fromSheet {
		if app.Cfg.PreferenceSheetID == "" {
			return nil, fmt.Errorf("--sheet requires preferenceSheetID in config")
		}
		return services.SheetSource{Client: app, Cfg: app.Cfg}, nil
	}

	var csvPath string
	if len(args) > 0 {
		csvPath = args[0]
	}
	return services.ResolveSource(csvPath, app.Cfg, app)
}
