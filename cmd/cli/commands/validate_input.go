package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/activity-assignment/pkg/core/model"
	"github.com/jakechorley/activity-assignment/pkg/core/services"
)

// ValidateInputCmd creates the validateInput command
func ValidateInputCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validateInput [csv]",
		Short: "Check a preference input without assigning",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromSheet, _ := cmd.Flags().GetBool("sheet")

			source, err := resolveSource(app, args, fromSheet)
			if err != nil {
				return err
			}

			summary, err := services.ValidateInput(app.Ctx, source, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ %s is valid\n\n", summary.Source)
			fmt.Printf("Students:     %d\n", summary.Entities)
			fmt.Printf("Student-days: %d\n\n", summary.EntityDays)

			for _, tier := range model.Priorities() {
				fmt.Printf("  %-7s %d\n", tier, summary.ByPriority[tier])
			}
			fmt.Println()
			for _, day := range model.Days() {
				if n := summary.ByDay[day]; n > 0 {
					fmt.Printf("  %-7s %d\n", day, n)
				}
			}

			if len(summary.UnknownActivities) > 0 {
				fmt.Printf("\n⚠️  Activities not in the catalog: %s\n", strings.Join(summary.UnknownActivities, ", "))
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Bool("sheet", false, "Read preferences from the configured preference sheet")

	return cmd
}
