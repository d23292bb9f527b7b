package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/store"
)

// progressCmd prints the stored progress record for one or more job ids.
var progressCmd = &cobra.Command{
	Use:   "progress <job-id> [job-id...]",
	Short: "Show the progress record for submitted jobs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		defer appInstance.Close()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Job ID", "Step", "Progress", "Filename"})

		for _, jobID := range args {
			rec, err := appInstance.Progress.GetProgress(cmd.Context(), jobID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					pending := models.Pending()
					rec = &pending
				} else {
					return fmt.Errorf("read progress for %s: %w", jobID, err)
				}
			}
			table.Append([]string{jobID, colorStep(rec.Step), fmt.Sprintf("%d%%", rec.Progress), rec.Filename})
		}
		table.Render()
		return nil
	},
}

func colorStep(step string) string {
	switch step {
	case models.StepCompleted:
		return color.GreenString(step)
	case models.StepError:
		return color.RedString(step)
	case models.StepPending:
		return color.YellowString(step)
	default:
		return step
	}
}

func init() {
	rootCmd.AddCommand(progressCmd)
}
