package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/homelistingai/outreach/internal/sequences"
)

func init() {
	rootCmd.AddCommand(sequencesCmd)
	sequencesCmd.AddCommand(sequencesListCmd)
	sequencesCmd.AddCommand(sequencesCheckCmd)
}

var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "Inspect sequence definitions",
}

var sequencesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded sequence definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := loadDefinitions()
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(defs))
		for _, def := range defs {
			rows = append(rows, []string{
				def.ID,
				def.Name,
				string(def.Trigger),
				strconv.Itoa(len(def.Steps)),
				formatActive(def.Active),
				def.Source,
			})
		}
		return writeTable(os.Stdout, []string{"ID", "NAME", "TRIGGER", "STEPS", "ACTIVE", "SOURCE"}, rows)
	},
}

var sequencesCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a sequence definition file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := sequences.LoadDefinition(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s: ok (%d steps, trigger %s)\n", def.ID, len(def.Steps), def.Trigger)
		for i, step := range def.Steps {
			fmt.Printf("  %d. %s after %s\n", i+1, step.Type, formatDelay(step.Delay))
		}
		return nil
	},
}
