package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lifelens/lifelens-cli/internal/engine"
)

var (
	assessInput    string
	assessScenario string
	assessSave     bool
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run the risk engine and print drivers and triggers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		in, err := loadInput(cmd.InOrStdin(), assessInput, assessScenario)
		if err != nil {
			return err
		}
		out := engine.Run(in)

		if assessSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			a, err := st.SaveAssessment(ctx, in, out)
			if err != nil {
				return eris.Wrap(err, "save assessment")
			}
			zap.L().Info("assessment saved", zap.String("id", a.ID), zap.Int("triggers", len(out.Triggers)))
		}

		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessInput, "input", "", "path to a RawHealthInput JSON file (- for stdin)")
	assessCmd.Flags().StringVar(&assessScenario, "scenario", "", "name of a built-in scenario")
	assessCmd.Flags().BoolVar(&assessSave, "save", false, "persist the assessment")
	rootCmd.AddCommand(assessCmd)
}
