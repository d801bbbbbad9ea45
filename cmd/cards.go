package main

import (
	"github.com/spf13/cobra"

	"github.com/lifelens/lifelens-cli/internal/engine"
	"github.com/lifelens/lifelens-cli/internal/model"
	"github.com/lifelens/lifelens-cli/internal/refiner"
	"github.com/lifelens/lifelens-cli/internal/store"
)

var (
	cardsInput    string
	cardsScenario string
	cardsPalette  string
	cardsOffline  bool
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Run the engine and refine its triggers into presentation cards",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		in, err := loadInput(cmd.InOrStdin(), cardsInput, cardsScenario)
		if err != nil {
			return err
		}

		var (
			st    store.Store
			todos []model.Todo
		)
		if !cardsOffline {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			if todos, err = st.ListTodos(ctx); err != nil {
				return err
			}
		}

		palette := cardsPalette
		if palette == "" {
			palette = cfg.Refiner.Palette
		}

		r := buildRefiner(initGenerator(), st, cardsOffline)
		payload, err := refiner.Serialize(ctx, r, engine.Run(in), palette, nil, todos)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), payload)
	},
}

func init() {
	cardsCmd.Flags().StringVar(&cardsInput, "input", "", "path to a RawHealthInput JSON file (- for stdin)")
	cardsCmd.Flags().StringVar(&cardsScenario, "scenario", "", "name of a built-in scenario")
	cardsCmd.Flags().StringVar(&cardsPalette, "palette", "", "card palette (default from config)")
	cardsCmd.Flags().BoolVar(&cardsOffline, "offline", false, "use the local formatter only")
	rootCmd.AddCommand(cardsCmd)
}
