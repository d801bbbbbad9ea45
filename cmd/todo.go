package main

import (
	"github.com/spf13/cobra"

	"github.com/lifelens/lifelens-cli/internal/model"
	"github.com/lifelens/lifelens-cli/internal/store"
)

var (
	todoActionID string
	todoTitle    string
	todoNote     string
	todoChips    []string
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage saved actions",
}

// withStore opens the store, runs fn and closes the store.
func withStore(cmd *cobra.Command, fn func(store.Store) (any, error)) error {
	st, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	v, err := fn(st)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return printJSON(cmd.OutOrStdout(), v)
}

var todoAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a suggestion as a to-do",
	RunE: func(cmd *cobra.Command, _ []string) error {
		card := model.Card{
			Type:           model.TypeAction,
			Title:          todoTitle,
			Body:           todoNote,
			MetricCallouts: todoChips,
			Actionable:     true,
			ActionID:       todoActionID,
		}
		return withStore(cmd, func(st store.Store) (any, error) {
			return st.AddTodoFromCard(cmd.Context(), card)
		})
	},
}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List to-dos, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(st store.Store) (any, error) {
			return st.ListTodos(cmd.Context())
		})
	},
}

var todoToggleCmd = &cobra.Command{
	Use:   "toggle <action-id>",
	Short: "Flip a to-do between done and open",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st store.Store) (any, error) {
			return st.ToggleTodo(cmd.Context(), args[0])
		})
	},
}

var todoRemoveCmd = &cobra.Command{
	Use:   "remove <action-id>",
	Short: "Delete a to-do",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st store.Store) (any, error) {
			return st.RemoveTodo(cmd.Context(), args[0])
		})
	},
}

var todoClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every to-do",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(st store.Store) (any, error) {
			return nil, st.ClearTodos(cmd.Context())
		})
	},
}

func init() {
	todoAddCmd.Flags().StringVar(&todoActionID, "action-id", "", "action ID of the suggestion (required)")
	todoAddCmd.Flags().StringVar(&todoTitle, "title", "", "suggestion title")
	todoAddCmd.Flags().StringVar(&todoNote, "note", "", "suggestion body")
	todoAddCmd.Flags().StringSliceVar(&todoChips, "chip", nil, "metric callout chip (repeatable)")
	_ = todoAddCmd.MarkFlagRequired("action-id")

	todoCmd.AddCommand(todoAddCmd, todoListCmd, todoToggleCmd, todoRemoveCmd, todoClearCmd)
	rootCmd.AddCommand(todoCmd)
}
