package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamscout/jamscout/internal/store"
)

// newDeleteCmd creates and configures the 'delete' subcommand.
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <jam-id> [jam-id...]",
		Short: "Delete stored jams",
		Long: `Removes the given jams and their owner associations from the database.
Owners shared with other jams are kept.`,

		Args: cobra.MinimumNArgs(1),
		RunE: runDeleteCommand,
	}
}

func runDeleteCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	st := appInstance.GetStore()

	for _, id := range args {
		err := st.DeleteJam(cmd.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Fprintf(cmd.ErrOrStderr(), "%s not found\n", id)
		case err != nil:
			return fmt.Errorf("delete jam %s: %w", id, err)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Deleting %s\n", id)
		}
	}
	return nil
}
