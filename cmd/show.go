package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamscout/jamscout/internal/cli"
	"github.com/jamscout/jamscout/internal/store"
)

// newShowCmd creates and configures the 'show' subcommand.
func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <jam-id> [jam-id...]",
		Short: "Show stored jams in full",
		Long: `Prints every field of the given jams, including the description
converted from page HTML to plain text.`,

		Args: cobra.MinimumNArgs(1),
		RunE: runShowCommand,
	}
}

func runShowCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	st := appInstance.GetStore()

	printed := false
	for _, id := range args {
		j, err := st.LoadJam(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s not found\n", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("load jam %s: %w", id, err)
		}
		if printed {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := cli.WriteJamDetail(cmd.OutOrStdout(), j); err != nil {
			return err
		}
		printed = true
	}
	return nil
}
