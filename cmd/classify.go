package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamscout/jamscout/internal/cli"
	"github.com/jamscout/jamscout/internal/jam"
	"github.com/jamscout/jamscout/internal/store"
)

// errPromptClosed signals that interactive input ended before every jam
// was classified.
var errPromptClosed = errors.New("input closed")

// newClassifyCmd creates and configures the 'classify' subcommand.
func newClassifyCmd() *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "classify [jam-id...]",
		Short: "Assign game types to stored jams",
		Long: `Sets the game type of stored jams. With --type the given jams (or, when
none are named, every current unclassified jam) are set to that type in
one shot; without --type each jam is shown and a type is read
interactively. A blank response leaves a jam unchanged.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassifyCommand(cmd, typeName, args)
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "game type to assign (tabletop, digital, unclassified)")
	return cmd
}

func runClassifyCommand(cmd *cobra.Command, typeName string, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	st := appInstance.GetStore()

	var assigned *jam.Category
	if typeName != "" {
		category, err := jam.ParseCategory(typeName)
		if err != nil {
			return err
		}
		assigned = &category
	}

	ids := args
	if len(ids) == 0 {
		ids, err = st.QueryJams(cmd.Context(), store.ByCategory(jam.CategoryUnclassified))
		if err != nil {
			return fmt.Errorf("query unclassified jams: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No unclassified jams.")
			return nil
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for _, id := range ids {
		j, err := st.LoadJam(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s not found\n", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("load jam %s: %w", id, err)
		}

		target := jam.CategoryUnclassified
		if assigned != nil {
			target = *assigned
		} else {
			choice, err := promptCategory(cmd, scanner, j)
			if errors.Is(err, errPromptClosed) {
				return nil
			}
			if err != nil {
				return err
			}
			if choice == nil {
				continue
			}
			target = *choice
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Classifying %s as %s\n", j.ID, target)
		j.Category = target
		if err := st.UpsertJam(cmd.Context(), j); err != nil {
			return fmt.Errorf("store jam %s: %w", j.ID, err)
		}
	}
	return nil
}

// promptCategory shows the jam and reads a game type from the command's
// input. It returns nil on a blank line, and errPromptClosed once the
// input is exhausted.
func promptCategory(cmd *cobra.Command, scanner *bufio.Scanner, j *jam.Jam) (*jam.Category, error) {
	out := cmd.OutOrStdout()
	if err := cli.WriteJamDetail(out, j); err != nil {
		return nil, err
	}
	for {
		fmt.Fprint(out, "\nGame type [tabletop/digital/unclassified, blank to skip]: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read response: %w", err)
			}
			return nil, errPromptClosed
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil, nil
		}
		category, err := jam.ParseCategory(line)
		if err != nil {
			fmt.Fprintf(out, "Unknown type %q, try again.\n", line)
			continue
		}
		return &category, nil
	}
}
