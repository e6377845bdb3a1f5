package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamscout/jamscout/internal/cli"
	"github.com/jamscout/jamscout/internal/jam"
	"github.com/jamscout/jamscout/internal/store"
)

type listOptions struct {
	typeName string
	owner    string
	jamID    string
	all      bool
	old      bool
	format   string
}

// newListCmd creates and configures the 'list' subcommand.
func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored jams",
		Long: `Lists jams from the database. Without a selector the current tabletop
jams are shown; --type, --owner, --id, and --all select other slices, and
--old includes jams that have already ended.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListCommand(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.typeName, "type", "", "select jams of one game type (tabletop, digital, unclassified)")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "select jams hosted by an owner ID")
	cmd.Flags().StringVar(&opts.jamID, "id", "", "select one jam by ID")
	cmd.Flags().BoolVar(&opts.all, "all", false, "select every jam")
	cmd.Flags().BoolVar(&opts.old, "old", false, "include jams that have already ended")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text or json)")
	cmd.MarkFlagsMutuallyExclusive("type", "owner", "id", "all")

	return cmd
}

func runListCommand(cmd *cobra.Command, opts listOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	filter, err := listFilter(opts)
	if err != nil {
		return err
	}
	format, err := cli.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	st := appInstance.GetStore()
	ids, err := st.QueryJams(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query jams: %w", err)
	}
	jams := make([]*jam.Jam, 0, len(ids))
	for _, id := range ids {
		j, err := st.LoadJam(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("load jam %s: %w", id, err)
		}
		jams = append(jams, j)
	}

	return cli.WriteJams(cmd.OutOrStdout(), listCaption(filter), jams, format)
}

// listFilter maps the command's flags onto a store filter. With no
// selector flag the current tabletop jams are listed.
func listFilter(opts listOptions) (store.Filter, error) {
	var f store.Filter
	switch {
	case opts.typeName != "":
		category, err := jam.ParseCategory(opts.typeName)
		if err != nil {
			return store.Filter{}, err
		}
		f = store.ByCategory(category)
	case opts.owner != "":
		f = store.ByOwner(opts.owner)
	case opts.jamID != "":
		f = store.ByID(opts.jamID)
	case opts.all:
		f = store.All()
	default:
		f = store.ByCategory(jam.CategoryTabletop)
	}
	if opts.old {
		f.Temporal = store.TemporalAny
	}
	return f, nil
}

func listCaption(f store.Filter) string {
	scope := "Current"
	if f.Temporal == store.TemporalAny {
		scope = "All"
	}
	switch {
	case f.Category != nil:
		return fmt.Sprintf("%s %s jams", scope, *f.Category)
	case f.OwnerID != "":
		return fmt.Sprintf("%s jams hosted by %s", scope, f.OwnerID)
	case f.JamID != "":
		return fmt.Sprintf("%s jams matching %s", scope, f.JamID)
	default:
		return scope + " jams"
	}
}
