package cmds

import (
	"fmt"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/go-go-golems/parley/pkg/profiles"
	"github.com/spf13/cobra"
)

func newProfilesCommand(a *app) *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect endpoint profiles",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known profiles and where they were defined",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range a.registry.Names() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, a.registry.Source(name))
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [NAME...]",
		Short: "Print profiles as YAML (all when no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return profiles.WriteYAML(cmd.OutOrStdout(), a.registry.List())
			}
			var ps []chatclient.EndpointProfile
			for _, name := range args {
				p, err := a.registry.Get(name)
				if err != nil {
					return err
				}
				ps = append(ps, p)
			}
			return profiles.WriteYAML(cmd.OutOrStdout(), ps)
		},
	}

	profilesCmd.AddCommand(listCmd, showCmd)
	return profilesCmd
}
