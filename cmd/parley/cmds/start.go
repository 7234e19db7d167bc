package cmds

import (
	"fmt"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/spf13/cobra"
)

func newStartCommand(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Create a new conversation and print its identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, tr, err := a.newClient(chatclient.TranscriptFuncs{})
			if err != nil {
				return err
			}
			defer tr.CloseIdleConnections()

			if title == "" {
				title = client.Profile().StartTitle
			}
			id, err := client.StartConversation(cmd.Context(), title)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "conversation title (defaults to the profile's start title)")
	return cmd
}
