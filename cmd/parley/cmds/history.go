package cmds

import (
	"fmt"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/spf13/cobra"
)

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the stored messages of the conversation given by --session-id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, tr, err := a.newClient(chatclient.TranscriptFuncs{})
			if err != nil {
				return err
			}
			defer tr.CloseIdleConnections()

			entries, err := client.History(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", e.Timestamp, e.Role, e.Content)
			}
			return nil
		},
	}
}
