package cmds

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/parley/pkg/repl"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSendCommand(a *app) *cobra.Command {
	var pickDomain bool
	cmd := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send a single message and print the exchange",
		Long: "Sends one message, prints the user and bot turns, and reports the session " +
			"identifier on stderr so it can be passed back with --session-id.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("message is empty")
			}
			domain, useDomain := a.settings.Domain, a.settings.UseDomain
			if pickDomain {
				picked, err := chooseDomain(a.settings.Domains, domain)
				if err != nil {
					return err
				}
				domain, useDomain = picked, picked != ""
			}

			client, tr, err := a.newClient(repl.NewWriterTranscript(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer tr.CloseIdleConnections()

			submitErr := client.Submit(cmd.Context(), text, domain, useDomain)
			if id, ok := client.SessionID(); ok {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", id)
			}
			return errors.Wrap(submitErr, "exchange failed")
		},
	}
	cmd.Flags().BoolVar(&pickDomain, "pick-domain", false, "choose the domain interactively")
	return cmd
}
