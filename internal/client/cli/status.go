package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command showing local sync state.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show sync state of the local cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			pending, err := app.sync.PendingCount(ctx)
			if err != nil {
				return err
			}
			failed, err := app.sync.FailedEntries(ctx)
			if err != nil {
				return err
			}
			lastSyncAt, err := app.store.GetLastSyncAt(ctx)
			if err != nil {
				return err
			}
			if lastSyncAt == "" {
				lastSyncAt = "never"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "server:     %s\n", rootOpts.ServerURL)
			fmt.Fprintf(out, "client id:  %s\n", app.clientID)
			fmt.Fprintf(out, "last sync:  %s\n", lastSyncAt)
			fmt.Fprintf(out, "pending:    %d\n", pending)
			fmt.Fprintf(out, "failed:     %d\n", len(failed))
			for _, entry := range failed {
				fmt.Fprintf(out, "  %s %s: %s\n", entry.Method, entry.Path, entry.LastError)
			}
			return nil
		},
	}
}
