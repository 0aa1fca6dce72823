package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command: replay the outbox, then pull
// the server delta into the local cache.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:           "sync",
		Short:         "Synchronize the local cache with the server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()

			if full {
				// Полная перезаливка кэша вместо инкрементальной дельты.
				if err := app.sync.Preload(cmd.Context()); err != nil {
					return fmt.Errorf("preload failed: %w", err)
				}
				fmt.Fprintln(out, "cache reloaded from server")
			}
			result, err := app.sync.Sync(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			flush := result.Flush
			fmt.Fprintf(out, "outbox: %d delivered, %d remaining\n", flush.Delivered, flush.Remaining)
			for _, rej := range flush.Rejections {
				fmt.Fprintf(out, "rejected: %s %s: %s\n", rej.Entry.Method, rej.Entry.Path, rej.Message)
			}
			if flush.Offline {
				fmt.Fprintln(out, "server unreachable, queued mutations kept for the next sync")
				return nil
			}

			pull := result.Pull
			fmt.Fprintf(out, "pulled: %d updated, %d deleted\n", pull.Applied, pull.Deleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "reload the whole cache instead of the incremental delta")
	return cmd
}
