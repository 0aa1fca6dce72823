package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soliluna/soliluna/internal/client/data"
	"github.com/soliluna/soliluna/internal/client/events"
	"github.com/soliluna/soliluna/internal/client/sync"
	"github.com/soliluna/soliluna/pkg/api"
)

// NewWatchCommand creates the watch command: periodic sync plus a live
// event subscription that applies server-side changes to the cache as
// they happen.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "watch",
		Short:         "Keep the local cache in sync and print live events",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			runner := sync.NewRunner(app.sync, app.logger, sync.DefaultPollInterval)

			// Всплеск invalidate-событий (bulk-правка на другом
			// устройстве) схлопывается в один внеочередной sync.
			debouncer := data.NewDebouncer(data.DefaultDebounceDelay, runner.Kick)
			defer debouncer.Close()

			eventsClient, err := events.NewClient(rootOpts.ServerURL, app.clientID, app.logger)
			if err != nil {
				return err
			}

			unsubscribe := eventsClient.Subscribe(func(ev api.Event) {
				switch ev.Type {
				case api.EventConnected:
					fmt.Fprintf(out, "connected (%s)\n", ev.ConnectionID)
				case api.EventInvalidate:
					fmt.Fprintf(out, "%s %s %s\n", ev.Action, ev.Entity, ev.ID)
					if err := app.data.Invalidate(ctx, ev.Entity, ev.ID, ev.Action); err != nil {
						app.logger.Warn("failed to apply invalidation", "entity", ev.Entity, "id", ev.ID, "error", err)
					}
					debouncer.Trigger()
				}
			})
			defer unsubscribe()

			runner.Run(ctx)
			return nil
		},
	}
}
