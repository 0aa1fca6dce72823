package cli

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soliluna/soliluna/internal/client/data"
	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// NewIngredientCommand creates the ingredient command group with
// add/edit/delete subcommands.
func NewIngredientCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingredient",
		Short: "Manage catalog ingredients",
	}

	cmd.AddCommand(newIngredientAddCommand(rootOpts))
	cmd.AddCommand(newIngredientEditCommand(rootOpts))
	cmd.AddCommand(newIngredientDeleteCommand(rootOpts))

	return cmd
}

type ingredientFlags struct {
	pkgSize  float64
	pkgUnit  string
	pkgPrice int64
}

func (f *ingredientFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.pkgSize, "pkg-size", 0, "package size")
	cmd.Flags().StringVar(&f.pkgUnit, "pkg-unit", "", "package unit (l|ml|kg|g|u)")
	cmd.Flags().Int64Var(&f.pkgPrice, "pkg-price", 0, "package price in cents")
}

func newIngredientAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &ingredientFlags{}

	cmd := &cobra.Command{
		Use:           "add <name>",
		Short:         "Add an ingredient",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate id: %w", err)
			}

			ing, status, err := app.data.CreateIngredient(ctx, api.IngredientCreate{
				ID:       id.String(),
				Name:     args[0],
				PkgSize:  flags.pkgSize,
				PkgUnit:  models.Unit(flags.pkgUnit),
				PkgPrice: flags.pkgPrice,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printIngredient(out, *ing)
			printStatusNote(out, status)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newIngredientEditCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &ingredientFlags{}
	var name string

	cmd := &cobra.Command{
		Use:           "edit <id>",
		Short:         "Edit an ingredient",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			// Текущая запись даёт значения для не указанных флагов и
			// concurrency token для обновления.
			current, _, err := app.data.GetIngredient(ctx, args[0])
			if err != nil {
				return err
			}

			req := api.IngredientUpdate{
				Name:      current.Name,
				PkgSize:   current.PkgSize,
				PkgUnit:   current.PkgUnit,
				PkgPrice:  current.PkgPrice,
				UpdatedAt: current.UpdatedAt,
			}
			if name != "" {
				req.Name = name
			}
			if cmd.Flags().Changed("pkg-size") {
				req.PkgSize = flags.pkgSize
			}
			if cmd.Flags().Changed("pkg-unit") {
				req.PkgUnit = models.Unit(flags.pkgUnit)
			}
			if cmd.Flags().Changed("pkg-price") {
				req.PkgPrice = flags.pkgPrice
			}

			ing, status, err := app.data.UpdateIngredient(ctx, args[0], req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printIngredient(out, *ing)
			printStatusNote(out, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "ingredient name")
	flags.register(cmd)
	return cmd
}

func newIngredientDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete an ingredient",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			status, err := app.data.DeleteIngredient(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "deleted %s\n", args[0])
			printStatusNote(out, status)
			return nil
		},
	}
}

func printStatusNote(out io.Writer, status data.SaveStatus) {
	if status == data.StatusQueued {
		fmt.Fprintln(out, "(offline: change queued, will be replayed on next sync)")
	}
}
