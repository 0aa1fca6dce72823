package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soliluna/soliluna/internal/calc"
	"github.com/soliluna/soliluna/internal/client/data"
	"github.com/soliluna/soliluna/internal/models"
)

// NewListCommand creates the list command for catalog entities.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <ingredients|recipes|dishes>",
		Short:         "List catalog records",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType := args[0]
			if !models.KnownType(entityType) {
				return fmt.Errorf("unknown entity type %q", entityType)
			}

			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			var source data.Source

			switch entityType {
			case models.TypeIngredients:
				var items []models.Ingredient
				items, source, err = app.data.ListIngredients(ctx)
				if err != nil {
					return err
				}
				for _, ing := range items {
					printIngredient(out, ing)
				}
			case models.TypeRecipes:
				var items []models.Recipe
				items, source, err = app.data.ListRecipes(ctx)
				if err != nil {
					return err
				}
				for _, rec := range items {
					fmt.Fprintf(out, "%s  %s  %.0f %s  %s\n",
						rec.ID, rec.Name, rec.YieldAmount, rec.YieldUnit, formatCost(rec.Cost))
				}
			case models.TypeDishes:
				var items []models.Dish
				items, source, err = app.data.ListDishes(ctx)
				if err != nil {
					return err
				}
				for _, dish := range items {
					fmt.Fprintf(out, "%s  %s  %d pax  cost %s  price %s\n",
						dish.ID, dish.Name, dish.Pax, formatCost(dish.BaseCost), formatCost(dish.FinalPrice))
				}
			}

			printSourceNote(out, source)
			return nil
		},
	}
}

func printIngredient(out io.Writer, ing models.Ingredient) {
	fmt.Fprintf(out, "%s  %s  %.2f %s  %s\n",
		ing.ID, ing.Name, ing.PkgSize, ing.PkgUnit, formatCost(ing.PkgPrice))
}

// formatCost выводит цену в евро; -1 (неизвестная стоимость) печатается
// как прочерк.
func formatCost(cents int64) string {
	if cents == calc.CostUnknown {
		return "-"
	}
	return calc.FormatCents(cents) + "€"
}

func printSourceNote(out io.Writer, source data.Source) {
	if source == data.SourceCache {
		fmt.Fprintln(out, "(offline: showing local cache)")
	}
}
