package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soliluna/soliluna/internal/client/data"
	"github.com/soliluna/soliluna/internal/models"
)

// NewGetCommand creates the get command for a single catalog record.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <ingredients|recipes|dishes> <id>",
		Short:         "Show a single catalog record",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, id := args[0], args[1]
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
				var ing *models.Ingredient
				ing, source, err = app.data.GetIngredient(ctx, id)
				if err != nil {
					return err
				}
				printIngredient(out, *ing)
			case models.TypeRecipes:
				var rec *models.Recipe
				rec, source, err = app.data.GetRecipe(ctx, id)
				if err != nil {
					return err
				}
				printRecipe(out, *rec)
			case models.TypeDishes:
				var dish *models.Dish
				dish, source, err = app.data.GetDish(ctx, id)
				if err != nil {
					return err
				}
				printDish(out, *dish)
			}

			printSourceNote(out, source)
			return nil
		},
	}
}

func printRecipe(out io.Writer, rec models.Recipe) {
	fmt.Fprintf(out, "%s (%s)\n", rec.Name, rec.ID)
	fmt.Fprintf(out, "yield: %.0f %s\n", rec.YieldAmount, rec.YieldUnit)
	for _, usage := range rec.Ingredients {
		fmt.Fprintf(out, "  %s  %.2f %s  %s\n", usage.Name, usage.Amount, usage.Unit, formatCost(usage.Cost))
	}
	fmt.Fprintf(out, "cost: %s\n", formatCost(rec.Cost))
}

func printDish(out io.Writer, dish models.Dish) {
	fmt.Fprintf(out, "%s (%s)\n", dish.Name, dish.ID)
	fmt.Fprintf(out, "pax: %d, multiplier: %d\n", dish.Pax, dish.Multiplier)
	if dish.DeliveryDate != nil {
		fmt.Fprintf(out, "delivery: %s\n", *dish.DeliveryDate)
	}
	if dish.Notes != "" {
		fmt.Fprintf(out, "notes: %s\n", dish.Notes)
	}
	for _, usage := range dish.Ingredients {
		fmt.Fprintf(out, "  %s  %.2f %s  %s\n", usage.Name, usage.Amount, usage.Unit, formatCost(usage.Cost))
	}
	for _, usage := range dish.Recipes {
		fmt.Fprintf(out, "  %s  %.2f %s  %s\n", usage.Name, usage.Amount, usage.Unit, formatCost(usage.Cost))
	}
	fmt.Fprintf(out, "cost: %s, price: %s\n", formatCost(dish.BaseCost), formatCost(dish.FinalPrice))
}
