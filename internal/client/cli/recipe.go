package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// NewRecipeCommand creates the recipe command group with
// add/edit/delete subcommands.
func NewRecipeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage catalog recipes",
	}

	cmd.AddCommand(newRecipeAddCommand(rootOpts))
	cmd.AddCommand(newRecipeEditCommand(rootOpts))
	cmd.AddCommand(newRecipeDeleteCommand(rootOpts))

	return cmd
}

// parseIngredientUsages разбирает значения повторяемого флага
// --ingredient вида <id>:<amount>:<unit>.
func parseIngredientUsages(values []string) ([]models.IngredientUsage, error) {
	usages := make([]models.IngredientUsage, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid ingredient usage %q: expected <id>:<amount>:<unit>", v)
		}
		amount, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %w", v, err)
		}
		usages = append(usages, models.IngredientUsage{
			IngredientID: parts[0],
			Amount:       amount,
			Unit:         models.Unit(parts[2]),
		})
	}
	return usages, nil
}

// parseRecipeUsages разбирает значения повторяемого флага --recipe
// вида <id>:<amount>:<unit>.
func parseRecipeUsages(values []string) ([]models.RecipeUsage, error) {
	usages := make([]models.RecipeUsage, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid recipe usage %q: expected <id>:<amount>:<unit>", v)
		}
		amount, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %w", v, err)
		}
		usages = append(usages, models.RecipeUsage{
			RecipeID: parts[0],
			Amount:   amount,
			Unit:     models.RecipeUnit(parts[2]),
		})
	}
	return usages, nil
}

func newRecipeAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		yieldAmount float64
		yieldUnit   string
	)

	cmd := &cobra.Command{
		Use:           "add <name>",
		Short:         "Add a recipe",
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

			rec, status, err := app.data.CreateRecipe(ctx, api.RecipeCreate{
				ID:          id.String(),
				Name:        args[0],
				YieldAmount: yieldAmount,
				YieldUnit:   models.RecipeUnit(yieldUnit),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  %.0f %s\n", rec.ID, rec.Name, rec.YieldAmount, rec.YieldUnit)
			printStatusNote(out, status)
			return nil
		},
	}

	cmd.Flags().Float64Var(&yieldAmount, "yield-amount", 0, "recipe yield amount")
	cmd.Flags().StringVar(&yieldUnit, "yield-unit", string(models.RecipeUnitPax), "recipe yield unit (PAX|kg|g)")
	return cmd
}

func newRecipeEditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name        string
		yieldAmount float64
		yieldUnit   string
		ingredients []string
	)

	cmd := &cobra.Command{
		Use:           "edit <id>",
		Short:         "Edit a recipe and its ingredient list",
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

			current, _, err := app.data.GetRecipe(ctx, args[0])
			if err != nil {
				return err
			}

			req := api.RecipeUpdate{
				Name:        current.Name,
				YieldAmount: current.YieldAmount,
				YieldUnit:   current.YieldUnit,
				UpdatedAt:   current.UpdatedAt,
			}
			for _, u := range current.Ingredients {
				req.Ingredients = append(req.Ingredients, u.IngredientUsage)
			}

			if name != "" {
				req.Name = name
			}
			if cmd.Flags().Changed("yield-amount") {
				req.YieldAmount = yieldAmount
			}
			if cmd.Flags().Changed("yield-unit") {
				req.YieldUnit = models.RecipeUnit(yieldUnit)
			}
			if cmd.Flags().Changed("ingredient") {
				req.Ingredients, err = parseIngredientUsages(ingredients)
				if err != nil {
					return err
				}
			}

			rec, status, err := app.data.UpdateRecipe(ctx, args[0], req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printRecipe(out, *rec)
			printStatusNote(out, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "recipe name")
	cmd.Flags().Float64Var(&yieldAmount, "yield-amount", 0, "recipe yield amount")
	cmd.Flags().StringVar(&yieldUnit, "yield-unit", "", "recipe yield unit (PAX|kg|g)")
	cmd.Flags().StringArrayVar(&ingredients, "ingredient", nil,
		"ingredient usage <id>:<amount>:<unit>, replaces the whole list (repeatable)")
	return cmd
}

func newRecipeDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a recipe",
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

			status, err := app.data.DeleteRecipe(ctx, args[0])
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
