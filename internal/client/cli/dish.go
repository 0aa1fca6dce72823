package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soliluna/soliluna/pkg/api"
)

// NewDishCommand creates the dish command group with add/edit/delete
// subcommands.
func NewDishCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dish",
		Short: "Manage catalog dishes",
	}

	cmd.AddCommand(newDishAddCommand(rootOpts))
	cmd.AddCommand(newDishEditCommand(rootOpts))
	cmd.AddCommand(newDishDeleteCommand(rootOpts))

	return cmd
}

type dishFlags struct {
	pax          int
	multiplier   int
	notes        string
	deliveryDate string
}

func (f *dishFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.pax, "pax", 0, "number of servings")
	cmd.Flags().IntVar(&f.multiplier, "multiplier", 0, "price multiplier 1..6")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&f.deliveryDate, "delivery-date", "", "delivery date (YYYY-MM-DD)")
}

func newDishAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &dishFlags{}

	cmd := &cobra.Command{
		Use:           "add <name>",
		Short:         "Add a dish",
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

			req := api.DishCreate{
				ID:         id.String(),
				Name:       args[0],
				Pax:        flags.pax,
				Notes:      flags.notes,
				Multiplier: flags.multiplier,
			}
			if flags.deliveryDate != "" {
				req.DeliveryDate = &flags.deliveryDate
			}

			dish, status, err := app.data.CreateDish(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  %d pax\n", dish.ID, dish.Name, dish.Pax)
			printStatusNote(out, status)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newDishEditCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &dishFlags{}
	var (
		name        string
		ingredients []string
		recipes     []string
	)

	cmd := &cobra.Command{
		Use:           "edit <id>",
		Short:         "Edit a dish and its ingredient and recipe lists",
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

			current, _, err := app.data.GetDish(ctx, args[0])
			if err != nil {
				return err
			}

			req := api.DishUpdate{
				Name:         current.Name,
				Pax:          current.Pax,
				DeliveryDate: current.DeliveryDate,
				Notes:        current.Notes,
				Multiplier:   current.Multiplier,
				UpdatedAt:    current.UpdatedAt,
			}
			for _, u := range current.Ingredients {
				req.Ingredients = append(req.Ingredients, u.IngredientUsage)
			}
			for _, u := range current.Recipes {
				req.Recipes = append(req.Recipes, u.RecipeUsage)
			}

			if name != "" {
				req.Name = name
			}
			if cmd.Flags().Changed("pax") {
				req.Pax = flags.pax
			}
			if cmd.Flags().Changed("multiplier") {
				req.Multiplier = flags.multiplier
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = flags.notes
			}
			if cmd.Flags().Changed("delivery-date") {
				if flags.deliveryDate == "" {
					req.DeliveryDate = nil
				} else {
					req.DeliveryDate = &flags.deliveryDate
				}
			}
			if cmd.Flags().Changed("ingredient") {
				req.Ingredients, err = parseIngredientUsages(ingredients)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("recipe") {
				req.Recipes, err = parseRecipeUsages(recipes)
				if err != nil {
					return err
				}
			}

			dish, status, err := app.data.UpdateDish(ctx, args[0], req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printDish(out, *dish)
			printStatusNote(out, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "dish name")
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&ingredients, "ingredient", nil,
		"ingredient usage <id>:<amount>:<unit>, replaces the whole list (repeatable)")
	cmd.Flags().StringArrayVar(&recipes, "recipe", nil,
		"recipe usage <id>:<amount>:<unit>, replaces the whole list (repeatable)")
	return cmd
}

func newDishDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a dish",
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

			status, err := app.data.DeleteDish(ctx, args[0])
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
