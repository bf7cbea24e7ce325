package cli

import (
	"github.com/aussiebroadwan/shoppinghelp/internal/app"
	"github.com/aussiebroadwan/shoppinghelp/pkg/shoppingsdk"
	"github.com/aussiebroadwan/shoppinghelp/pkg/shref"
	"github.com/spf13/cobra"
)

func (e *env) newListsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show your lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				lists, err := a.API.Lists(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), lists)
			})
		},
	}
}

func (e *env) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Read, create and delete a list",
	}
	cmd.AddCommand(e.newListGetCmd(), e.newListCreateCmd(), e.newListDeleteCmd())
	return cmd
}

func (e *env) newListGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get LIST_ID",
		Short: "Show a list with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				list, err := a.API.List(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}
}

func (e *env) newListCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create REF",
		Short: "Create a list bound to a reference such as nrn:msh:example.com:list:groceries",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("name", "", "List name (default: the reference type)")
	cmd.Flags().Bool("unique-items", true, "Reject duplicate items")
	cmd.Flags().Bool("checkboxes", false, "Show checkboxes")
	cmd.Flags().Bool("quantities", false, "Track quantities")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ref, err := shref.Parse(args[0])
		if err != nil {
			return err
		}

		payload := shoppingsdk.NewListCreatePayload(ref)
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			payload.Name = name
		}
		payload.UniqueItems, _ = cmd.Flags().GetBool("unique-items")
		payload.Checkboxes, _ = cmd.Flags().GetBool("checkboxes")
		payload.Quantities, _ = cmd.Flags().GetBool("quantities")

		return e.withApp(cmd, func(a *app.Application) error {
			id, err := a.API.CreateList(cmd.Context(), payload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"id": id})
		})
	}
	return cmd
}

func (e *env) newListDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete LIST_ID",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				if err := a.API.DeleteList(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "id": args[0]})
			})
		},
	}
}
