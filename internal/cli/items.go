package cli

import (
	"fmt"
	"strings"

	"github.com/aussiebroadwan/shoppinghelp/internal/app"
	"github.com/aussiebroadwan/shoppinghelp/pkg/shoppingsdk"
	"github.com/aussiebroadwan/shoppinghelp/pkg/shref"
	"github.com/spf13/cobra"
)

func (e *env) newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, update and remove list items",
	}
	cmd.AddCommand(e.newItemAddCmd(), e.newItemUpdateCmd(), e.newItemRemoveCmd())
	return cmd
}

func addItemFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", string(shoppingsdk.ItemTypeIngredient), "Item type: recipe or ingredient")
	cmd.Flags().String("name", "", "Item name")
	cmd.Flags().String("ref", "", "Reference the item points at")
	cmd.Flags().String("url", "", "Item URL")
	cmd.Flags().String("image-url", "", "Item image URL")
	cmd.Flags().Bool("checked", false, "Mark the item checked")
	cmd.Flags().Float64("quantity", 0, "Item quantity")
	cmd.Flags().StringSlice("attr", nil, "Attribute as key=value (repeatable)")
}

// itemFields collects the item flags that were set on the command line.
type itemFields struct {
	typ        *shoppingsdk.ItemType
	name       *string
	ref        *shref.Ref
	url        *string
	imageURL   *string
	checked    *bool
	quantity   *float64
	attributes map[string]string
}

func readItemFlags(cmd *cobra.Command) (itemFields, error) {
	var f itemFields
	flags := cmd.Flags()

	if flags.Changed("type") {
		s, _ := flags.GetString("type")
		t := shoppingsdk.ItemType(s)
		if !t.Valid() {
			return f, fmt.Errorf("invalid item type %q (want recipe or ingredient)", s)
		}
		f.typ = &t
	}
	if flags.Changed("name") {
		s, _ := flags.GetString("name")
		f.name = &s
	}
	if flags.Changed("ref") {
		s, _ := flags.GetString("ref")
		ref, err := shref.Parse(s)
		if err != nil {
			return f, err
		}
		f.ref = &ref
	}
	if flags.Changed("url") {
		s, _ := flags.GetString("url")
		f.url = &s
	}
	if flags.Changed("image-url") {
		s, _ := flags.GetString("image-url")
		f.imageURL = &s
	}
	if flags.Changed("checked") {
		b, _ := flags.GetBool("checked")
		f.checked = &b
	}
	if flags.Changed("quantity") {
		q, _ := flags.GetFloat64("quantity")
		f.quantity = &q
	}
	if flags.Changed("attr") {
		pairs, _ := flags.GetStringSlice("attr")
		f.attributes = make(map[string]string, len(pairs))
		for _, pair := range pairs {
			k, v, ok := strings.Cut(pair, "=")
			if !ok || k == "" {
				return f, fmt.Errorf("invalid attribute %q (want key=value)", pair)
			}
			f.attributes[k] = v
		}
	}
	return f, nil
}

// apply overwrites the fields of item that were set on the command line.
func (f itemFields) apply(item *shoppingsdk.ListItemUpdatePayload) {
	if f.typ != nil {
		item.Type = *f.typ
	}
	if f.name != nil {
		item.Name = *f.name
	}
	if f.ref != nil {
		item.Ref = f.ref
	}
	if f.url != nil {
		item.URL = *f.url
	}
	if f.imageURL != nil {
		item.ImageURL = *f.imageURL
	}
	if f.checked != nil {
		item.Checked = f.checked
	}
	if f.quantity != nil {
		item.Quantity = f.quantity
	}
	if f.attributes != nil {
		item.Attributes = f.attributes
	}
}

// createPayload builds an add item body from the flags, defaulting the type
// to ingredient.
func (f itemFields) createPayload() shoppingsdk.ListItemCreatePayload {
	var update shoppingsdk.ListItemUpdatePayload
	update.Type = shoppingsdk.ItemTypeIngredient
	f.apply(&update)

	return shoppingsdk.ListItemCreatePayload{
		Ref:        update.Ref,
		Type:       update.Type,
		Name:       update.Name,
		URL:        update.URL,
		ImageURL:   update.ImageURL,
		Checked:    update.Checked,
		Quantity:   update.Quantity,
		Attributes: update.Attributes,
	}
}

func (e *env) newItemAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add LIST_ID",
		Short: "Add an item to a list",
		Args:  cobra.ExactArgs(1),
	}
	addItemFlags(cmd)
	_ = cmd.MarkFlagRequired("name")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		fields, err := readItemFlags(cmd)
		if err != nil {
			return err
		}

		payload := fields.createPayload()

		return e.withApp(cmd, func(a *app.Application) error {
			if err := a.API.AddItem(cmd.Context(), args[0], payload); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "listId": args[0]})
		})
	}
	return cmd
}

func (e *env) newItemUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update LIST_ID ITEM_ID",
		Short: "Change fields of an existing item",
		Long:  "Reads the item from the list, overwrites the fields given as flags and writes it back.",
		Args:  cobra.ExactArgs(2),
	}
	addItemFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		listID, itemID := args[0], args[1]

		fields, err := readItemFlags(cmd)
		if err != nil {
			return err
		}

		return e.withApp(cmd, func(a *app.Application) error {
			list, err := a.API.List(cmd.Context(), listID)
			if err != nil {
				return err
			}

			var update *shoppingsdk.ListItemUpdatePayload
			for _, item := range list.Items {
				if item.ID == itemID {
					p := item.UpdatePayload()
					update = &p
					break
				}
			}
			if update == nil {
				return fmt.Errorf("item %q not found in list %q", itemID, listID)
			}

			fields.apply(update)
			if err := a.API.UpdateItem(cmd.Context(), listID, *update); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), update)
		})
	}
	return cmd
}

func (e *env) newItemRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove LIST_ID ITEM_ID",
		Short: "Remove an item from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.Application) error {
				if err := a.API.RemoveItem(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "listId": args[0], "itemId": args[1]})
			})
		},
	}
}
