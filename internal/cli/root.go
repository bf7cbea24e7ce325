// Package cli implements the shoppinghelp command line client.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aussiebroadwan/shoppinghelp/internal/app"
	"github.com/aussiebroadwan/shoppinghelp/pkg/slogx"
	"github.com/spf13/cobra"
)

// AppFactory builds the application a command runs against. Each command
// invocation opens its own application and closes it when done.
type AppFactory func() (*app.Application, error)

type env struct {
	newApp AppFactory
}

// NewRootCmd returns the top-level command with every subcommand attached.
func NewRootCmd(newApp AppFactory) *cobra.Command {
	e := &env{newApp: newApp}

	root := &cobra.Command{
		Use:           "shoppinghelp",
		Short:         "MyShoppingHelp from the terminal",
		Long:          "Log in to MyShoppingHelp and manage shopping lists, list items and recipe metadata.",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		e.newLoginCmd(),
		e.newLogoutCmd(),
		e.newWhoamiCmd(),
		e.newTokenCmd(),
		e.newListsCmd(),
		e.newListCmd(),
		e.newItemCmd(),
		e.newMetadataCmd(),
		newRefCmd(),
	)
	return root
}

// withApp opens the application, restores the persisted session and runs fn.
func (e *env) withApp(cmd *cobra.Command, fn func(a *app.Application) error) error {
	a, err := e.newApp()
	if err != nil {
		return fmt.Errorf("open app: %w", err)
	}
	defer a.Close()

	ctx := slogx.WithContext(cmd.Context(), a.Logger().With("command", cmd.CommandPath()))
	cmd.SetContext(ctx)

	a.Start(ctx)
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
