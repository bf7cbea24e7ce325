package cli

import (
	"github.com/aussiebroadwan/shoppinghelp/pkg/shref"
	"github.com/spf13/cobra"
)

type refView struct {
	Ref      string  `json:"ref"`
	Hostname string  `json:"hostname"`
	Type     string  `json:"type"`
	Known    bool    `json:"known"`
	ID       string  `json:"id"`
	Suffix   *string `json:"suffix,omitempty"`
}

func newRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref",
		Short: "Work with nrn:msh resource references",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "parse REF",
		Short: "Split a reference into its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := shref.Parse(args[0])
			if err != nil {
				return err
			}

			v := refView{
				Ref:      ref.String(),
				Hostname: ref.Hostname(),
				Type:     ref.Type().String(),
				Known:    ref.Type().Known(),
				ID:       ref.ID(),
			}
			if suffix, ok := ref.Suffix(); ok {
				v.Suffix = &suffix
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	})

	newCmd := &cobra.Command{
		Use:   "new HOSTNAME TYPE [ID]",
		Short: "Build a reference; the id defaults to \"default\"",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 3 {
				id = args[2]
			}
			ref := shref.New(args[0], shref.Type(args[1]), id)
			if cmd.Flags().Changed("suffix") {
				suffix, _ := cmd.Flags().GetString("suffix")
				ref = ref.WithSuffix(suffix)
			}
			_, err := cmd.OutOrStdout().Write([]byte(ref.String() + "\n"))
			return err
		},
	}
	newCmd.Flags().String("suffix", "", "Optional trailing segment")
	cmd.AddCommand(newCmd)

	return cmd
}
