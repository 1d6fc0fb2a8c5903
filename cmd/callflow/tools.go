package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/localrivet/callflow/protocol"
	"github.com/spf13/cobra"
)

func newToolsCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered by the endpoint",
		Long: `List the tools offered by the endpoint.

When discovery fails the built-in catalog is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := flags.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Disconnect()

			tools := c.ListTools(ctx)
			out := cmd.OutOrStdout()
			if asJSON {
				data, err := protocol.MarshalIndent(protocol.ListToolsResult{Tools: tools})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, t := range tools {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}
