package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/localrivet/callflow/protocol"
	"github.com/spf13/cobra"
)

func newCallCmd(flags *globalFlags) *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool and print its response",
		Long: `Invoke a tool and print the response with its metadata.

Examples:
  callflow call file_read --args '{"path": "/etc/hosts"}'
  callflow --url http://localhost:8080/rpc call search --args '{"query": "TODO"}'

The command exits non-zero when the call fails or the endpoint returns an
error payload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var toolArgs map[string]interface{}
			if rawArgs != "" {
				if err := protocol.Unmarshal([]byte(rawArgs), &toolArgs); err != nil {
					return fmt.Errorf("--args must be a JSON object: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := flags.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Disconnect()

			resp, err := c.Call(ctx, args[0], toolArgs)
			if err != nil {
				return err
			}
			data, err := protocol.MarshalIndent(resp)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
				return err
			}
			return resp.Err()
		},
	}
	cmd.Flags().StringVarP(&rawArgs, "args", "a", "", "Tool arguments as a JSON object")
	return cmd
}
