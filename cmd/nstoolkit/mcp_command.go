package main

import (
	"github.com/spf13/cobra"

	"nstoolkit/internal/dispatch"
	"nstoolkit/internal/mcpserver"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve describe and extract as MCP tools over stdio",
		Long: "Run nstoolkit as an MCP server speaking the protocol over stdin/stdout.\n" +
			"Logs go to stderr and the log file so stdout stays reserved for the protocol.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *dispatch.Service) error {
				return mcpserver.New(svc, version).Run(cmd.Context())
			})
		},
	}
}
