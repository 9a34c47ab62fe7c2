// Package mcpserver exposes describe and extract as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nstoolkit/internal/dispatch"
	"nstoolkit/internal/formats"
	"nstoolkit/internal/request"
)

// Operations is the subset of dispatch.Service the tools call.
type Operations interface {
	Describe(ctx context.Context, in request.Input) dispatch.Result
	Extract(ctx context.Context, in request.Input) dispatch.Result
	Candidates(source string) ([]formats.Tag, error)
}

// describeInput is the input for the describe tool.
type describeInput struct {
	Source     *string `json:"source,omitempty"     jsonschema:"Absolute path of the file to inspect."`
	Type       *string `json:"type,omitempty"       jsonschema:"Container type. Omit to detect it from the file."`
	ShowKeys   bool    `json:"showKeys,omitempty"   jsonschema:"Include key material in the output."`
	ShowLayout bool    `json:"showLayout,omitempty" jsonschema:"Include the on-disk layout in the output."`
	Verbose    bool    `json:"verbose,omitempty"    jsonschema:"Ask the processor for verbose output."`
}

// extractInput is the input for the extract tool.
type extractInput struct {
	Source          *string `json:"source,omitempty"          jsonschema:"Absolute path of the file to extract."`
	Type            *string `json:"type,omitempty"            jsonschema:"Container type. Omit to detect it from the file."`
	OutputDirectory *string `json:"outputDirectory,omitempty" jsonschema:"Directory the contents are written to. Must exist and be writable."`
	FileName        *string `json:"fileName,omitempty"        jsonschema:"Extract only this file from the container."`
	ShowKeys        bool    `json:"showKeys,omitempty"        jsonschema:"Include key material in the output."`
	ShowLayout      bool    `json:"showLayout,omitempty"      jsonschema:"Include the on-disk layout in the output."`
	Verbose         bool    `json:"verbose,omitempty"         jsonschema:"Ask the processor for verbose output."`
}

// candidatesInput is the input for the candidates tool.
type candidatesInput struct {
	Source string `json:"source" jsonschema:"File name or path whose extension drives the ordering."`
}

// Server wraps an mcp.Server bound to Operations.
type Server struct {
	ops    Operations
	server *mcp.Server
}

// New builds the MCP server and registers the tools.
func New(ops Operations, version string) *Server {
	s := &Server{
		ops: ops,
		server: mcp.NewServer(&mcp.Implementation{
			Name: "nstoolkit", Version: version,
		}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "describe",
		Description: "Describes a Nintendo Switch container file (NSP, XCI, NCA, RomFS and others)." +
			" When no type is given the type is detected by trying candidates in order." +
			" Returns the processor JSON plus error, warnings and detectedType.",
	}, s.handleDescribe)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract",
		Description: "Extracts a container file, or one file from it, into an output directory.",
	}, s.handleExtract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "candidates",
		Description: "Lists the container types that would be tried, in order, for a file name.",
	}, s.handleCandidates)

	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleDescribe(ctx context.Context, _ *mcp.CallToolRequest, input *describeInput) (*mcp.CallToolResult, any, error) {
	if input == nil {
		input = &describeInput{}
	}
	return resultContent(s.ops.Describe(ctx, request.Input{
		Source: request.FromPtr(input.Source),
		Type:   request.FromPtr(input.Type),
		Flags: request.Flags{
			ShowKeys:   input.ShowKeys,
			ShowLayout: input.ShowLayout,
			Verbose:    input.Verbose,
		},
	}))
}

func (s *Server) handleExtract(ctx context.Context, _ *mcp.CallToolRequest, input *extractInput) (*mcp.CallToolResult, any, error) {
	if input == nil {
		input = &extractInput{}
	}
	return resultContent(s.ops.Extract(ctx, request.Input{
		Source:          request.FromPtr(input.Source),
		Type:            request.FromPtr(input.Type),
		OutputDirectory: request.FromPtr(input.OutputDirectory),
		FileSelector:    request.FromPtr(input.FileName),
		Flags: request.Flags{
			ShowKeys:   input.ShowKeys,
			ShowLayout: input.ShowLayout,
			Verbose:    input.Verbose,
		},
	}))
}

func (s *Server) handleCandidates(_ context.Context, _ *mcp.CallToolRequest, input *candidatesInput) (*mcp.CallToolResult, any, error) {
	tags, err := s.ops.Candidates(input.Source)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil, nil
	}
	data, err := json.Marshal(map[string][]string{"candidates": formats.TagNames(tags)})
	if err != nil {
		return nil, nil, fmt.Errorf("encode candidates: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// resultContent encodes res as the text content. A failed request is still a
// well-formed tool result with IsError set, so the caller sees the message.
func resultContent(res dispatch.Result) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		IsError: res.Error,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
