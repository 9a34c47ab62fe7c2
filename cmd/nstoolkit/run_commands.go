package main

import (
	"errors"

	"github.com/spf13/cobra"

	"nstoolkit/internal/dispatch"
	"nstoolkit/internal/request"
)

// errRequestFailed signals a non-zero exit after the result was already
// printed.
var errRequestFailed = errors.New("request failed")

type requestFlags struct {
	typeName   string
	showKeys   bool
	showLayout bool
	verbose    bool
	jsonOutput bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.typeName, "type", "t", "", "Container type; omit to detect it (see `nstoolkit types`)")
	cmd.Flags().BoolVar(&f.showKeys, "showkeys", false, "Include key material in the processor output")
	cmd.Flags().BoolVar(&f.showLayout, "showlayout", false, "Include the on-disk layout in the processor output")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Ask the processor for verbose output")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the full result as JSON")
}

func (f *requestFlags) input(cmd *cobra.Command, source string) request.Input {
	in := request.Input{
		Source: request.Some(source),
		Flags: request.Flags{
			ShowKeys:   f.showKeys,
			ShowLayout: f.showLayout,
			Verbose:    f.verbose,
		},
	}
	if cmd.Flags().Changed("type") {
		in.Type = request.Some(f.typeName)
	}
	return in
}

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "describe <source>",
		Short: "Describe the structure of a container file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := flags.input(cmd, args[0])
			return ctx.withService(func(svc *dispatch.Service) error {
				res := svc.Describe(cmd.Context(), in)
				return printResult(cmd, args[0], res, flags.jsonOutput)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags
	var outputDir string
	var fileName string

	cmd := &cobra.Command{
		Use:   "extract <source>",
		Short: "Extract a container file, or one file from it, into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := flags.input(cmd, args[0])
			if cmd.Flags().Changed("output") {
				in.OutputDirectory = request.Some(outputDir)
			}
			if cmd.Flags().Changed("file") {
				in.FileSelector = request.Some(fileName)
			}
			return ctx.withService(func(svc *dispatch.Service) error {
				res := svc.Extract(cmd.Context(), in)
				return printResult(cmd, args[0], res, flags.jsonOutput)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to extract into (must exist and be writable)")
	cmd.Flags().StringVarP(&fileName, "file", "f", "", "Extract only this file from the container")
	return cmd
}

func printResult(cmd *cobra.Command, source string, res dispatch.Result, asJSON bool) error {
	var err error
	if asJSON {
		err = writeJSON(cmd, res)
	} else {
		_, err = cmd.OutOrStdout().Write([]byte(renderResult(source, res, colorEnabled(cmd.OutOrStdout()))))
	}
	if err != nil {
		return err
	}
	if res.Error {
		return errRequestFailed
	}
	return nil
}
