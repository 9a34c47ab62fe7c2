package main

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nstoolkit/internal/formats"
)

type typeEntry struct {
	Position   int      `json:"position"`
	Tag        string   `json:"tag"`
	Kind       string   `json:"kind"`
	Extensions []string `json:"extensions"`
	Default    bool     `json:"default"`
}

func newTypesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List supported container types and extension hints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries := typeEntries(cfg.FormatTable())
			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			title := cases.Title(language.English)
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				tag := e.Tag
				if e.Default {
					tag += " (default)"
				}
				rows = append(rows, []string{
					strconv.Itoa(e.Position),
					tag,
					title.String(e.Kind),
					strings.Join(e.Extensions, ", "),
				})
			}
			out := cmd.OutOrStdout()
			_, err = out.Write([]byte(renderTable(
				[]string{"#", "Type", "Kind", "Extensions"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			) + "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the table as JSON")
	return cmd
}

func typeEntries(table *formats.Table) []typeEntry {
	byTag := make(map[formats.Tag][]string)
	for ext, tag := range table.Hints() {
		byTag[tag] = append(byTag[tag], "."+ext)
	}

	list := table.Formats()
	entries := make([]typeEntry, 0, len(list))
	for i, f := range list {
		exts := byTag[f.Tag]
		sort.Strings(exts)
		if exts == nil {
			exts = []string{}
		}
		entries = append(entries, typeEntry{
			Position:   i,
			Tag:        string(f.Tag),
			Kind:       string(f.Kind),
			Extensions: exts,
			Default:    i == 0,
		})
	}
	return entries
}
