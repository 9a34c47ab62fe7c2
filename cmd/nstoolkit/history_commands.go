package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nstoolkit/internal/history"
)

type historyView struct {
	RunID        string   `json:"runId"`
	Operation    string   `json:"operation"`
	Source       string   `json:"source"`
	DeclaredType string   `json:"declaredType,omitempty"`
	DetectedType string   `json:"detectedType,omitempty"`
	Candidates   []string `json:"candidates,omitempty"`
	Attempts     int      `json:"attempts"`
	Error        bool     `json:"error"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	Warnings     int      `json:"warnings"`
	StartedAt    string   `json:"startedAt"`
	DurationMS   int64    `json:"durationMs"`
}

func newHistoryView(e history.Entry) historyView {
	return historyView{
		RunID:        e.RunID,
		Operation:    e.Operation,
		Source:       e.Source,
		DeclaredType: e.DeclaredType,
		DetectedType: e.DetectedType,
		Candidates:   e.Candidates,
		Attempts:     e.Attempts,
		Error:        e.Error,
		ErrorMessage: e.ErrorMessage,
		Warnings:     e.Warnings,
		StartedAt:    e.StartedAt.Local().Format(time.RFC3339),
		DurationMS:   e.Duration().Milliseconds(),
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded describe and extract runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			views := make([]historyView, 0, len(entries))
			for _, e := range entries {
				views = append(views, newHistoryView(e))
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				result := v.DetectedType
				if v.Error {
					result = "error"
				} else if result == "" {
					result = v.DeclaredType
				}
				rows = append(rows, []string{
					v.RunID, v.StartedAt, v.Operation, v.Source, result,
					strconv.Itoa(v.Attempts), strconv.Itoa(v.Warnings),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Operation", "Source", "Result", "Attempts", "Warnings"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if errors.Is(err, history.ErrNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return err
			}
			view := newHistoryView(entry)
			if jsonOutput {
				return writeJSON(cmd, view)
			}

			r := newReport("Run "+view.RunID, colorEnabled(cmd.OutOrStdout()))
			r.add("Operation", levelInfo, view.Operation)
			r.add("Source", levelInfo, view.Source)
			r.add("Started", levelInfo, view.StartedAt)
			r.add("Duration", levelInfo, entry.Duration().Round(time.Millisecond).String())
			if view.DeclaredType != "" {
				r.add("Declared type", levelInfo, view.DeclaredType)
			}
			if len(view.Candidates) > 0 {
				r.add("Candidates", levelInfo, strings.Join(view.Candidates, ", "))
			}
			r.add("Attempts", levelInfo, strconv.Itoa(view.Attempts))
			if view.Warnings > 0 {
				r.add("Warnings", levelWarn, strconv.Itoa(view.Warnings))
			}
			if view.Error {
				r.add("Result", levelError, view.ErrorMessage)
			} else {
				r.add("Result", levelOK, view.DetectedType)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), r.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", formatCount(int(removed), "run", "runs"))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of runs to delete")
	return cmd
}
