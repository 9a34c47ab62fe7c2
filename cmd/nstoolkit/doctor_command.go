package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nstoolkit/internal/config"
	"nstoolkit/internal/deps"
	"nstoolkit/internal/history"
	"nstoolkit/internal/request"
)

var errDoctorFailed = errors.New("one or more checks failed")

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the processor binary and writable directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(processorRequirements(cfg))

			r := newReport("Dependencies", colorEnabled(cmd.OutOrStdout()))
			addDependencies(r, statuses)
			r.section("Directories")
			dirFailures := addDirectories(r, cfg, request.SystemAccess{})

			fmt.Fprint(cmd.OutOrStdout(), r.String())
			if deps.MissingRequired(statuses) > 0 || dirFailures > 0 {
				return errDoctorFailed
			}
			return nil
		},
	}
}

func processorRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{{
		Name:        "nstool",
		Command:     cfg.Processor.Binary,
		Description: "Decodes and extracts container files",
	}}
}

func addDependencies(r *report, statuses []deps.Status) {
	for _, s := range statuses {
		if s.Available {
			r.add(s.Name, levelOK, fmt.Sprintf("Ready (%s)", s.Path))
			continue
		}
		detail := strings.TrimSpace(s.Detail)
		if detail == "" {
			detail = "not available"
		}
		lvl := levelError
		if s.Optional {
			lvl = levelWarn
		}
		r.add(s.Name, lvl, detail)
	}
}

// addDirectories checks the writable directories and the history database,
// returning the number of failed checks.
func addDirectories(r *report, cfg *config.Config, access request.Access) int {
	checks := []struct {
		label string
		path  string
	}{
		{"Log directory", cfg.Paths.LogDir},
		{"Lock directory", cfg.Paths.LockDir},
	}

	failures := 0
	for _, c := range checks {
		if err := access.WritableDir(c.path); err != nil {
			r.add(c.label, levelError, err.Error())
			failures++
			continue
		}
		r.add(c.label, levelOK, c.path)
	}

	if !cfg.History.Enabled {
		r.add("History", levelInfo, "disabled")
		return failures
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		r.add("History", levelError, err.Error())
		return failures + 1
	}
	defer store.Close()
	r.add("History", levelOK, store.Path())
	return failures
}
