// Package report publishes the outcome of a shortcut run so CI systems can
// track which projects each change rebuilt. Reports are write-only: the
// pipeline never reads them back.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildshortcut/shortcut/pkg/failure"
	"github.com/buildshortcut/shortcut/pkg/scope"
)

// Report is the published record of one run.
type Report struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	CheckoutRoot     string    `json:"checkout_root"`
	ChangedProjects  []string  `json:"changed_projects"`
	Scenarios        []string  `json:"scenarios"`
	AffectedProjects []string  `json:"affected_projects"`
	ProjectPaths     []string  `json:"project_paths"`
	BuildOptions     []string  `json:"build_options"`
	ExitCode         int       `json:"exit_code"`
	NothingToBuild   bool      `json:"nothing_to_build"`
	DryRun           bool      `json:"dry_run"`
	DurationMS       int64     `json:"duration_ms"`
	ErrorKind        string    `json:"error_kind,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// FromResult builds a report for a finished run. runErr is the pipeline
// error, if any.
func FromResult(res *scope.Result, runErr error) *Report {
	r := &Report{
		ID:               uuid.NewString(),
		CreatedAt:        res.Started.UTC(),
		CheckoutRoot:     res.CheckoutRoot,
		ChangedProjects:  orEmpty(res.ChangedProjects),
		Scenarios:        orEmpty(res.Scenarios),
		AffectedProjects: orEmpty(res.AffectedProjects),
		ProjectPaths:     orEmpty(res.ProjectPaths),
		BuildOptions:     orEmpty(res.BuildOptions),
		ExitCode:         res.ExitCode,
		NothingToBuild:   res.NothingToBuild,
		DryRun:           res.DryRun,
		DurationMS:       res.Duration.Milliseconds(),
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if runErr != nil {
		r.ErrorKind = string(failure.KindOf(runErr))
		r.ErrorMessage = runErr.Error()
	}
	return r
}

// Marshal encodes the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report %s: %w", r.ID, err)
	}
	return data, nil
}

// Sink stores reports.
type Sink interface {
	Publish(ctx context.Context, r *Report) error
	Close() error
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
