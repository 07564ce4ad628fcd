package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// StageResult records one stage of a run.
type StageResult struct {
	Name        string
	OutputKey   string
	Skipped     bool
	Duration    time.Duration
	OutputBytes int
	Err         string
	// Waiting is set when the stage stopped for copy approval.
	Waiting bool
}

// Artifact is a file found in the output directory after a run.
type Artifact struct {
	Name  string
	Size  int64
	IsDir bool
}

// Report summarises a run.
type Report struct {
	RunID          string
	Mode           string
	ContentExisted bool
	Stages         []StageResult
	Artifacts      []Artifact
	Started        time.Time
	Duration       time.Duration
	// ContentSaved is set when the coordinator wrote the content file
	// because the writer did not.
	ContentSaved bool
	// HTMLExtracted is set when the coordinator saved HTML taken from the
	// designer reply.
	HTMLExtracted bool
	// Resumed is set for a run continued after copy approval.
	Resumed bool
	// Pending is the approval the run is waiting for, if any.
	Pending *ApprovalRequest
}

// ListArtifacts lists the entries of dir sorted by name. A missing
// directory yields no artifacts.
func ListArtifacts(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{Name: e.Name(), Size: info.Size(), IsDir: e.IsDir()})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Name < artifacts[j].Name })
	return artifacts, nil
}

// String renders the report for the terminal.
func (r *Report) String() string {
	var sb strings.Builder
	verb := "finished"
	switch {
	case r.Pending != nil:
		verb = "stopped for approval"
	case r.Resumed:
		verb = "resumed and finished"
	}
	sb.WriteString(fmt.Sprintf("Run %s (%s mode) %s in %s\n", r.RunID, r.Mode, verb, r.Duration.Round(time.Millisecond)))
	if r.ContentExisted {
		sb.WriteString("Content file already existed: research and writing skipped\n")
	}

	sb.WriteString("\nStages:\n")
	for _, s := range r.Stages {
		switch {
		case s.Skipped:
			sb.WriteString(fmt.Sprintf("  - %-22s skipped\n", s.Name))
		case s.Waiting:
			sb.WriteString(fmt.Sprintf("  ? %-22s waiting for approval\n", s.Name))
		case s.Err != "":
			sb.WriteString(fmt.Sprintf("  x %-22s failed after %s: %s\n", s.Name, s.Duration.Round(time.Millisecond), s.Err))
		default:
			sb.WriteString(fmt.Sprintf("  + %-22s %s, %d bytes\n", s.Name, s.Duration.Round(time.Millisecond), s.OutputBytes))
		}
	}
	if r.ContentSaved {
		sb.WriteString("\nThe writer did not save the content file; the coordinator saved it.\n")
	}
	if r.HTMLExtracted {
		sb.WriteString("\nThe designer did not save the HTML file; the coordinator saved it from the reply.\n")
	}
	if r.Pending != nil {
		sb.WriteString(fmt.Sprintf("\nThe draft for %s is waiting for approval. Resume with: run --resume %s\n",
			r.Pending.Path, r.RunID))
	}

	sb.WriteString(fmt.Sprintf("\nFiles in output directory: %d\n", len(r.Artifacts)))
	for _, a := range r.Artifacts {
		if a.IsDir {
			sb.WriteString(fmt.Sprintf("  - %s/\n", a.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("  - %s (%d bytes)\n", a.Name, a.Size))
	}
	return sb.String()
}
