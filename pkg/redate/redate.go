// Package redate rewrites the capture timestamp embedded in image files.
package redate

import (
	"fmt"
	"strings"
)

// Status is the outcome of processing a single file.
type Status string

const (
	StatusUpdated     Status = "updated"
	StatusUnsupported Status = "unsupported"
	StatusNoMetadata  Status = "no_metadata"
	StatusNoTimestamp Status = "no_timestamp"
	StatusFailed      Status = "failed"
)

// Result describes what happened to one file.
type Result struct {
	Path   string
	Status Status

	// Before and After hold the DateTimeOriginal text, when known.
	Before string
	After  string

	DryRun bool
	Err    error
}

func (r Result) String() string {
	switch r.Status {
	case StatusUpdated:
		verb := "updated"
		if r.DryRun {
			verb = "would update"
		}
		return fmt.Sprintf("%s date taken: %s (%s -> %s)", verb, r.Path, r.Before, r.After)
	case StatusUnsupported:
		return fmt.Sprintf("skipping unsupported file: %s", r.Path)
	case StatusNoMetadata:
		return fmt.Sprintf("no EXIF metadata found: %s", r.Path)
	case StatusNoTimestamp:
		return fmt.Sprintf("no date taken found: %s", r.Path)
	case StatusFailed:
		return fmt.Sprintf("failed to update date taken: %s: %v", r.Path, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Path)
}

// Summary counts results by status.
type Summary map[Status]int

func (s Summary) Add(r Result) {
	s[r.Status]++
}

func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Failed is the number of files that could not be processed.
func (s Summary) Failed() int {
	return s[StatusFailed]
}

func (s Summary) String() string {
	parts := []string{fmt.Sprintf("%d files", s.Total())}
	for _, st := range []Status{StatusUpdated, StatusUnsupported, StatusNoMetadata, StatusNoTimestamp, StatusFailed} {
		parts = append(parts, fmt.Sprintf("%d %s", s[st], st))
	}
	return strings.Join(parts, ", ")
}
