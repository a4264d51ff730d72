package snapshot

import (
	"fmt"
	"strings"
)

// Status is the ternary outcome of an import/restore/copy operation.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusFailed              Status = "failed"
)

// Diagnostics accumulates non-fatal, row- and table-level problems during
// an operation. It is append-only; the final report joins all entries.
type Diagnostics struct {
	entries []string
}

func (d *Diagnostics) Addf(format string, args ...any) {
	d.entries = append(d.entries, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) Entries() []string {
	return d.entries
}

func (d *Diagnostics) Empty() bool {
	return len(d.entries) == 0
}

// Report joins all diagnostics into one multi-line string for the caller
// to render (or copy to clipboard).
func (d *Diagnostics) Report() string {
	return strings.Join(d.entries, "\n")
}

// Result is what an operation hands back to its caller.
type Result struct {
	Status      Status   `json:"status"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	Report      string   `json:"report,omitempty"`
}

func resultFrom(diags *Diagnostics) *Result {
	status := StatusSuccess
	if !diags.Empty() {
		status = StatusCompletedWithErrors
	}
	return &Result{
		Status:      status,
		Diagnostics: diags.Entries(),
		Report:      diags.Report(),
	}
}
