package scextract

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Scope is the part of a source file that a failure applies to.
type Scope string

const (
	ScopeFile  Scope = "file"
	ScopeChunk Scope = "chunk"
	ScopeShape Scope = "shape"
)

// Failure describes something that could not be extracted.
type Failure struct {
	Path  string
	Scope Scope
	// Item identifies the chunk or shape, it is empty for whole files.
	Item string
	Err  error
}

func (f Failure) Error() string {
	if f.Item == "" {
		return fmt.Sprintf("%s: %v", f.Path, f.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", f.Path, f.Scope, f.Item, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result is the outcome of processing one source file.
type Result struct {
	Path    string
	Kind    Kind
	Outputs []string
	// Failures lists chunks or shapes that were skipped. The rest of the
	// file was still extracted.
	Failures []Failure
	// Skipped is set when the file was left untouched because it was
	// filtered out or already extracted.
	Skipped bool
	Deleted bool
}

// Clean reports whether everything in the file was extracted.
func (r *Result) Clean() bool {
	return len(r.Failures) == 0
}

func (r *Result) fail(scope Scope, item string, err error) {
	r.Failures = append(r.Failures, Failure{
		Path:  r.Path,
		Scope: scope,
		Item:  item,
		Err:   err,
	})
}

// Report summarises a run.
type Report struct {
	mu      sync.Mutex
	Results []*Result
}

func (r *Report) add(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
}

func (r *Report) sort() {
	sort.Slice(r.Results, func(i, j int) bool {
		return r.Results[i].Path < r.Results[j].Path
	})
}

// Processed returns the number of files that were extracted, fully or
// partially.
func (r *Report) Processed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped {
			n++
		}
	}
	return n
}

// Outputs returns every file written.
func (r *Report) Outputs() []string {
	var outputs []string
	for _, res := range r.Results {
		outputs = append(outputs, res.Outputs...)
	}
	return outputs
}

// Failures returns every failure in path order.
func (r *Report) Failures() []Failure {
	var failures []Failure
	for _, res := range r.Results {
		failures = append(failures, res.Failures...)
	}
	return failures
}

// Err returns an error listing every failure, or nil if there were none.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &ReportError{Failures: failures}
}

// ReportError is returned by Report.Err.
type ReportError struct {
	Failures []Failure
}

func (e *ReportError) Error() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "%d failure(s):", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n\t")
		b.WriteString(f.Error())
	}
	return b.String()
}

func (e *ReportError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
