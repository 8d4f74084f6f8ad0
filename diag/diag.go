// Package diag holds the driver-visible configuration, diagnostic sink,
// and named error-kind taxonomy shared by every later compiler stage.
package diag

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}

	return "warning"
}

// SourceRange locates a diagnostic in an input document.
type SourceRange struct {
	Document string
	Start    int
	Length   int
}

// Diagnostic is one reported finding.
type Diagnostic struct {
	Severity Severity
	Title    string
	Message  string
	Range    SourceRange
}

// Config controls how a Sink turns diagnostics into exit behavior.
type Config struct {
	// Werror promotes every Warning to an Error before counting it.
	Werror bool

	// WfatalErrors aborts immediately on the first Error, returning
	// AbortCompilation from Emit.
	WfatalErrors bool

	// FmaxErrors aborts once the error count exceeds it. 0 means
	// unlimited.
	FmaxErrors int
}

// Sink accumulates diagnostics under a Config.
type Sink struct {
	cfg         Config
	diagnostics []Diagnostic
	errorCount  int
}

// NewSink returns an empty sink governed by cfg.
func NewSink(cfg Config) *Sink {
	return &Sink{cfg: cfg}
}

// Emit records d, applying Werror, and returns AbortCompilation if cfg
// says compilation must stop now.
func (s *Sink) Emit(d Diagnostic) error {
	if s.cfg.Werror && d.Severity == Warning {
		d.Severity = Error
	}

	s.diagnostics = append(s.diagnostics, d)

	if d.Severity != Error {
		return nil
	}

	s.errorCount++

	if s.cfg.WfatalErrors {
		return AbortCompilation{Reason: d.Title}
	}

	if s.cfg.FmaxErrors > 0 && s.errorCount > s.cfg.FmaxErrors {
		return AbortCompilation{Reason: fmt.Sprintf("exceeded %d errors", s.cfg.FmaxErrors)}
	}

	return nil
}

// Diagnostics returns every diagnostic recorded so far, in emission
// order.
func (s *Sink) Diagnostics() []Diagnostic {
	return append([]Diagnostic{}, s.diagnostics...)
}

// ErrorCount returns how many diagnostics (after Werror promotion) were
// errors.
func (s *Sink) ErrorCount() int { return s.errorCount }

// ExitCode returns 0 if no errors were recorded, else 1.
func (s *Sink) ExitCode() int {
	if s.errorCount == 0 {
		return 0
	}

	return 1
}
