package diag

import (
	"errors"
	"testing"
)

func TestWerrorPromotesWarnings(t *testing.T) {
	s := NewSink(Config{Werror: true})

	if err := s.Emit(Diagnostic{Severity: Warning, Title: "unused"}); err != nil {
		t.Fatalf("unexpected abort: %v", err)
	}

	if s.ErrorCount() != 1 {
		t.Fatalf("expected promoted warning to count as an error, got %d", s.ErrorCount())
	}

	if s.ExitCode() != 1 {
		t.Fatalf("expected nonzero exit code")
	}
}

func TestWfatalErrorsAbortsImmediately(t *testing.T) {
	s := NewSink(Config{WfatalErrors: true})

	err := s.Emit(Diagnostic{Severity: Error, Title: "boom"})

	var abort AbortCompilation
	if !errors.As(err, &abort) {
		t.Fatalf("expected AbortCompilation, got %v", err)
	}
}

func TestFmaxErrorsAbortsOnceExceeded(t *testing.T) {
	s := NewSink(Config{FmaxErrors: 2})

	for i := 0; i < 2; i++ {
		if err := s.Emit(Diagnostic{Severity: Error, Title: "e"}); err != nil {
			t.Fatalf("unexpected abort at error %d: %v", i, err)
		}
	}

	err := s.Emit(Diagnostic{Severity: Error, Title: "e"})
	if err == nil {
		t.Fatalf("expected abort once FmaxErrors is exceeded")
	}
}

func TestExitCodeCleanWithNoErrors(t *testing.T) {
	s := NewSink(Config{})
	s.Emit(Diagnostic{Severity: Warning, Title: "fyi"})

	if s.ExitCode() != 0 {
		t.Fatalf("expected clean exit code with only warnings")
	}
}
