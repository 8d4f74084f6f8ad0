package diag

import "fmt"

type (
	// MalformedIR reports a structural inconsistency: one the validator
	// found in a flow graph (a dangling value reference, an
	// arity/arg-count mismatch, a branch targeting a nonexistent block),
	// or one the translator found in its bytecode input (an empty operand
	// stack, disagreeing stack contents entering a block).
	MalformedIR struct {
		Reason string
	}

	// NotSupportedOperation reports a CIL opcode or prototype shape that
	// translate/transform recognizes but does not (yet) implement.
	NotSupportedOperation struct {
		Operation string
	}

	// AnalysisNotRegistered reports a get_result_as query for a result
	// type no with_analysis call ever bound.
	AnalysisNotRegistered struct {
		ResultType string
	}

	// AbortCompilation signals that a Sink's Config (WfatalErrors or
	// FmaxErrors) requires stopping immediately.
	AbortCompilation struct {
		Reason string
	}

	// UnavailableSource reports a SourceRange whose Document can't be
	// loaded to render a diagnostic's source context.
	UnavailableSource struct {
		Document string
	}
)

func (e MalformedIR) Error() string {
	return fmt.Sprintf("malformed IR: %s", e.Reason)
}

func (e NotSupportedOperation) Error() string {
	return fmt.Sprintf("not supported: %s", e.Operation)
}

func (e AnalysisNotRegistered) Error() string {
	return fmt.Sprintf("analysis not registered for result type %s", e.ResultType)
}

func (e AbortCompilation) Error() string {
	return fmt.Sprintf("compilation aborted: %s", e.Reason)
}

func (e UnavailableSource) Error() string {
	return fmt.Sprintf("source unavailable: %s", e.Document)
}
