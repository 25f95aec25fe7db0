package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoQualifyingResult is matched by errors.Is when no selected belief system
// produced a top karma type. Callers should ask for more answers rather than
// fall back to a default type.
var ErrNoQualifyingResult = errors.New("no belief system produced a qualifying karma type")

// ErrorCode classifies analysis failures.
type ErrorCode string

const CodeNoQualifyingResult ErrorCode = "no_qualifying_result"

// AnalysisError is returned by Analyzer.Analyze.
type AnalysisError struct {
	Code     ErrorCode
	Systems  []string
	Warnings []Warning
}

func newNoQualifyingResultError(systems []string, warnings []Warning) *AnalysisError {
	return &AnalysisError{
		Code:     CodeNoQualifyingResult,
		Systems:  append([]string(nil), systems...),
		Warnings: warnings,
	}
}

func (e *AnalysisError) Error() string {
	if len(e.Systems) == 0 {
		return fmt.Sprintf("%s: no belief systems selected", e.Code)
	}
	return fmt.Sprintf("%s: none of [%s] produced a karma type", e.Code, strings.Join(e.Systems, ", "))
}

func (e *AnalysisError) Is(target error) bool {
	return e.Code == CodeNoQualifyingResult && target == ErrNoQualifyingResult
}
