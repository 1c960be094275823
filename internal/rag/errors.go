package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned for a blank question.
	ErrEmptyQuery = errors.New("empty query")
	// ErrClassification matches every *ClassificationError.
	ErrClassification = errors.New("classification failed")
	// ErrExpansion matches every *ExpansionError.
	ErrExpansion = errors.New("query expansion failed")
	// ErrSynthesis matches every *SynthesisError.
	ErrSynthesis = errors.New("synthesis failed")
)

// ClassificationError wraps a failed classification call. The question is
// then treated as matching no subject.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifying question: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error        { return e.Err }
func (e *ClassificationError) Is(target error) bool { return target == ErrClassification }

// ExpansionError wraps a failed expansion call. Retrieval then proceeds
// with the original query alone.
type ExpansionError struct {
	Err error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("expanding query: %v", e.Err)
}

func (e *ExpansionError) Unwrap() error        { return e.Err }
func (e *ExpansionError) Is(target error) bool { return target == ErrExpansion }

// SynthesisError wraps a failed answer for one subject.
type SynthesisError struct {
	Subject string
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("answering from %s: %v", e.Subject, e.Err)
}

func (e *SynthesisError) Unwrap() error        { return e.Err }
func (e *SynthesisError) Is(target error) bool { return target == ErrSynthesis }

// SubjectError attributes a retrieval failure to one subject.
type SubjectError struct {
	Subject string
	Err     error
}

func (e *SubjectError) Error() string {
	return fmt.Sprintf("retrieving from %s: %v", e.Subject, e.Err)
}

func (e *SubjectError) Unwrap() error { return e.Err }

// subjectErrors flattens a joined error into its per-subject parts.
func subjectErrors(err error) map[string]error {
	out := make(map[string]error)
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		var se *SubjectError
		if errors.As(err, &se) && se == err {
			out[se.Subject] = se.Err
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
		}
	}
	walk(err)
	return out
}
