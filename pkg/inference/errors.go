package inference

import (
	"errors"
	"fmt"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/bundle"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/dataprep"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/store"
)

// Kind classifies an InferenceError for the caller.
type Kind string

const (
	KindBundleNotFound  Kind = "bundle_not_found"
	KindBundleMismatch  Kind = "bundle_mismatch"
	KindUnknownCategory Kind = "unknown_category"
	KindInvalidInput    Kind = "invalid_input"
	KindInternal        Kind = "internal"
)

// InferenceError is the only error type Predict returns.
type InferenceError struct {
	Kind  Kind
	Field string
	Value string
	Err   error
}

func (e *InferenceError) Error() string {
	switch {
	case e.Field != "" && e.Value != "":
		return fmt.Sprintf("inference %s: %s=%q: %v", e.Kind, e.Field, e.Value, e.Err)
	case e.Field != "":
		return fmt.Sprintf("inference %s: %s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("inference %s: %v", e.Kind, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" when err is not an InferenceError.
func KindOf(err error) Kind {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// classify maps an internal error onto the caller-facing taxonomy.
func classify(err error) *InferenceError {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return ie
	}
	var uc *dataprep.UnknownCategoryError
	switch {
	case errors.As(err, &uc):
		return &InferenceError{Kind: KindUnknownCategory, Field: uc.Column, Value: uc.Value, Err: err}
	case errors.Is(err, store.ErrBundleNotFound):
		return &InferenceError{Kind: KindBundleNotFound, Err: err}
	case errors.Is(err, store.ErrBundleMismatch),
		errors.Is(err, store.ErrArtifactCorrupt),
		errors.Is(err, bundle.ErrInvalid):
		return &InferenceError{Kind: KindBundleMismatch, Err: err}
	}
	return &InferenceError{Kind: KindInternal, Err: err}
}
