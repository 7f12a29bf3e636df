// Package etlerr provides the coded error taxonomy shared by every
// pipeline stage. Errors carry enough context (stage, path, column) to
// diagnose a failed run without re-running with extra logging.
package etlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies the failure class.
type Code string

const (
	CodeSourceNotFound   Code = "SOURCE_NOT_FOUND"
	CodeSchemaMismatch   Code = "SCHEMA_MISMATCH"
	CodeColumnNotFound   Code = "COLUMN_NOT_FOUND"
	CodeJoinKeyType      Code = "JOIN_KEY_TYPE"
	CodeDuplicateJoinKey Code = "DUPLICATE_JOIN_KEY"
	CodeWriteFailed      Code = "WRITE_FAILED"
)

// Error is a structured pipeline error. None of these conditions are
// transient; every one aborts the run.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
	Path    string `json:"path,omitempty"`
	Column  string `json:"column,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Stage != "" {
		fmt.Fprintf(&sb, "[%s] ", e.Stage)
	}
	fmt.Fprintf(&sb, "%s: %s", e.Code, e.Message)
	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "path="+e.Path)
	}
	if e.Column != "" {
		ctx = append(ctx, "column="+e.Column)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(ctx, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two Errors on Code alone, so callers can compare against a
// bare &Error{Code: ...} sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HasCode reports whether err is (or wraps) an Error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// WithStage returns a copy of err annotated with the pipeline stage, if
// err is an Error; otherwise err is returned unchanged.
func WithStage(err error, stage string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Stage != "" {
		return err
	}
	cp := *e
	cp.Stage = stage
	return &cp
}

// NewSourceNotFound reports a missing input directory, file, or an empty
// glob match.
func NewSourceNotFound(path, message string) *Error {
	return &Error{
		Code:    CodeSourceNotFound,
		Message: message,
		Path:    path,
	}
}

// NewSchemaMismatch reports a file whose column set disagrees with the
// first file of a concatenated load.
func NewSchemaMismatch(path, message string) *Error {
	return &Error{
		Code:    CodeSchemaMismatch,
		Message: message,
		Path:    path,
	}
}

// NewColumnNotFound reports an expected column absent at rename, drop, or
// select time. This is a contract violation against the assumed input
// schema, not a recoverable condition.
func NewColumnNotFound(column string) *Error {
	return &Error{
		Code:    CodeColumnNotFound,
		Message: "expected column is absent",
		Column:  column,
	}
}

// NewJoinKeyType reports incompatible join key types between the two
// sides of a join.
func NewJoinKeyType(column, leftKind, rightKind string) *Error {
	return &Error{
		Code:    CodeJoinKeyType,
		Message: fmt.Sprintf("incompatible join key types: left is %s, right is %s", leftKind, rightKind),
		Column:  column,
	}
}

// NewDuplicateJoinKey reports a repeated key on the right side of a left
// join. Fan-out would break the row-count invariant, so duplicate
// reference keys are treated as corrupt input.
func NewDuplicateJoinKey(column, key string) *Error {
	return &Error{
		Code:    CodeDuplicateJoinKey,
		Message: fmt.Sprintf("reference table has duplicate key %q", key),
		Column:  column,
	}
}

// NewWriteFailed reports an output persistence failure.
func NewWriteFailed(path string, err error) *Error {
	return &Error{
		Code:    CodeWriteFailed,
		Message: "failed to persist output artifact",
		Path:    path,
		Err:     err,
	}
}
