package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason = "reason"
	MetaStage  = "stage"
	MetaField  = "field"
	MetaKey    = "key"
	MetaPath   = "path"
	MetaTaskID = "task_id"
	MetaServer = "server"
	MetaURL    = "url"

	StageRegistry   = "registry"
	StageRule       = "rule"
	StageSession    = "session"
	StageBrowser    = "browser"
	StageToolClient = "tool_client"
	StageConfig     = "config"
	StageServer     = "server"

	CodeInternal        = "internal"
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeDuplicateKey    = "duplicate_key"
	CodeParseFailed     = "parse_failed"
	CodeTaskRunning     = "task_running"
	CodeSessionAbsent   = "session_absent"
	CodeUnavailable     = "unavailable"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

func DuplicateKeyError(op, key string, err error) error {
	return Wrap(op, CodeDuplicateKey, err, map[string]any{
		MetaKey:    key,
		MetaReason: "duplicate_key",
	})
}

// CodeOf returns the code of the outermost *Error in the chain, or CodeInternal
// when err carries none. A nil error has no code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return CodeInternal
}

// MetaOf returns the metadata value stored under key on the outermost *Error.
func MetaOf(err error, key string) (any, bool) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return nil, false
	}

	v, ok := appErr.Metadata[key]

	return v, ok
}
