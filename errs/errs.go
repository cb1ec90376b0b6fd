// Package errs defines the errors returned by ftdcunwind packages.
//
// Low-level codec failures are plain sentinel errors meant to be wrapped with
// fmt.Errorf("...: %w"). Failures that terminate an unwind operation are
// reported as *Error values carrying a stable Code, so callers can tell a bad
// option document from a corrupted chunk or an unreadable file.
package errs

import (
	"errors"
	"fmt"
)

// Codec and storage sentinels.
var (
	ErrInvalidHeaderSize   = errors.New("invalid header size")
	ErrInvalidMagicNumber  = errors.New("invalid magic number")
	ErrUnsupportedVersion  = errors.New("unsupported format version")
	ErrTruncated           = errors.New("truncated data")
	ErrInvalidLength       = errors.New("invalid length")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrUnknownKind         = errors.New("unknown value kind")
	ErrUnsupportedKind     = errors.New("unsupported value kind")
	ErrSchemaMismatch      = errors.New("sample does not match reference schema")
	ErrNoSamples           = errors.New("no samples added")
	ErrSampleCountExceeded = errors.New("sample count exceeded")
	ErrNotChunk            = errors.New("document is not a chunk")
	ErrUnknownChunkType    = errors.New("unknown chunk type")
	ErrInvalidFileName     = errors.New("invalid chunk file name")
	ErrWriterClosed        = errors.New("writer already closed")
	ErrInvalidPath         = errors.New("invalid field path")
)

// Code identifies a class of terminating failure.
type Code int

const (
	CodeBadPathType        Code = 51242 // path option is not a string
	CodeBadExcludeMetadata Code = 51243 // excludeMetadata option is not a bool
	CodeBadExcludeMissing  Code = 51244 // excludeMissing option is not a bool
	CodeUnknownOption      Code = 51245 // unrecognized option name
	CodeBadSpec            Code = 51246 // option specification is not a document
	CodeBadPathPrefix      Code = 51247 // path option lacks the '$' prefix
	CodeBadWindow          Code = 51248 // time window out of bounds
	CodeBadWindowBound     Code = 51249 // start/end missing or not a time
	CodeDecode             Code = 51250 // chunk failed classification or decoding
	CodeMissingTimestamp   Code = 51251 // sample without a usable timestamp
	CodeIO                 Code = 51252 // listing or reading chunk files failed
)

func (c Code) String() string {
	switch c {
	case CodeBadPathType:
		return "BadPathType"
	case CodeBadExcludeMetadata:
		return "BadExcludeMetadata"
	case CodeBadExcludeMissing:
		return "BadExcludeMissing"
	case CodeUnknownOption:
		return "UnknownOption"
	case CodeBadSpec:
		return "BadSpec"
	case CodeBadPathPrefix:
		return "BadPathPrefix"
	case CodeBadWindow:
		return "BadWindow"
	case CodeBadWindowBound:
		return "BadWindowBound"
	case CodeDecode:
		return "Decode"
	case CodeMissingTimestamp:
		return "MissingTimestamp"
	case CodeIO:
		return "IO"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// IsConfig reports whether the code belongs to option validation.
func (c Code) IsConfig() bool {
	return c >= CodeBadPathType && c <= CodeBadWindowBound
}

// Error is a terminating failure with a stable code.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

// Newf creates an *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error around a cause. It returns nil when err is nil.
func Wrap(code Code, err error, msg string) error {
	if err == nil {
		return nil
	}

	return &Error{Code: code, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return fmt.Sprintf("location%d: %s", int(e.Code), e.Code)
	case e.Err == nil:
		return fmt.Sprintf("location%d: %s", int(e.Code), e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("location%d: %v", int(e.Code), e.Err)
	default:
		return fmt.Sprintf("location%d: %s: %v", int(e.Code), e.Msg, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so the exported code sentinels
// work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// Code sentinels for errors.Is.
var (
	ErrBadPathType        = &Error{Code: CodeBadPathType}
	ErrBadExcludeMetadata = &Error{Code: CodeBadExcludeMetadata}
	ErrBadExcludeMissing  = &Error{Code: CodeBadExcludeMissing}
	ErrUnknownOption      = &Error{Code: CodeUnknownOption}
	ErrBadSpec            = &Error{Code: CodeBadSpec}
	ErrBadPathPrefix      = &Error{Code: CodeBadPathPrefix}
	ErrBadWindow          = &Error{Code: CodeBadWindow}
	ErrBadWindowBound     = &Error{Code: CodeBadWindowBound}
	ErrDecode             = &Error{Code: CodeDecode}
	ErrMissingTimestamp   = &Error{Code: CodeMissingTimestamp}
	ErrIO                 = &Error{Code: CodeIO}
)

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}

	return 0, false
}
