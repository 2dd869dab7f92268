// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import (
	"errors"
	"fmt"
)

// Kind classifies extraction failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNoVideoTrack
	KindSourceUnreadable
	KindMalformedDescriptor
	KindUnsupportedOperation
	KindTimeout
)

var kindNames = map[Kind]string{
	KindUnknown:              "Unknown",
	KindInvalidArgument:      "InvalidArgument",
	KindNoVideoTrack:         "NoVideoTrack",
	KindSourceUnreadable:     "SourceUnreadable",
	KindMalformedDescriptor:  "MalformedDescriptor",
	KindUnsupportedOperation: "UnsupportedOperation",
	KindTimeout:              "Timeout",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels to be used with errors.Is(), comparison is done by Kind only.
var (
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrNoVideoTrack         = &Error{Kind: KindNoVideoTrack}
	ErrSourceUnreadable     = &Error{Kind: KindSourceUnreadable}
	ErrMalformedDescriptor  = &Error{Kind: KindMalformedDescriptor}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation}
	ErrTimeout              = &Error{Kind: KindTimeout}
)

// Error is an extraction error of a certain Kind.
type Error struct {
	Kind   Kind
	Source string
	Msg    string
	Err    error
}

// NewError creates Error of given kind with formatted message.
func NewError(kind Kind, source, format string, a ...any) *Error {
	return &Error{Kind: kind, Source: source, Msg: fmt.Sprintf(format, a...)}
}

// WrapError creates Error of given kind wrapping err.
func WrapError(kind Kind, source string, err error) *Error {
	return &Error{Kind: kind, Source: source, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case msg != "" && e.Err != nil:
		msg = msg + ": " + e.Err.Error()
	case msg == "":
		msg = e.Kind.String()
	}
	if e.Source != "" {
		return fmt.Sprintf("%s: %s", e.Source, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns Kind of the first *Error in err's chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
