// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"log/slog"
	"strconv"
)

// Kind is the normalized category of a captured failure.
type Kind int

const (
	KindError Kind = iota
	KindNotice
	KindWarning
	KindFatal
	KindException
)

func (k Kind) String() string {
	switch k {
	case KindNotice:
		return "Notice"
	case KindWarning:
		return "Warning"
	case KindFatal:
		return "Fatal"
	case KindException:
		return "Exception"
	default:
		return "Error"
	}
}

// Report levels.
const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelFatal   = "fatal"
)

// Level returns the report level for the kind. The level follows the
// Kind, not the raw code: CodeError, CodeCoreError, CodeUserError and
// CodeRecoverableError report as fatal, while CodeStrict and the
// deprecation codes classify as KindError and report as error.
func (k Kind) Level() string {
	switch k {
	case KindNotice:
		return LevelInfo
	case KindWarning:
		return LevelWarning
	case KindFatal:
		return LevelFatal
	default:
		return LevelError
	}
}

// Code is a host-runtime severity code. Values are bit flags so a set of
// codes can be expressed as a mask.
type Code int

const (
	CodeError            Code = 1 << 0
	CodeWarning          Code = 1 << 1
	CodeParse            Code = 1 << 2
	CodeNotice           Code = 1 << 3
	CodeCoreError        Code = 1 << 4
	CodeCoreWarning      Code = 1 << 5
	CodeCompileError     Code = 1 << 6
	CodeCompileWarning   Code = 1 << 7
	CodeUserError        Code = 1 << 8
	CodeUserWarning      Code = 1 << 9
	CodeUserNotice       Code = 1 << 10
	CodeStrict           Code = 1 << 11
	CodeRecoverableError Code = 1 << 12
	CodeDeprecated       Code = 1 << 13
	CodeUserDeprecated   Code = 1 << 14
)

// FatalCodes is the set of codes that represent a terminal failure when
// observed at process termination.
const FatalCodes = CodeError | CodeParse | CodeCoreError | CodeCoreWarning |
	CodeCompileError | CodeCompileWarning | CodeStrict

var codeNames = map[Code]string{
	CodeError:            "E_ERROR",
	CodeWarning:          "E_WARNING",
	CodeParse:            "E_PARSE",
	CodeNotice:           "E_NOTICE",
	CodeCoreError:        "E_CORE_ERROR",
	CodeCoreWarning:      "E_CORE_WARNING",
	CodeCompileError:     "E_COMPILE_ERROR",
	CodeCompileWarning:   "E_COMPILE_WARNING",
	CodeUserError:        "E_USER_ERROR",
	CodeUserWarning:      "E_USER_WARNING",
	CodeUserNotice:       "E_USER_NOTICE",
	CodeStrict:           "E_STRICT",
	CodeRecoverableError: "E_RECOVERABLE_ERROR",
	CodeDeprecated:       "E_DEPRECATED",
	CodeUserDeprecated:   "E_USER_DEPRECATED",
}

// String returns the symbolic wire name of the code, or its decimal value
// for unknown codes.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return strconv.Itoa(int(c))
}

// IsFatal reports whether c belongs to FatalCodes.
func (c Code) IsFatal() bool {
	return c != 0 && c&FatalCodes == c
}

// Classify maps a severity code to a Kind.
func Classify(c Code) Kind {
	switch c {
	case CodeNotice, CodeUserNotice:
		return KindNotice
	case CodeWarning, CodeUserWarning:
		return KindWarning
	case CodeError, CodeCoreError, CodeRecoverableError, CodeUserError:
		return KindFatal
	default:
		return KindError
	}
}

// CodeForLevel translates a log level into a severity code.
func CodeForLevel(l slog.Level) Code {
	switch {
	case l >= slog.LevelError:
		return CodeUserError
	case l >= slog.LevelWarn:
		return CodeUserWarning
	default:
		return CodeUserNotice
	}
}
