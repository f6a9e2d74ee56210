/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package apxlog is the structured logger used by the file manager, the
// node instance and the server routing table to report parse errors,
// connection state changes and routing decisions (spec §7 policy: parse
// errors are recovered locally and logged, not propagated as panics).
package apxlog

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus' severity scale plus a NilLevel used to silence a
// logger entirely.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	NilLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	case PanicLevel:
		return "panic"
	case NilLevel:
		return ""
	}
	return "unknown"
}

// ParseLevel returns the Level matching s (case-insensitive substring match,
// in the teacher's idiom), defaulting to InfoLevel.
func ParseLevel(s string) Level {
	s = strings.ToLower(s)
	switch {
	case strings.Contains("debug", s) && s != "":
		return DebugLevel
	case strings.Contains("warning", s) && s != "":
		return WarnLevel
	case strings.Contains("error", s) && s != "":
		return ErrorLevel
	case strings.Contains("fatal", s) && s != "":
		return FatalLevel
	case strings.Contains("panic", s) && s != "":
		return PanicLevel
	}
	return InfoLevel
}

// Logrus converts l to the equivalent logrus.Level.
func (l Level) Logrus() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	case PanicLevel:
		return logrus.PanicLevel
	default:
		// NilLevel: never emitted, logrus has no matching level.
		return logrus.PanicLevel + 100
	}
}
