/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package apxerrors carries the error kinds a session can surface to callers
// (spec §7): parse failures, bounds violations, resource exhaustion and
// transport faults, all with an optional parent chain and call-site trace.
package apxerrors

import (
	"strconv"
)

// CodeError is a small numeric classification for an Error, similar in
// spirit to an HTTP status code.
type CodeError uint16

const (
	UnknownError CodeError = iota

	// InvalidArgument: null/missing required input.
	InvalidArgument
	// ParseError: malformed frame, address header or command.
	ParseError
	// ValueLengthError: offset+len exceeds a buffer, or size mismatch on routing.
	ValueLengthError
	// InvalidWrite: write to an offset that is not a port boundary.
	InvalidWrite
	// Memory: allocation failure.
	Memory
	// FileCreate: file auto-assignment failed (region full) or name duplicate.
	FileCreate
	// FileNotOpen: write requested on a file whose remote end has not opened it.
	FileNotOpen
	// InvalidOpenHandler: file opened without an owner notification handler.
	InvalidOpenHandler
	// Unsupported: unknown command type or unsupported feature.
	Unsupported
	// NotImplemented: feature not yet implemented.
	NotImplemented
	// TransmitHandlerOverflow: transport reported buffer overflow.
	TransmitHandlerOverflow
	// TransmitHandlerInvalidArg: transport reported an invalid argument.
	TransmitHandlerInvalidArg
	// Internal: unreachable invariant violation.
	Internal
)

var codeMessage = map[CodeError]string{
	UnknownError:              "unknown error",
	InvalidArgument:           "invalid argument",
	ParseError:                "parse error",
	ValueLengthError:          "value length error",
	InvalidWrite:               "invalid write offset",
	Memory:                    "memory allocation failure",
	FileCreate:                "file create failure",
	FileNotOpen:               "file not open",
	InvalidOpenHandler:        "invalid open handler",
	Unsupported:               "unsupported",
	NotImplemented:            "not implemented",
	TransmitHandlerOverflow:   "transmit handler buffer overflow",
	TransmitHandlerInvalidArg: "transmit handler invalid argument",
	Internal:                  "internal error",
}

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) Int() int {
	return int(c)
}

func (c CodeError) String() string {
	return strconv.Itoa(c.Int())
}

// Message returns the human-readable text registered for this code, or the
// fallback "unknown error" message when the code is not registered.
func (c CodeError) Message() string {
	if m, ok := codeMessage[c]; ok {
		return m
	}
	return codeMessage[UnknownError]
}

// Error builds a new Error carrying this code, the registered message, and
// the given parent errors.
func (c CodeError) Error(parent ...error) Error {
	return New(c, c.Message(), parent...)
}

// Errorf builds a new Error carrying this code and a formatted message.
func (c CodeError) Errorf(pattern string, args ...interface{}) Error {
	return Newf(c, pattern, args...)
}
