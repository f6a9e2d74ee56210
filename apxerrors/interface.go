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

package apxerrors

import (
	"errors"
	"fmt"
)

// Error extends the standard error with a code, an optional parent chain
// and the call-site trace captured at construction.
type Error interface {
	error

	IsCode(code CodeError) bool
	HasCode(code CodeError) bool
	Code() CodeError

	Add(parent ...error)
	Parents() []error

	Trace() string
	Unwrap() []error
}

// Is reports whether e is (or wraps) an Error.
func Is(e error) bool {
	var err Error
	return errors.As(e, &err)
}

// Get returns e as an Error if it is one (directly or via Unwrap), else nil.
func Get(e error) Error {
	var err Error
	if errors.As(e, &err) {
		return err
	}
	return nil
}

// HasCode reports whether e or one of its parents carries the given code.
func HasCode(e error, code CodeError) bool {
	if err := Get(e); err != nil {
		return err.HasCode(code)
	}
	return false
}

// Make wraps a plain error into an Error with code UnknownError, or returns
// it unchanged if it already is one.
func Make(e error) Error {
	if e == nil {
		return nil
	}
	if err := Get(e); err != nil {
		return err
	}
	return &ers{c: UnknownError, msg: e.Error(), trc: frame()}
}

// New creates a new Error with the given code, message and parents.
func New(code CodeError, message string, parent ...error) Error {
	return &ers{c: code, msg: message, trc: frame(), parents: wrapAll(parent)}
}

// Newf creates a new Error with a formatted message.
func Newf(code CodeError, pattern string, args ...interface{}) Error {
	return &ers{c: code, msg: fmt.Sprintf(pattern, args...), trc: frame()}
}

func wrapAll(errs []error) []Error {
	if len(errs) == 0 {
		return nil
	}
	res := make([]Error, 0, len(errs))
	for _, e := range errs {
		if e == nil {
			continue
		}
		res = append(res, Make(e))
	}
	return res
}
