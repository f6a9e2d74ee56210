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
	"fmt"
	"runtime"
)

type ers struct {
	c       CodeError
	msg     string
	trc     runtime.Frame
	parents []Error
}

func frame() runtime.Frame {
	var pc [1]uintptr
	// skip: Callers, frame, New/Newf/Make; record the frame that called them
	if runtime.Callers(3, pc[:]) == 0 {
		return runtime.Frame{}
	}
	f, _ := runtime.CallersFrames(pc[:]).Next()
	return f
}

func (e *ers) Error() string {
	if e.c == UnknownError {
		return e.msg
	}
	return fmt.Sprintf("[%d] %s", e.c.Uint16(), e.msg)
}

func (e *ers) IsCode(code CodeError) bool {
	return e.c == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}
	for _, p := range e.parents {
		if p.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) Code() CodeError {
	return e.c
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p == nil {
			continue
		}
		e.parents = append(e.parents, Make(p))
	}
}

func (e *ers) Parents() []error {
	res := make([]error, 0, len(e.parents))
	for _, p := range e.parents {
		res = append(res, p)
	}
	return res
}

func (e *ers) Trace() string {
	if e.trc.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", e.trc.File, e.trc.Line)
}

// Unwrap exposes the parent chain to the standard errors.Is/errors.As walk.
func (e *ers) Unwrap() []error {
	return e.Parents()
}
