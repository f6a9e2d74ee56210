/*
MIT License

Copyright (c) 2025 Nicolas JUHEL

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

package apxlog

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal structured-logging surface used across the apx
// packages: level-filtered entries with attached fields, safe for
// concurrent use from the worker task and the global routing lock alike.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	SetFields(f Fields)
	GetFields() Fields

	Debug(message string, fields Fields)
	Info(message string, fields Fields)
	Warning(message string, fields Fields)
	Error(message string, fields Fields, err ...error)

	// Clone returns an independent Logger sharing the same sink but with
	// its own level and fields, used to give each connection its own
	// "remote=..." field without mutating the shared server logger.
	Clone() Logger
}

type lgr struct {
	mu  sync.RWMutex
	lvl Level
	fld Fields
	out *logrus.Logger
}

// New returns a Logger writing to w (or os.Stderr-equivalent default when
// w is nil) at InfoLevel.
func New(w io.Writer) Logger {
	l := logrus.New()
	if w != nil {
		l.SetOutput(w)
	}
	return &lgr{lvl: InfoLevel, fld: NewFields(), out: l}
}

func (l *lgr) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lvl = lvl
}

func (l *lgr) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lvl
}

func (l *lgr) SetFields(f Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fld = f
}

func (l *lgr) GetFields() Fields {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fld
}

func (l *lgr) entry(lvl Level, message string, fields Fields, err []error) {
	l.mu.RLock()
	min := l.lvl
	all := l.fld.Merge(fields)
	l.mu.RUnlock()

	if min == NilLevel || lvl > min {
		return
	}

	if len(err) > 0 {
		for i, e := range err {
			if e == nil {
				continue
			}
			all = all.Add(errKey(i), e.Error())
		}
	}

	l.out.WithFields(all.Logrus()).Log(lvl.Logrus(), message)
}

func errKey(i int) string {
	if i == 0 {
		return FieldError
	}
	return FieldError + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := [20]byte{}
	pos := len(digits)
	for i > 0 {
		pos--
		digits[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(digits[pos:])
}

const (
	FieldError = "error"
)

func (l *lgr) Debug(message string, fields Fields) {
	l.entry(DebugLevel, message, fields, nil)
}

func (l *lgr) Info(message string, fields Fields) {
	l.entry(InfoLevel, message, fields, nil)
}

func (l *lgr) Warning(message string, fields Fields) {
	l.entry(WarnLevel, message, fields, nil)
}

func (l *lgr) Error(message string, fields Fields, err ...error) {
	l.entry(ErrorLevel, message, fields, err)
}

func (l *lgr) Clone() Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &lgr{lvl: l.lvl, fld: l.fld.clone(), out: l.out}
}
