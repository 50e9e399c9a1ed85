// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package log is a small leveled, structured logger in the style of
// log15/erigon's log/v3: every call takes a message plus an even-length list
// of key/value pairs, never a format string.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type Lvl int

const (
	LvlError Lvl = iota
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlError:
		return "EROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DBUG"
	case LvlTrace:
		return "TRCE"
	default:
		return "????"
	}
}

// Logger is the interface every long-lived stage in the pipeline depends on.
// It is deliberately narrow so fakes in tests are a one-liner.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

type logger struct {
	ctx []interface{}
	h   *writer
}

type writer struct {
	mu    sync.Mutex
	out   io.Writer
	level atomic.Int32
	color bool
}

var root = &logger{h: &writer{out: colorableStderr()}}

func init() {
	root.h.level.Store(int32(LvlInfo))
}

func colorableStderr() io.Writer {
	if f, ok := interface{}(os.Stderr).(interface{ Fd() uintptr }); ok && isatty.IsTerminal(f.Fd()) {
		return colorable.NewColorableStderr()
	}
	return os.Stderr
}

// Root returns the default, package-level logger used by leaf helpers that
// were not constructed with an injected Logger.
func Root() Logger { return root }

// SetLevel adjusts the minimum level the root logger emits, and with it that
// of every logger derived from the root via its New method, since they share
// the root writer. Loggers built by the package-level New have their own
// writer and level and are not affected.
func SetLevel(l Lvl) { root.h.level.Store(int32(l)) }

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{ctx: append(append([]interface{}{}, l.ctx...), ctx...), h: l.h}
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	if Lvl(l.h.level.Load()) < lvl {
		return
	}
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	var sb strings.Builder
	sb.WriteString(time.Now().UTC().Format("01-02|15:04:05.000"))
	sb.WriteByte(' ')
	sb.WriteString(lvl.String())
	sb.WriteByte(' ')
	sb.WriteString(msg)
	all := append(append([]interface{}{}, l.ctx...), ctx...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", all[i], all[i+1])
	}
	sb.WriteByte('\n')
	_, _ = io.WriteString(l.h.out, sb.String())
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }

// New creates a standalone logger writing to stderr at LvlInfo, independent
// of the package root (used by cmd/classsync to build the top-level logger
// the rest of the pipeline is threaded with).
func New() Logger {
	l := &logger{h: &writer{out: colorableStderr()}}
	l.h.level.Store(int32(LvlInfo))
	return l
}

// Caller returns a short "file:line" suitable for one-off debug annotations.
func Caller(skip int) string {
	c := stack.Caller(skip + 1)
	return fmt.Sprintf("%+v", c)
}
