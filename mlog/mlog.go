/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2017 Markus Stenberg
 *
 * Created:       Sat Dec 30 13:41:33 2017 mstenber
 * Last modified: Tue Feb 12 15:02:44 2019 mstenber
 * Edit time:     118 min
 *
 */

// mlog is maybe-log, or Markus' log. It is a small wrapper of
// standard 'log' that only implements Printf, with two twists:
//
// - output is chosen with a regular expression matched against the
// file tag (MLOG environment variable or -mlog flag); when nothing
// matches, calls cost next to nothing (by default, everything is off)
//
// - call stack depth is used to indent the output, which makes
// tracing of protocol exchanges readable
package mlog

import (
	"flag"
	"log"
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fingon/go-jbod/util/gid"
)

const (
	stateUninitialized int32 = iota
	stateDisabled
	stateEnabled
)

const maxDepth = 100

var (
	// status is accessed atomically; everything below it only with
	// mutex held
	status int32

	mutex       sync.Mutex
	logger      = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
	flagPattern *string
	pattern     string
	re          *regexp.Regexp
	fileMatches map[string]bool
	minDepth    int
	callers     []uintptr

	// DumpGids prefixes every line with the goroutine id
	DumpGids = true
)

func init() {
	flagPattern = flag.String("mlog", "", "Enable logging based on the given file regular expression")
	Reset()
}

// Reset returns the module to its initial state; the next log call
// re-reads the pattern from flag/environment.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	atomic.StoreInt32(&status, stateUninitialized)
	minDepth = maxDepth
	callers = make([]uintptr, maxDepth)
}

// IsEnabled can be used to check if mlog is in use at all before
// doing something expensive.
func IsEnabled() bool {
	return atomic.LoadInt32(&status) != stateDisabled
}

// SetLogger overrides the output logger. The returned function
// restores the previous one.
func SetLogger(l *log.Logger) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	old := logger
	logger = l
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = old
	}
}

// SetPattern overrides the pattern from flag/environment. The
// returned function restores the previous one.
func SetPattern(p string) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	old := pattern
	usePattern(p)
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		usePattern(old)
	}
}

func usePattern(p string) {
	pattern = p
	if p == "" {
		atomic.StoreInt32(&status, stateDisabled)
		return
	}
	re = regexp.MustCompile(p)
	fileMatches = make(map[string]bool)
	atomic.StoreInt32(&status, stateEnabled)
}

func initFromEnvironment() {
	p := os.Getenv("MLOG")
	if flagPattern != nil && *flagPattern != "" {
		p = *flagPattern
	}
	usePattern(p)
}

// Printf is drop-in replacement of log.Printf. It uses the caller's
// file name as the tag, which costs a runtime.Caller when enabled.
func Printf(format string, args ...interface{}) {
	if atomic.LoadInt32(&status) == stateDisabled {
		return
	}
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	Printf2(file, format, args...)
}

// Printf2 is the preferred variant; the caller supplies the tag
// (typically package/file) so no stack inspection is needed unless
// the tag matches.
func Printf2(file string, format string, args ...interface{}) {
	if atomic.LoadInt32(&status) == stateDisabled {
		return
	}
	mutex.Lock()
	defer mutex.Unlock()
	if atomic.LoadInt32(&status) == stateUninitialized {
		initFromEnvironment()
		if pattern == "" {
			return
		}
	}
	matches, ok := fileMatches[file]
	if !ok {
		matches = re.MatchString(file)
		fileMatches[file] = matches
	}
	if !matches {
		return
	}
	depth := runtime.Callers(1, callers)
	if depth < minDepth {
		minDepth = depth
	}
	depth -= minDepth
	if depth > 0 {
		format = strings.Repeat(".", depth) + format
	}
	if DumpGids {
		args = append([]interface{}{gid.GetGoroutineID()}, args...)
		format = "%8d " + format
	}
	logger.Printf(format, args...)
}
