/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2017 Markus Stenberg
 *
 * Created:       Sat Dec 30 14:31:18 2017 mstenber
 * Last modified: Tue Feb 12 15:04:10 2019 mstenber
 * Edit time:     27 min
 *
 */

package mlog

import (
	"bytes"
	"log"
	"testing"

	"github.com/stvp/assert"
)

func withBuffer(pattern string, cb func()) string {
	var b bytes.Buffer
	oldGids := DumpGids
	DumpGids = false
	defer func() { DumpGids = oldGids }()
	defer SetLogger(log.New(&b, "", 0))()
	defer SetPattern(pattern)()
	cb()
	return b.String()
}

func TestMlog(t *testing.T) {
	add := func(pattern string, outputted bool) {
		t.Run(pattern, func(t *testing.T) {
			s := withBuffer(pattern, func() {
				Printf("foo %s", "bar")
			})
			assert.Equal(t, len(s) > 0, outputted)
			if outputted {
				assert.Equal(t, s, "foo bar\n")
			}
		})
	}
	add("", false)
	add("zzzglorb", false)
	add("mlog_test", true)
}

func TestPrintf2(t *testing.T) {
	s := withBuffer("^protocol/", func() {
		Printf2("protocol/client", "op %d", 1)
		Printf2("cache/cache", "hit %d", 2)
		Printf2("protocol/packet", "op %d", 3)
	})
	assert.Equal(t, s, "op 1\nop 3\n")
}

func TestMLogRecursion(t *testing.T) {
	Reset()
	s := withBuffer(".", func() {
		Printf("d0")
		func() {
			Printf("d1")
			func() {
				Printf("d2")
			}()
			Printf("D1")
		}()
		Printf("D0")
	})
	assert.Equal(t, s, "d0\n.d1\n..d2\n.D1\nD0\n")
}

func BenchmarkMlogDisabled(b *testing.B) {
	defer SetPattern("")()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Printf2("x", "y %d", 42)
	}
}

func BenchmarkMlogNotMatching(b *testing.B) {
	defer SetPattern("zzglorb")()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Printf2("x", "y %d", 42)
	}
}
