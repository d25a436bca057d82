/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb 15 18:02:11 2019 mstenber
 * Last modified: Fri Feb 15 18:09:40 2019 mstenber
 * Edit time:     7 min
 *
 */

package main

import (
	"testing"

	"github.com/stvp/assert"
)

func TestParseArgs(t *testing.T) {
	t.Parallel()
	cmd, nums, err := parseArgs([]string{"read", "0x100", "42"})
	assert.Nil(t, err)
	assert.Equal(t, cmd, "read")
	assert.Equal(t, nums, []int{256, 42})

	cmd, nums, err = parseArgs([]string{"write", "7"})
	assert.Nil(t, err)
	assert.Equal(t, cmd, "write")
	assert.Equal(t, nums, []int{7})

	// everything run would trip over is rejected before connecting
	for _, args := range [][]string{
		nil,
		{"bogus"},
		{"read", "1"},
		{"write"},
		{"sign", "1", "2", "3"},
		{"sign", "x", "2"},
	} {
		_, _, err = parseArgs(args)
		assert.True(t, err != nil, args)
	}
}
