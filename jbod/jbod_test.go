/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 11 09:50:12 2019 mstenber
 * Last modified: Wed Feb 13 10:40:31 2019 mstenber
 * Edit time:     12 min
 *
 */

package jbod

import (
	"testing"

	"github.com/stvp/assert"
)

func TestNewOp(t *testing.T) {
	t.Parallel()
	assert.Equal(t, NewOp(0, 0, CmdMount), Op(0))
	assert.Equal(t, NewOp(0x12, 0, CmdSeekToBlock), Op(0x3012))
	assert.Equal(t, NewOp(0, 7, CmdSeekToDisk), Op(0x2700))
	assert.Equal(t, NewOp(0, 0, CmdWriteBlock), Op(0x5000))
	// block is masked to 8 bits
	assert.Equal(t, NewOp(0x1ff, 0, CmdReadBlock), Op(0x40ff))

	op := NewOp(200, 15, CmdSignBlock)
	assert.Equal(t, op.Block(), 200)
	assert.Equal(t, op.Disk(), 15)
	assert.Equal(t, op.Command(), CmdSignBlock)
}

func TestOpOverlap(t *testing.T) {
	t.Parallel()
	// Disk ids above 15 leak into the command field
	op := NewOp(0, 0x10, CmdSeekToDisk)
	assert.Equal(t, op, Op(0x3000))
	assert.Equal(t, op.Command(), CmdSeekToBlock)
	assert.Equal(t, op.Disk(), 0)
}

func TestHasPayload(t *testing.T) {
	t.Parallel()
	for cmd := CmdMount; cmd < NumCommands; cmd++ {
		assert.Equal(t, NewOp(1, 2, cmd).HasPayload(), cmd == CmdWriteBlock, cmd)
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()
	check := func(addr, disk, block, offset int) {
		d, b, o := Locate(addr)
		assert.Equal(t, d, disk, addr)
		assert.Equal(t, b, block, addr)
		assert.Equal(t, o, offset, addr)
	}
	check(0, 0, 0, 0)
	check(100, 0, 0, 100)
	check(256, 0, 1, 0)
	check(DiskSize-1, 0, BlocksPerDisk-1, BlockSize-1)
	check(DiskSize, 1, 0, 0)
	check(AddressSpace-1, NumDisks-1, BlocksPerDisk-1, BlockSize-1)
}

func TestCommandString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, CmdWriteBlock.String(), "WRITE_BLOCK")
	assert.Equal(t, Command(42).String(), "CMD_42")
	assert.Equal(t, NewOp(3, 4, CmdReadBlock).String(), "READ_BLOCK[d4 b3]")
}
