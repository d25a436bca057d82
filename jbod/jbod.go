/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 11 09:12:40 2019 mstenber
 * Last modified: Wed Feb 13 10:41:02 2019 mstenber
 * Edit time:     47 min
 *
 */

// jbod package describes the device we are talking to: an array of
// NumDisks disks, each DiskSize bytes, addressed in BlockSize
// blocks, and the 32-bit operation word that both request and
// response packets carry.
//
// Operation word layout:
//
// - bits 0-7: block id
//
// - bits 8-15: disk id (masked to 8 bits, only bits 8-11 are usable)
//
// - bits 12-19: command
//
// The disk id and command fields overlap in bits 12-15; disk ids
// above 15 corrupt the command. The packing is kept as-is for wire
// compatibility.
package jbod

import "fmt"

const (
	NumDisks      = 16
	DiskSize      = 65536
	BlockSize     = 256
	BlocksPerDisk = DiskSize / BlockSize

	// AddressSpace is the size of the linear address space
	AddressSpace = NumDisks * DiskSize

	// MaxTransfer is the largest single read/write accepted
	MaxTransfer = 2048

	// SignatureSize is the length of SIGN_BLOCK result (at the start
	// of the returned block)
	SignatureSize = 16
)

type Command uint8

const (
	CmdMount Command = iota
	CmdUnmount
	CmdSeekToDisk
	CmdSeekToBlock
	CmdReadBlock
	CmdWriteBlock
	CmdWritePermission
	CmdRevokeWritePermission
	CmdSignBlock
	NumCommands
)

var commandNames = [...]string{
	"MOUNT",
	"UNMOUNT",
	"SEEK_TO_DISK",
	"SEEK_TO_BLOCK",
	"READ_BLOCK",
	"WRITE_BLOCK",
	"WRITE_PERMISSION",
	"REVOKE_WRITE_PERMISSION",
	"SIGN_BLOCK",
}

func (self Command) String() string {
	if self < NumCommands {
		return commandNames[self]
	}
	return fmt.Sprintf("CMD_%d", uint8(self))
}

// Info byte bits (second field of packet header)
const (
	InfoFailure  uint8 = 1
	InfoHasBlock uint8 = 2
)

// Op is the packed operation word.
type Op uint32

const (
	blockShift   = 0
	diskShift    = 8
	commandShift = 12
)

// NewOp packs block, disk and command into an operation word.
func NewOp(block, disk int, cmd Command) Op {
	b := uint32(block) & 0xff
	d := (uint32(disk) & 0xff) << diskShift
	c := (uint32(cmd) & 0xff) << commandShift
	return Op(b | d | c)
}

func (self Op) Block() int {
	return int((uint32(self) >> blockShift) & 0xff)
}

// Disk returns the collision-free low nibble of the disk field.
func (self Op) Disk() int {
	return int((uint32(self) >> diskShift) & 0xf)
}

func (self Op) Command() Command {
	return Command((uint32(self) >> commandShift) & 0xff)
}

// HasPayload is true if request with this op carries a block.
func (self Op) HasPayload() bool {
	return self.Command() == CmdWriteBlock
}

func (self Op) String() string {
	return fmt.Sprintf("%v[d%d b%d]", self.Command(), self.Disk(), self.Block())
}

// Locate splits linear address into disk, block within disk, and
// byte offset within the block.
func Locate(addr int) (disk, block, offset int) {
	disk = addr / DiskSize
	block = (addr % DiskSize) / BlockSize
	offset = addr % BlockSize
	return
}

// ValidDisk reports if disk is addressable.
func ValidDisk(disk int) bool {
	return disk >= 0 && disk < NumDisks
}

// ValidBlock reports if block is addressable within a disk.
func ValidBlock(block int) bool {
	return block >= 0 && block < BlocksPerDisk
}
