/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 14:02:51 2019 mstenber
 * Last modified: Fri Feb 15 14:20:18 2019 mstenber
 * Edit time:     88 min
 *
 */

// device package emulates the JBOD hardware: it executes operation
// words against a storage backend, keeping the mount and write
// permission state and the current disk/block cursor.
//
// The cursor advances by one block after READ_BLOCK and WRITE_BLOCK
// (from the last block of a disk to the first block of the next
// one), so clients must seek again before touching the same block.
package device

import (
	"hash"

	"github.com/jacobsa/crypto/cmac"
	"github.com/pkg/errors"

	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/protocol"
	"github.com/fingon/go-jbod/storage"
	"github.com/fingon/go-jbod/util"
)

var (
	ErrAlreadyMounted = errors.New("already mounted")
	ErrNotMounted     = errors.New("not mounted")
	ErrInvalidDisk    = errors.New("invalid disk")
	ErrInvalidBlock   = errors.New("invalid block")
	ErrNotWritable    = errors.New("write permission not granted")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoBuffer       = errors.New("block buffer missing")
)

// DefaultKey is the signing key used when none is configured.
var DefaultKey = []byte("jbod-sign-key-16")

type Device struct {
	// Backend stores the blocks; it must be initialized.
	Backend storage.Backend

	// Key is the AES-CMAC key for SIGN_BLOCK (16, 24 or 32 bytes)
	Key []byte

	lock        util.MutexLocked
	signer      hash.Hash
	mounted     bool
	writable    bool
	disk, block int
	stats       [jbod.NumCommands]util.AtomicInt
	failures    util.AtomicInt
}

var _ protocol.Transport = &Device{}

func (self Device) Init() (*Device, error) {
	if self.Key == nil {
		self.Key = DefaultKey
	}
	signer, err := cmac.New(self.Key)
	if err != nil {
		return nil, errors.Wrap(err, "cmac.New")
	}
	self.signer = signer
	return &self, nil
}

// Operation executes op. block is the payload for WRITE_BLOCK and
// the destination for READ_BLOCK and SIGN_BLOCK; it must be full
// block for those.
func (self *Device) Operation(op jbod.Op, block []byte) error {
	defer self.lock.Locked()()
	err := self.execute(op, block)
	mlog.Printf2("device/device", "d.Operation %v => %v", op, err)
	if err != nil {
		self.failures.Inc()
	}
	return err
}

func (self *Device) execute(op jbod.Op, block []byte) error {
	cmd := op.Command()
	if cmd >= jbod.NumCommands {
		return errors.Wrapf(ErrUnknownCommand, "%v", op)
	}
	self.stats[cmd].Inc()
	switch cmd {
	case jbod.CmdMount:
		if self.mounted {
			return ErrAlreadyMounted
		}
		self.mounted = true
		return nil
	case jbod.CmdUnmount:
		if !self.mounted {
			return ErrNotMounted
		}
		self.mounted = false
		self.writable = false
		return nil
	}
	if !self.mounted {
		return ErrNotMounted
	}
	switch cmd {
	case jbod.CmdSeekToDisk:
		disk := op.Disk()
		if !jbod.ValidDisk(disk) {
			return errors.Wrapf(ErrInvalidDisk, "%d", disk)
		}
		self.disk = disk
	case jbod.CmdSeekToBlock:
		self.block = op.Block()
	case jbod.CmdReadBlock:
		if len(block) < jbod.BlockSize {
			return ErrNoBuffer
		}
		if err := self.readBlock(block); err != nil {
			return err
		}
		self.advance()
	case jbod.CmdWriteBlock:
		if !self.writable {
			return ErrNotWritable
		}
		if len(block) < jbod.BlockSize {
			return ErrNoBuffer
		}
		key := storage.BlockKey{Disk: self.disk, Block: self.block}
		err := self.Backend.SetBlockData(key, block[:jbod.BlockSize])
		if err != nil {
			return errors.Wrapf(err, "SetBlockData %v", key)
		}
		self.advance()
	case jbod.CmdWritePermission:
		self.writable = true
	case jbod.CmdRevokeWritePermission:
		self.writable = false
	case jbod.CmdSignBlock:
		if len(block) < jbod.SignatureSize {
			return ErrNoBuffer
		}
		data := make([]byte, jbod.BlockSize)
		if err := self.readBlock(data); err != nil {
			return err
		}
		self.signer.Reset()
		self.signer.Write(data)
		sum := self.signer.Sum(nil)
		for i := range block {
			block[i] = 0
		}
		copy(block, sum)
	}
	return nil
}

// readBlock fills buf with the block under the cursor; blocks never
// written read as zeros.
func (self *Device) readBlock(buf []byte) error {
	key := storage.BlockKey{Disk: self.disk, Block: self.block}
	data, err := self.Backend.GetBlockData(key)
	if err != nil {
		return errors.Wrapf(err, "GetBlockData %v", key)
	}
	if data != nil && len(data) != jbod.BlockSize {
		return errors.Wrapf(storage.ErrInvalidSize, "%v: %d", key, len(data))
	}
	n := copy(buf, data)
	for i := n; i < jbod.BlockSize; i++ {
		buf[i] = 0
	}
	return nil
}

func (self *Device) advance() {
	self.block++
	if self.block == jbod.BlocksPerDisk {
		self.block = 0
		self.disk = (self.disk + 1) % jbod.NumDisks
	}
}

// Position returns the current cursor.
func (self *Device) Position() (disk, block int) {
	defer self.lock.Locked()()
	return self.disk, self.block
}

type Stats struct {
	// Operations executed per command (including failed ones)
	Operations [jbod.NumCommands]int
	Failures   int
}

func (self *Device) Stats() (st Stats) {
	for i := range self.stats {
		st.Operations[i] = self.stats[i].GetInt()
	}
	st.Failures = self.failures.GetInt()
	return
}
