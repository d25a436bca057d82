/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 09:12:40 2019 mstenber
 * Last modified: Fri Feb 15 15:40:02 2019 mstenber
 * Edit time:     71 min
 *
 */

// array package presents the disks of a JBOD device as one linear
// address space. Reads and writes are translated to per-block
// seek/read/write operations, with an optional block cache in front
// of the device.
//
// Array is not safe for concurrent use.
package array

import (
	"fmt"
	"io"

	"github.com/fingon/go-jbod/cache"
	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/protocol"
	"github.com/pkg/errors"
)

var (
	ErrNotMounted     = errors.New("not mounted")
	ErrAlreadyMounted = errors.New("already mounted")
	ErrInvalidLength  = errors.New("invalid length")
	ErrOutOfRange     = errors.New("address range out of bounds")
	ErrNoBuffer       = errors.New("buffer missing or too short")
	ErrReadOnly       = errors.New("write permission not granted")
)

// Policy decides what happens when a device operation fails in the
// middle of a transfer.
type Policy int

const (
	// PolicyAbort reports no bytes transferred
	PolicyAbort Policy = iota

	// PolicyPartial reports the bytes completed before the failure
	PolicyPartial
)

type Config struct {
	// CacheSize is the number of cached blocks; 0 disables the cache
	CacheSize int

	Policy Policy

	// Retries is how many times a failed block step is retried
	Retries int
}

// TransferError is returned when a device operation fails during a
// read or write.
type TransferError struct {
	Op   jbod.Op
	Done int
	Err  error
}

func (self *TransferError) Error() string {
	return fmt.Sprintf("%v failed after %d bytes: %v", self.Op, self.Done, self.Err)
}

func (self *TransferError) Cause() error {
	return self.Err
}

type Array struct {
	Config
	transport protocol.Transport
	cache     cache.Cache
	mounted   bool
	writable  bool
}

func New(transport protocol.Transport, config Config) (*Array, error) {
	self := &Array{Config: config, transport: transport}
	if config.CacheSize > 0 {
		if err := self.cache.Create(config.CacheSize); err != nil {
			return nil, err
		}
	}
	return self, nil
}

// Close releases the cache. The transport is left alone.
func (self *Array) Close() {
	if self.cache.Enabled() {
		self.cache.Destroy()
	}
}

func (self *Array) Mounted() bool {
	return self.mounted
}

func (self *Array) Writable() bool {
	return self.writable
}

func (self *Array) control(cmd jbod.Command) error {
	op := jbod.NewOp(0, 0, cmd)
	mlog.Printf2("array/array", "a.control %v", op)
	return self.transport.Operation(op, nil)
}

func (self *Array) Mount() error {
	if self.mounted {
		return ErrAlreadyMounted
	}
	if err := self.control(jbod.CmdMount); err != nil {
		return err
	}
	self.mounted = true
	return nil
}

func (self *Array) Unmount() error {
	if !self.mounted {
		return ErrNotMounted
	}
	if err := self.control(jbod.CmdUnmount); err != nil {
		return err
	}
	self.mounted = false
	self.writable = false
	return nil
}

func (self *Array) GrantWrite() error {
	if !self.mounted {
		return ErrNotMounted
	}
	if err := self.control(jbod.CmdWritePermission); err != nil {
		return err
	}
	self.writable = true
	return nil
}

func (self *Array) RevokeWrite() error {
	if !self.mounted {
		return ErrNotMounted
	}
	if err := self.control(jbod.CmdRevokeWritePermission); err != nil {
		return err
	}
	self.writable = false
	return nil
}

// SignBlock returns the device signature of the block.
func (self *Array) SignBlock(disk, block int) ([]byte, error) {
	if !self.mounted {
		return nil, ErrNotMounted
	}
	if !jbod.ValidDisk(disk) || !jbod.ValidBlock(block) {
		return nil, errors.Wrapf(ErrOutOfRange, "%d/%d", disk, block)
	}
	buf := make([]byte, jbod.BlockSize)
	if err := self.seek(disk, block, 0); err != nil {
		return nil, err
	}
	if err := self.do(jbod.NewOp(0, 0, jbod.CmdSignBlock), buf, 0); err != nil {
		return nil, err
	}
	return buf[:jbod.SignatureSize], nil
}

func (self *Array) CacheStats() cache.Stats {
	return self.cache.Stats()
}

func (self *Array) PrintHitRate(w io.Writer) {
	self.cache.PrintHitRate(w)
}
