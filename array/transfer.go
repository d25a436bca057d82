/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 10:01:17 2019 mstenber
 * Last modified: Fri Feb 15 15:38:55 2019 mstenber
 * Edit time:     96 min
 *
 */

package array

import (
	"io"

	"github.com/fingon/go-jbod/cache"
	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/util"
	"github.com/pkg/errors"
)

var _ io.ReaderAt = &Array{}
var _ io.WriterAt = &Array{}

// do executes single device operation; done is the number of bytes
// completed so far, for the error.
func (self *Array) do(op jbod.Op, block []byte, done int) error {
	if err := self.transport.Operation(op, block); err != nil {
		mlog.Printf2("array/transfer", " %v failed: %v", op, err)
		return &TransferError{Op: op, Done: done, Err: err}
	}
	return nil
}

func (self *Array) seek(disk, block, done int) error {
	if err := self.do(jbod.NewOp(0, disk, jbod.CmdSeekToDisk), nil, done); err != nil {
		return err
	}
	return self.do(jbod.NewOp(block, 0, jbod.CmdSeekToBlock), nil, done)
}

// resolve fills buf with the content of the (already seeked) block,
// from the cache if possible.
func (self *Array) resolve(disk, block int, buf []byte, done int) error {
	if self.cache.Enabled() && self.cache.Lookup(disk, block, buf) {
		return nil
	}
	if err := self.do(jbod.NewOp(0, 0, jbod.CmdReadBlock), buf, done); err != nil {
		return err
	}
	if self.cache.Enabled() {
		if err := self.cache.Insert(disk, block, buf); err != nil {
			mlog.Printf2("array/transfer", " cache insert failed: %v", err)
		}
	}
	return nil
}

// readStep copies block content at offset to dst.
func (self *Array) readStep(disk, block, offset int, dst, buf []byte, done int) error {
	if err := self.seek(disk, block, done); err != nil {
		return err
	}
	if err := self.resolve(disk, block, buf, done); err != nil {
		return err
	}
	copy(dst, buf[offset:])
	return nil
}

// writeStep merges src at offset into the block and writes the whole
// block back.
func (self *Array) writeStep(disk, block, offset int, src, buf []byte, done int) error {
	if err := self.seek(disk, block, done); err != nil {
		return err
	}
	if err := self.resolve(disk, block, buf, done); err != nil {
		return err
	}
	copy(buf[offset:], src)
	if err := self.seek(disk, block, done); err != nil {
		return err
	}
	if err := self.do(jbod.NewOp(0, 0, jbod.CmdWriteBlock), buf, done); err != nil {
		return err
	}
	if !self.cache.Enabled() {
		return nil
	}
	err := self.cache.Insert(disk, block, buf)
	if err == cache.ErrExists {
		self.cache.Update(disk, block, buf)
	} else if err != nil {
		mlog.Printf2("array/transfer", " cache insert failed: %v", err)
	}
	return nil
}

func (self *Array) validate(addr, length int, buf []byte) error {
	if !self.mounted {
		return ErrNotMounted
	}
	if length < 0 || length > jbod.MaxTransfer {
		return errors.Wrapf(ErrInvalidLength, "%d", length)
	}
	if len(buf) < length {
		return ErrNoBuffer
	}
	if addr < 0 || addr > jbod.AddressSpace-length {
		return errors.Wrapf(ErrOutOfRange, "%d+%d", addr, length)
	}
	return nil
}

// transfer walks [addr, addr+length) block by block.
func (self *Array) transfer(addr, length int, buf []byte, write bool) (int, error) {
	done := 0
	block := make([]byte, jbod.BlockSize)
	for done < length {
		disk, blk, offset := jbod.Locate(addr + done)
		n := util.IMin(jbod.BlockSize-offset, length-done)
		chunk := buf[done : done+n]
		var err error
		for attempt := 0; ; attempt++ {
			if write {
				err = self.writeStep(disk, blk, offset, chunk, block, done)
			} else {
				err = self.readStep(disk, blk, offset, chunk, block, done)
			}
			if err == nil || attempt >= self.Retries {
				break
			}
			mlog.Printf2("array/transfer", " retrying %d/%d (attempt %d)", disk, blk, attempt+1)
		}
		if err != nil {
			if self.Policy == PolicyPartial {
				return done, err
			}
			return 0, err
		}
		done += n
	}
	return done, nil
}

// Read reads length bytes starting at addr to buf. Zero length with
// nil buffer is a no-op.
func (self *Array) Read(addr, length int, buf []byte) (int, error) {
	mlog.Printf2("array/transfer", "a.Read %d %d", addr, length)
	if length == 0 && buf == nil {
		return 0, nil
	}
	if err := self.validate(addr, length, buf); err != nil {
		return 0, err
	}
	return self.transfer(addr, length, buf, false)
}

// Write writes length bytes from buf starting at addr. Zero length
// with nil buffer is a no-op.
func (self *Array) Write(addr, length int, buf []byte) (int, error) {
	mlog.Printf2("array/transfer", "a.Write %d %d", addr, length)
	if length == 0 && buf == nil {
		return 0, nil
	}
	if err := self.validate(addr, length, buf); err != nil {
		return 0, err
	}
	if !self.writable {
		return 0, ErrReadOnly
	}
	return self.transfer(addr, length, buf, true)
}

// ReadAt implements io.ReaderAt; reads are split to MaxTransfer
// chunks. Reading past the end of the address space yields io.EOF.
func (self *Array) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errors.Wrapf(ErrOutOfRange, "%d", off)
	}
	if off >= jbod.AddressSpace {
		return 0, io.EOF
	}
	want := len(p)
	if int64(want) > jbod.AddressSpace-off {
		want = int(jbod.AddressSpace - off)
	}
	for n < want {
		l := util.IMin(want-n, jbod.MaxTransfer)
		var got int
		got, err = self.Read(int(off)+n, l, p[n:n+l])
		n += got
		if err != nil {
			return
		}
	}
	if n < len(p) {
		err = io.EOF
	}
	return
}

// WriteAt implements io.WriterAt; writes are split to MaxTransfer
// chunks.
func (self *Array) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off > jbod.AddressSpace || int64(len(p)) > jbod.AddressSpace-off {
		return 0, errors.Wrapf(ErrOutOfRange, "%d+%d", off, len(p))
	}
	for n < len(p) {
		l := util.IMin(len(p)-n, jbod.MaxTransfer)
		var got int
		got, err = self.Write(int(off)+n, l, p[n:n+l])
		n += got
		if err != nil {
			return
		}
	}
	return
}
