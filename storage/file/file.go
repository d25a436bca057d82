/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Fri Jan  5 12:40:11 2018 mstenber
 * Last modified: Fri Feb 15 12:10:57 2019 mstenber
 * Edit time:     76 min
 *
 */

package file

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/storage"
	"github.com/fingon/go-jbod/util"
)

// fileBackend stores each disk as its own (sparse) image file,
// disk-NN.img, with block N at offset N * BlockSize. Metadata is in
// meta.cbor next to them.
//
// Blocks are fixed size, so codecs cannot be used on top of this.
type fileBackend struct {
	dir   string
	disks [jbod.NumDisks]*os.File

	// per-disk lock; guards disks[i] and the image
	locks util.MutexLockedMap
}

var _ storage.Backend = &fileBackend{}

func NewFileBackend() storage.Backend {
	return &fileBackend{}
}

func (self *fileBackend) Init(config storage.BackendConfiguration) error {
	self.dir = config.Directory
	return os.MkdirAll(self.dir, 0700)
}

func (self *fileBackend) Close() {
	for i := range self.disks {
		unlock := self.locks.Locked(i)
		if fp := self.disks[i]; fp != nil {
			fp.Close()
			self.disks[i] = nil
		}
		unlock()
	}
}

func (self *fileBackend) diskPath(disk int) string {
	return filepath.Join(self.dir, fmt.Sprintf("disk-%02d.img", disk))
}

func (self *fileBackend) metadataPath() string {
	return filepath.Join(self.dir, "meta.cbor")
}

// disk returns open image of the disk; if create is not set and the
// image does not exist, nil is returned.
func (self *fileBackend) disk(disk int, create bool) (*os.File, error) {
	if fp := self.disks[disk]; fp != nil {
		return fp, nil
	}
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	fp, err := os.OpenFile(self.diskPath(disk), flags, 0600)
	if os.IsNotExist(err) && !create {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	self.disks[disk] = fp
	return fp, nil
}

func (self *fileBackend) GetBlockData(key storage.BlockKey) ([]byte, error) {
	defer self.locks.Locked(key.Disk)()
	fp, err := self.disk(key.Disk, false)
	if fp == nil || err != nil {
		return nil, err
	}
	buf := make([]byte, jbod.BlockSize)
	n, err := fp.ReadAt(buf, int64(key.Block*jbod.BlockSize))
	if err == io.EOF {
		if n == 0 {
			return nil, nil
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (self *fileBackend) GetMetadata() ([]byte, error) {
	b, err := ioutil.ReadFile(self.metadataPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	return b, err
}

func (self *fileBackend) Supports(feature storage.Feature) bool {
	return false
}

func (self *fileBackend) SetBlockData(key storage.BlockKey, data []byte) error {
	if len(data) != jbod.BlockSize {
		return errors.Wrapf(storage.ErrInvalidSize, "%d", len(data))
	}
	mlog.Printf2("storage/file/file", "fb.SetBlockData %v", key)
	defer self.locks.Locked(key.Disk)()
	fp, err := self.disk(key.Disk, true)
	if err != nil {
		return err
	}
	n, err := fp.WriteAt(data, int64(key.Block*jbod.BlockSize))
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	return err
}

func (self *fileBackend) SetMetadata(data []byte) error {
	return ioutil.WriteFile(self.metadataPath(), data, 0600)
}
