/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Fri Jan  5 11:26:14 2018 mstenber
 * Last modified: Fri Feb 15 11:31:02 2019 mstenber
 * Edit time:     14 min
 *
 */

package inmemory

import (
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/storage"
	"github.com/fingon/go-jbod/util"
)

// inMemoryBackend provides in-memory storage; blocks are kept in a
// map and disappear when the process does.
type inMemoryBackend struct {
	blocks   map[storage.BlockKey][]byte
	metadata []byte
	lock     util.MutexLocked
}

var _ storage.Backend = &inMemoryBackend{}

func NewInMemoryBackend() storage.Backend {
	return &inMemoryBackend{}
}

func (self *inMemoryBackend) Init(config storage.BackendConfiguration) error {
	self.blocks = make(map[storage.BlockKey][]byte)
	return nil
}

func (self *inMemoryBackend) Close() {
}

func (self *inMemoryBackend) GetBlockData(key storage.BlockKey) ([]byte, error) {
	defer self.lock.Locked()()
	return self.blocks[key], nil
}

func (self *inMemoryBackend) GetMetadata() ([]byte, error) {
	defer self.lock.Locked()()
	return self.metadata, nil
}

func (self *inMemoryBackend) Supports(feature storage.Feature) bool {
	return feature == storage.VariableSizeFeature
}

func (self *inMemoryBackend) SetBlockData(key storage.BlockKey, data []byte) error {
	mlog.Printf2("storage/inmemory/inmemory", "im.SetBlockData %v (%d b)", key, len(data))
	b := make([]byte, len(data))
	copy(b, data)
	defer self.lock.Locked()()
	self.blocks[key] = b
	return nil
}

func (self *inMemoryBackend) SetMetadata(data []byte) error {
	defer self.lock.Locked()()
	self.metadata = append([]byte(nil), data...)
	return nil
}
