/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Sat Jan  6 00:08:05 2018 mstenber
 * Last modified: Fri Feb 15 10:32:10 2019 mstenber
 * Edit time:     9 min
 *
 */

package storage

import "github.com/fingon/go-jbod/mlog"

// proxyBackend forwards everything to Backend; embed it and override
// what needs changing.
type proxyBackend struct {
	Backend Backend
}

var _ Backend = &proxyBackend{}

func (self *proxyBackend) Init(config BackendConfiguration) error {
	return self.Backend.Init(config)
}

func (self *proxyBackend) Close() {
	mlog.Printf2("storage/proxybackend", "proxying backend Close()")
	self.Backend.Close()
}

func (self *proxyBackend) GetBlockData(key BlockKey) ([]byte, error) {
	return self.Backend.GetBlockData(key)
}

func (self *proxyBackend) GetMetadata() ([]byte, error) {
	return self.Backend.GetMetadata()
}

func (self *proxyBackend) Supports(feature Feature) bool {
	return self.Backend.Supports(feature)
}

func (self *proxyBackend) SetBlockData(key BlockKey, data []byte) error {
	return self.Backend.SetBlockData(key, data)
}

func (self *proxyBackend) SetMetadata(data []byte) error {
	return self.Backend.SetMetadata(data)
}
