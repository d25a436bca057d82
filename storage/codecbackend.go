/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Sat Jan  6 00:13:13 2018 mstenber
 * Last modified: Fri Feb 15 10:40:45 2019 mstenber
 * Edit time:     21 min
 *
 */

package storage

import (
	"github.com/fingon/go-jbod/codec"
	"github.com/fingon/go-jbod/mlog"
	"github.com/pkg/errors"
)

// codecBackend runs block data through Codec on its way to and from
// the wrapped backend. The block key is the additional data, so
// encrypted blocks cannot be swapped around. Metadata is stored as-is.
type codecBackend struct {
	proxyBackend
	Codec codec.Codec
}

// NewCodecBackend wraps be; be must support VariableSizeFeature.
func NewCodecBackend(be Backend, c codec.Codec) (Backend, error) {
	if !be.Supports(VariableSizeFeature) {
		return nil, ErrCodecUnsupported
	}
	self := &codecBackend{Codec: c}
	self.Backend = be
	return self, nil
}

func (self *codecBackend) GetBlockData(key BlockKey) ([]byte, error) {
	data, err := self.Backend.GetBlockData(key)
	if err != nil || data == nil {
		return data, err
	}
	b, err := self.Codec.DecodeBytes(data, key.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %v", key)
	}
	return b, nil
}

func (self *codecBackend) SetBlockData(key BlockKey, data []byte) error {
	b, err := self.Codec.EncodeBytes(data, key.Bytes())
	if err != nil {
		return errors.Wrapf(err, "encoding %v", key)
	}
	mlog.Printf2("storage/codecbackend", "cb.SetBlockData %v %d -> %d b", key, len(data), len(b))
	return self.Backend.SetBlockData(key, b)
}
