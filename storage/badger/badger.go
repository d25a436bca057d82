/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2017 Markus Stenberg
 *
 * Created:       Sat Dec 23 15:10:01 2017 mstenber
 * Last modified: Fri Feb 15 11:52:13 2019 mstenber
 * Edit time:     161 min
 *
 */

package badger

import (
	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/storage"
)

var blockPrefix = []byte("b")
var metadataKey = []byte("m")

// badgerBackend provides on-disk storage.
//
// - key b + block key -> data
// - key m -> metadata record
type badgerBackend struct {
	db *badger.DB
}

var _ storage.Backend = &badgerBackend{}

func NewBadgerBackend() storage.Backend {
	return &badgerBackend{}
}

func (self *badgerBackend) Init(config storage.BackendConfiguration) error {
	opts := badger.DefaultOptions
	opts.Dir = config.Directory
	opts.ValueDir = config.Directory
	db, err := badger.Open(opts)
	if err != nil {
		return errors.Wrap(err, "badger.Open")
	}
	self.db = db
	return nil
}

func (self *badgerBackend) Close() {
	self.db.Close()
}

func blockKey(key storage.BlockKey) []byte {
	return append(append([]byte(nil), blockPrefix...), key.Bytes()...)
}

func (self *badgerBackend) get(k []byte) (v []byte, err error) {
	err = self.db.View(func(txn *badger.Txn) error {
		i, err := txn.Get(k)
		if err == nil {
			v, err = i.ValueCopy(nil)
		}
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	return
}

func (self *badgerBackend) set(k, v []byte) error {
	return self.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, v)
	})
}

func (self *badgerBackend) GetBlockData(key storage.BlockKey) ([]byte, error) {
	return self.get(blockKey(key))
}

func (self *badgerBackend) GetMetadata() ([]byte, error) {
	return self.get(metadataKey)
}

func (self *badgerBackend) Supports(feature storage.Feature) bool {
	return feature == storage.VariableSizeFeature
}

func (self *badgerBackend) SetBlockData(key storage.BlockKey, data []byte) error {
	mlog.Printf2("storage/badger/badger", "bad.SetBlockData %v (%d b)", key, len(data))
	return self.set(blockKey(key), data)
}

func (self *badgerBackend) SetMetadata(data []byte) error {
	return self.set(metadataKey, data)
}
