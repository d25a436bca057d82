/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Wed Jan  3 22:49:15 2018 mstenber
 * Last modified: Fri Feb 15 11:44:20 2019 mstenber
 * Edit time:     41 min
 *
 */

package bolt

import (
	"path/filepath"

	bbolt "github.com/coreos/bbolt"
	"github.com/pkg/errors"

	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/storage"
)

var blocksBucket = []byte("blocks")
var metaBucket = []byte("meta")
var metadataKey = []byte("geometry")

// boltBackend provides on-disk storage in a single bbolt database.
//
// - blocks bucket: block key -> data
// - meta bucket: geometry -> metadata record
type boltBackend struct {
	db *bbolt.DB
}

var _ storage.Backend = &boltBackend{}

func NewBoltBackend() storage.Backend {
	return &boltBackend{}
}

func (self *boltBackend) Init(config storage.BackendConfiguration) error {
	path := filepath.Join(config.Directory, "bbolt.db")
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return errors.Wrapf(err, "bbolt.Open %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{blocksBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return err
	}
	self.db = db
	return nil
}

func (self *boltBackend) Close() {
	self.db.Close()
}

func (self *boltBackend) get(bucket, key []byte) (v []byte, err error) {
	err = self.db.View(func(tx *bbolt.Tx) error {
		// value is valid only within the transaction
		if b := tx.Bucket(bucket).Get(key); b != nil {
			v = append([]byte(nil), b...)
		}
		return nil
	})
	return
}

func (self *boltBackend) put(bucket, key, value []byte) error {
	return self.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, value)
	})
}

func (self *boltBackend) GetBlockData(key storage.BlockKey) ([]byte, error) {
	return self.get(blocksBucket, key.Bytes())
}

func (self *boltBackend) GetMetadata() ([]byte, error) {
	return self.get(metaBucket, metadataKey)
}

func (self *boltBackend) Supports(feature storage.Feature) bool {
	return feature == storage.VariableSizeFeature
}

func (self *boltBackend) SetBlockData(key storage.BlockKey, data []byte) error {
	mlog.Printf2("storage/bolt/bolt", "bbolt.SetBlockData %v (%d b)", key, len(data))
	return self.put(blocksBucket, key.Bytes(), data)
}

func (self *boltBackend) SetMetadata(data []byte) error {
	return self.put(metaBucket, metadataKey, data)
}
