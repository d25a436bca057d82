/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Fri Jan  5 12:22:52 2018 mstenber
 * Last modified: Fri Feb 15 12:31:40 2019 mstenber
 * Edit time:     44 min
 *
 */

package factory

import (
	"sort"

	"github.com/fingon/go-jbod/codec"
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/storage"
	"github.com/fingon/go-jbod/storage/badger"
	"github.com/fingon/go-jbod/storage/bolt"
	"github.com/fingon/go-jbod/storage/file"
	"github.com/fingon/go-jbod/storage/inmemory"
	"github.com/pkg/errors"
)

var ErrUnknownBackend = errors.New("unknown backend")

type factoryCallback func() storage.Backend

var backendFactories = map[string]factoryCallback{
	"inmemory": inmemory.NewInMemoryBackend,
	"badger":   badger.NewBadgerBackend,
	"bolt":     bolt.NewBoltBackend,
	"file":     file.NewFileBackend,
}

func List() []string {
	keys := make([]string, 0, len(backendFactories))
	for k := range backendFactories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func New(name, dir string) (storage.Backend, error) {
	var config storage.BackendConfiguration
	config.Directory = dir
	return NewWithConfig(name, config)
}

func NewWithConfig(name string, config storage.BackendConfiguration) (storage.Backend, error) {
	mlog.Printf2("storage/factory/factory", "f.NewWithConfig %v %v", name, config)
	cb, ok := backendFactories[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%#v", name)
	}
	be := cb()
	if err := be.Init(config); err != nil {
		return nil, err
	}
	return be, nil
}

type Configuration struct {
	storage.BackendConfiguration
	BackendName    string
	Password, Salt string
	Iterations     int

	// Compress blocks with snappy (implied by Password)
	Compress bool
}

// NewStorage produces ready-to-use backend for the device: the named
// backend, wrapped with the configured codecs, with metadata checked.
func NewStorage(config Configuration) (storage.Backend, error) {
	mlog.Printf2("storage/factory/factory", "f.NewStorage")
	iterations := config.Iterations
	if iterations == 0 {
		iterations = codec.DefaultIterations
	}
	salt := config.Salt
	if salt == "" {
		salt = "asdf"
	}
	var codecs []codec.Codec
	if config.Password != "" {
		mlog.Printf2("storage/factory/factory", " with encryption + compression")
		c1, err := codec.EncryptingCodec{}.Init([]byte(config.Password), []byte(salt), iterations)
		if err != nil {
			return nil, err
		}
		codecs = append(codecs, c1, &codec.CompressingCodec{})
	} else if config.Compress {
		mlog.Printf2("storage/factory/factory", " only compression")
		codecs = append(codecs, &codec.CompressingCodec{})
	}
	be, err := NewWithConfig(config.BackendName, config.BackendConfiguration)
	if err != nil {
		return nil, err
	}
	if len(codecs) > 0 {
		cbe, err := storage.NewCodecBackend(be, codec.CodecChain{}.Init(codecs...))
		if err != nil {
			be.Close()
			return nil, errors.Wrapf(err, "backend %s", config.BackendName)
		}
		be = cbe
	}
	if err = storage.CheckMetadata(be); err != nil {
		be.Close()
		return nil, err
	}
	return be, nil
}
