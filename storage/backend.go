/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Fri Jan  5 11:14:11 2018 mstenber
 * Last modified: Fri Feb 15 11:20:33 2019 mstenber
 * Edit time:     41 min
 *
 */

// storage package persists the blocks of an emulated JBOD device.
//
// Backend is the shadow behind the throne; it actually stores the
// block data (and the device metadata record). Blocks that have never
// been written are absent, and read as zeros by the device.
package storage

import (
	"fmt"

	"github.com/fingon/go-jbod/jbod"
	"github.com/pkg/errors"
)

var (
	ErrInvalidSize      = errors.New("invalid block data size")
	ErrCodecUnsupported = errors.New("backend cannot store encoded blocks")
	ErrGeometryMismatch = errors.New("store formatted with different geometry")
)

type Feature int

const (
	// VariableSizeFeature backends store values of any length
	// (needed for codecs)
	VariableSizeFeature Feature = iota
)

type BackendConfiguration struct {
	// Directory is where on-disk backends keep their files
	Directory string
}

// BlockKey identifies a block within the device.
type BlockKey struct {
	Disk, Block int
}

func (self BlockKey) Bytes() []byte {
	return []byte{byte(self.Disk), byte(self.Block)}
}

func (self BlockKey) String() string {
	return fmt.Sprintf("%d/%d", self.Disk, self.Block)
}

func (self BlockKey) Valid() bool {
	return jbod.ValidDisk(self.Disk) && jbod.ValidBlock(self.Block)
}

type Backend interface {
	// Init makes the backend useful
	Init(config BackendConfiguration) error

	// Close the backend
	Close()

	// Getters

	// GetBlockData returns stored data of block, or nil if it has
	// never been written.
	GetBlockData(key BlockKey) ([]byte, error)

	// GetMetadata returns the stored metadata record, or nil.
	GetMetadata() ([]byte, error)

	// Supports reports if backend has particular feature.
	Supports(feature Feature) bool

	// Setters

	// SetBlockData stores data of block.
	SetBlockData(key BlockKey, data []byte) error

	// SetMetadata stores the metadata record.
	SetMetadata(data []byte) error
}
