/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb 15 10:50:02 2019 mstenber
 * Last modified: Fri Feb 15 11:18:40 2019 mstenber
 * Edit time:     22 min
 *
 */

package storage

import (
	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"
)

const MetadataVersion = 1

// Metadata describes the geometry the store was formatted with.
type Metadata struct {
	Version   int `codec:"v"`
	NumDisks  int `codec:"d"`
	DiskSize  int `codec:"s"`
	BlockSize int `codec:"b"`
}

func DefaultMetadata() *Metadata {
	return &Metadata{Version: MetadataVersion,
		NumDisks:  jbod.NumDisks,
		DiskSize:  jbod.DiskSize,
		BlockSize: jbod.BlockSize}
}

var cborHandle codec.CborHandle

func (self *Metadata) MarshalCBOR() (b []byte, err error) {
	err = codec.NewEncoderBytes(&b, &cborHandle).Encode(self)
	return
}

func (self *Metadata) UnmarshalCBOR(b []byte) error {
	return codec.NewDecoderBytes(b, &cborHandle).Decode(self)
}

// CheckMetadata formats empty backend with the default metadata, and
// otherwise ensures the stored one matches it.
func CheckMetadata(be Backend) error {
	want := DefaultMetadata()
	b, err := be.GetMetadata()
	if err != nil {
		return err
	}
	if b == nil {
		mlog.Printf2("storage/metadata", "CheckMetadata - formatting")
		b, err = want.MarshalCBOR()
		if err != nil {
			return err
		}
		return be.SetMetadata(b)
	}
	var got Metadata
	if err = got.UnmarshalCBOR(b); err != nil {
		return errors.Wrap(err, "decoding metadata")
	}
	if got != *want {
		return errors.Wrapf(ErrGeometryMismatch, "%+v", got)
	}
	return nil
}
