/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2017 Markus Stenberg
 *
 * Created:       Sun Dec 24 16:42:58 2017 mstenber
 * Last modified: Thu Feb 14 09:40:12 2019 mstenber
 * Edit time:     38 min
 *
 */

package codec

import (
	"github.com/glycerine/greenpack/msgp"
	"github.com/pkg/errors"
)

var (
	ErrInvalidEnvelope    = errors.New("invalid codec envelope")
	ErrInvalidNonce       = errors.New("invalid nonce")
	ErrUnknownCompression = errors.New("unknown compression type")
)

// EncryptedData is the envelope of EncryptingCodec output.
type EncryptedData struct {
	// nonce used for AES GCM
	Nonce []byte

	// EncryptedData is AES GCM encrypted payload
	EncryptedData []byte
}

type CompressionType byte

const (
	CompressionType_UNSET CompressionType = iota

	// The data has not been compressed.
	CompressionType_PLAIN

	// The data is compressed with Snappy.
	CompressionType_SNAPPY
)

// CompressedData is the envelope of CompressingCodec output.
type CompressedData struct {
	CompressionType CompressionType
	RawData         []byte
}

// Both envelopes are msgpack arrays, [nonce, ciphertext] and
// [type, data] respectively.

func (self *EncryptedData) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendBytes(b, self.Nonce)
	b = msgp.AppendBytes(b, self.EncryptedData)
	return b, nil
}

func (self *EncryptedData) UnmarshalMsg(b []byte) (o []byte, err error) {
	var nbs msgp.NilBitsStack
	if b, err = readArrayHeader(&nbs, b, 2); err != nil {
		return
	}
	if self.Nonce, b, err = nbs.ReadBytesBytes(b, nil); err != nil {
		return
	}
	self.EncryptedData, o, err = nbs.ReadBytesBytes(b, nil)
	return
}

func (self *CompressedData) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendUint8(b, uint8(self.CompressionType))
	b = msgp.AppendBytes(b, self.RawData)
	return b, nil
}

func (self *CompressedData) UnmarshalMsg(b []byte) (o []byte, err error) {
	var nbs msgp.NilBitsStack
	if b, err = readArrayHeader(&nbs, b, 2); err != nil {
		return
	}
	var ct uint8
	if ct, b, err = nbs.ReadUint8Bytes(b); err != nil {
		return
	}
	self.CompressionType = CompressionType(ct)
	self.RawData, o, err = nbs.ReadBytesBytes(b, nil)
	return
}

func readArrayHeader(nbs *msgp.NilBitsStack, b []byte, want uint32) ([]byte, error) {
	sz, o, err := nbs.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, err
	}
	if sz != want {
		return nil, ErrInvalidEnvelope
	}
	return o, nil
}
