/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2017 Markus Stenberg
 *
 * Created:       Sun Dec 24 17:15:30 2017 mstenber
 * Last modified: Thu Feb 14 10:12:55 2019 mstenber
 * Edit time:     71 min
 *
 */

package codec

import (
	"bytes"
	"testing"

	"github.com/stvp/assert"
)

const compressible = "123456789123456789123456789123456789123456789123456789123456789123456789123456789123456789123456789"

func ProdCodecOnce(text string, c Codec, t *testing.T) {
	p := []byte(text)
	enc, err := c.EncodeBytes(p, nil)
	assert.Nil(t, err)
	dec, err := c.DecodeBytes(enc, nil)
	assert.Nil(t, err)
	assert.Equal(t, string(dec), text)
}

func ProdCodec(c Codec, t *testing.T) {
	ProdCodecOnce("foo", c, t)
	ProdCodecOnce(compressible, c, t)
	ProdCodecOnce(string(make([]byte, 256)), c, t)
}

func newEncryptingCodec(t *testing.T) *EncryptingCodec {
	c, err := EncryptingCodec{}.Init([]byte("foo"), []byte("salt"), 64)
	assert.Nil(t, err)
	return c
}

func TestEncryptingCodec(t *testing.T) {
	t.Parallel()
	p := []byte("data")
	ad := []byte("ad")

	c := newEncryptingCodec(t)
	ProdCodec(c, t)

	enc, err := c.EncodeBytes(p, nil)
	assert.Nil(t, err)

	// Additional data must match
	_, err = c.DecodeBytes(enc, ad)
	assert.True(t, err != nil)

	// Same payload does not encrypt the same way
	enc2, err := c.EncodeBytes(p, nil)
	assert.Nil(t, err)
	assert.NotEqual(t, enc, enc2)

	dec, err := c.DecodeBytes(enc2, nil)
	assert.Nil(t, err)
	assert.Equal(t, dec, p)

	enc3, err := c.EncodeBytes(p, ad)
	assert.Nil(t, err)
	dec, err = c.DecodeBytes(enc3, ad)
	assert.Nil(t, err)
	assert.Equal(t, dec, p)

	// Other password cannot read it
	c2, err := EncryptingCodec{}.Init([]byte("bar"), []byte("salt"), 64)
	assert.Nil(t, err)
	_, err = c2.DecodeBytes(enc3, ad)
	assert.True(t, err != nil)
}

func TestCompressingCodec(t *testing.T) {
	t.Parallel()
	c := &CompressingCodec{}
	ProdCodec(c, t)

	enc, err := c.EncodeBytes([]byte(compressible), nil)
	assert.Nil(t, err)
	assert.True(t, len(enc) < len(compressible), len(enc))

	// Incompressible data is stored plain
	enc, err = c.EncodeBytes([]byte("x"), nil)
	assert.Nil(t, err)
	var cd CompressedData
	_, err = cd.UnmarshalMsg(enc)
	assert.Nil(t, err)
	assert.Equal(t, cd.CompressionType, CompressionType_PLAIN)
}

func TestCodecChain(t *testing.T) {
	t.Parallel()
	c1 := newEncryptingCodec(t)
	c2 := &CompressingCodec{}
	c := CodecChain{}.Init(c1, c2)
	ProdCodec(c, t)

	// compression happens before encryption
	block := bytes.Repeat([]byte{42}, 256)
	enc, err := c.EncodeBytes(block, []byte("key"))
	assert.Nil(t, err)
	assert.True(t, len(enc) < len(block), len(enc))

	// empty chain is identity
	e := CodecChain{}.Init()
	enc, err = e.EncodeBytes(block, nil)
	assert.Nil(t, err)
	assert.Equal(t, enc, block)
}

func TestEnvelopeErrors(t *testing.T) {
	t.Parallel()
	var cd CompressedData
	_, err := cd.UnmarshalMsg([]byte{})
	assert.True(t, err != nil)

	ed := EncryptedData{Nonce: []byte("n"), EncryptedData: []byte("d")}
	b, err := ed.MarshalMsg(nil)
	assert.Nil(t, err)
	_, err = cd.UnmarshalMsg(b)
	assert.True(t, err != nil)

	cd = CompressedData{CompressionType: 42, RawData: []byte("x")}
	b, err = cd.MarshalMsg(nil)
	assert.Nil(t, err)
	_, err = (&CompressingCodec{}).DecodeBytes(b, nil)
	assert.Equal(t, err, ErrUnknownCompression)
}

func TestEnvelopeDecode(t *testing.T) {
	t.Parallel()
	ed := EncryptedData{Nonce: []byte("nonce"), EncryptedData: []byte("data")}
	b, err := ed.MarshalMsg(nil)
	assert.Nil(t, err)
	b = append(b, 7)
	var ed2 EncryptedData
	rest, err := ed2.UnmarshalMsg(b)
	assert.Nil(t, err)
	assert.Equal(t, ed2, ed)
	assert.Equal(t, rest, []byte{7})

	cd := CompressedData{CompressionType: CompressionType_SNAPPY, RawData: []byte("raw")}
	b, err = cd.MarshalMsg(nil)
	assert.Nil(t, err)
	var cd2 CompressedData
	rest, err = cd2.UnmarshalMsg(b)
	assert.Nil(t, err)
	assert.Equal(t, cd2, cd)
	assert.Equal(t, len(rest), 0)
}
