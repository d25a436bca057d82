/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 11 10:20:03 2019 mstenber
 * Last modified: Thu Feb 14 13:22:40 2019 mstenber
 * Edit time:     84 min
 *
 */

// protocol package implements the JBOD wire protocol.
//
// Packet is HeaderLen bytes of header, optionally followed by exactly
// one jbod.BlockSize block:
//
// - 4 bytes: operation word, big-endian
//
// - 1 byte: info; bit 0 = failure (responses only), bit 1 = block
// follows
//
// Requests carry a block only for WRITE_BLOCK; responses carry one
// whenever the device returns data (READ_BLOCK, SIGN_BLOCK).
package protocol

import (
	"encoding/binary"
	"io"

	"github.com/fingon/go-jbod/jbod"
	"github.com/pkg/errors"
)

const HeaderLen = 5

const PacketLen = HeaderLen + jbod.BlockSize

var (
	ErrNotConnected  = errors.New("not connected")
	ErrShortBlock    = errors.New("block shorter than block size")
	ErrShortWrite    = errors.New("short write")
	ErrServerFailure = errors.New("server reported failure")
	ErrOpMismatch    = errors.New("response operation does not match request")
)

func encodePacket(op jbod.Op, info uint8, block []byte) ([]byte, error) {
	n := HeaderLen
	if info&jbod.InfoHasBlock != 0 {
		if len(block) < jbod.BlockSize {
			return nil, ErrShortBlock
		}
		n = PacketLen
	}
	buf := make([]byte, n)
	binary.BigEndian.PutUint32(buf, uint32(op))
	buf[4] = info
	if n > HeaderLen {
		copy(buf[HeaderLen:], block[:jbod.BlockSize])
	}
	return buf, nil
}

func decodePacket(r io.Reader) (op jbod.Op, info uint8, block []byte, err error) {
	var header [HeaderLen]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		err = errors.Wrap(err, "reading header")
		return
	}
	op = jbod.Op(binary.BigEndian.Uint32(header[:]))
	info = header[4]
	if info&jbod.InfoHasBlock != 0 {
		block = make([]byte, jbod.BlockSize)
		if _, err = io.ReadFull(r, block); err != nil {
			err = errors.Wrap(err, "reading block")
			return
		}
	}
	return
}

// EncodeRequest builds request packet for op. block must be present
// (and at least jbod.BlockSize long) iff op is WRITE_BLOCK; it is
// ignored otherwise.
func EncodeRequest(op jbod.Op, block []byte) ([]byte, error) {
	var info uint8
	if op.HasPayload() {
		info = jbod.InfoHasBlock
	}
	return encodePacket(op, info, block)
}

// DecodeRequest reads one request packet from r.
func DecodeRequest(r io.Reader) (op jbod.Op, info uint8, block []byte, err error) {
	return decodePacket(r)
}

// EncodeResponse builds response packet. Block is included (and the
// info bit set) iff block is non-nil.
func EncodeResponse(op jbod.Op, info uint8, block []byte) ([]byte, error) {
	info &^= jbod.InfoHasBlock
	if block != nil {
		info |= jbod.InfoHasBlock
	}
	return encodePacket(op, info, block)
}

// DecodeResponse reads one response packet from r.
func DecodeResponse(r io.Reader) (op jbod.Op, info uint8, block []byte, err error) {
	return decodePacket(r)
}

// WritePacket writes all of buf to w; any write that makes no
// progress is a failure.
func WritePacket(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return errors.Wrap(err, "writing packet")
		}
		if n <= 0 {
			return ErrShortWrite
		}
		buf = buf[n:]
	}
	return nil
}
