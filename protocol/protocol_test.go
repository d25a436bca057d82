/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 11 12:10:44 2019 mstenber
 * Last modified: Thu Feb 14 13:48:01 2019 mstenber
 * Edit time:     61 min
 *
 */

package protocol

import (
	"bytes"
	"net"
	"testing"

	"github.com/fingon/go-jbod/jbod"
	"github.com/pkg/errors"
	"github.com/stvp/assert"
)

func testBlock(seed byte) []byte {
	b := make([]byte, jbod.BlockSize)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func TestEncodeRequest(t *testing.T) {
	t.Parallel()
	b, err := EncodeRequest(jbod.NewOp(0x12, 3, jbod.CmdSeekToBlock), nil)
	assert.Nil(t, err)
	assert.Equal(t, b, []byte{0, 0, 0x33, 0x12, 0})

	block := testBlock(1)
	b, err = EncodeRequest(jbod.NewOp(0, 0, jbod.CmdWriteBlock), block)
	assert.Nil(t, err)
	assert.Equal(t, len(b), PacketLen)
	assert.Equal(t, b[:HeaderLen], []byte{0, 0, 0x50, 0, 2})
	assert.Equal(t, b[HeaderLen:], block)

	// Payload is not sent for other commands even if given
	b, err = EncodeRequest(jbod.NewOp(0, 0, jbod.CmdReadBlock), block)
	assert.Nil(t, err)
	assert.Equal(t, len(b), HeaderLen)

	_, err = EncodeRequest(jbod.NewOp(0, 0, jbod.CmdWriteBlock), nil)
	assert.Equal(t, err, ErrShortBlock)
	_, err = EncodeRequest(jbod.NewOp(0, 0, jbod.CmdWriteBlock), block[:10])
	assert.Equal(t, err, ErrShortBlock)
}

func TestLoopback(t *testing.T) {
	t.Parallel()
	block := testBlock(7)
	for cmd := jbod.CmdMount; cmd < jbod.NumCommands; cmd++ {
		op := jbod.NewOp(42, 5, cmd)
		req, err := EncodeRequest(op, block)
		assert.Nil(t, err)
		op2, info, b2, err := DecodeRequest(bytes.NewReader(req))
		assert.Nil(t, err)
		assert.Equal(t, op2, op)
		if cmd == jbod.CmdWriteBlock {
			assert.Equal(t, info, jbod.InfoHasBlock)
			assert.Equal(t, b2, block)
		} else {
			assert.Equal(t, info, uint8(0))
			assert.True(t, b2 == nil)
		}

		resp, err := EncodeResponse(op2, jbod.InfoFailure, b2)
		assert.Nil(t, err)
		op3, info, b3, err := DecodeResponse(bytes.NewReader(resp))
		assert.Nil(t, err)
		assert.Equal(t, op3, op)
		assert.True(t, info&jbod.InfoFailure != 0)
		assert.Equal(t, info&jbod.InfoHasBlock != 0, b2 != nil)
		assert.Equal(t, b3, b2)
	}
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()
	_, _, _, err := DecodeResponse(bytes.NewReader([]byte{0, 0, 0}))
	assert.True(t, err != nil)

	// header says block follows, but it is cut short
	resp, err := EncodeResponse(jbod.NewOp(0, 0, jbod.CmdReadBlock), 0, testBlock(0))
	assert.Nil(t, err)
	_, _, _, err = DecodeResponse(bytes.NewReader(resp[:HeaderLen+100]))
	assert.True(t, err != nil)
}

// serve answers requests on conn with respond until it fails.
func serve(conn net.Conn, respond func(op jbod.Op, block []byte) (jbod.Op, uint8, []byte)) {
	defer conn.Close()
	for {
		op, _, block, err := DecodeRequest(conn)
		if err != nil {
			return
		}
		rop, info, rblock := respond(op, block)
		resp, err := EncodeResponse(rop, info, rblock)
		if err != nil {
			return
		}
		if WritePacket(conn, resp) != nil {
			return
		}
	}
}

func TestClientOperation(t *testing.T) {
	t.Parallel()
	c1, c2 := net.Pipe()
	stored := make([]byte, jbod.BlockSize)
	go serve(c2, func(op jbod.Op, block []byte) (jbod.Op, uint8, []byte) {
		switch op.Command() {
		case jbod.CmdWriteBlock:
			copy(stored, block)
		case jbod.CmdReadBlock:
			if op.Block() == 9 {
				return op + 1, 0, stored
			}
			return op, 0, stored
		case jbod.CmdSignBlock:
			return op, jbod.InfoFailure, stored
		case jbod.CmdUnmount:
			return op, jbod.InfoFailure, nil
		case jbod.CmdSeekToBlock:
			return op + 1, 0, nil
		}
		return op, 0, nil
	})
	c := NewClient(c1)
	defer c.Disconnect()
	assert.True(t, c.Connected())

	assert.Nil(t, c.Operation(jbod.NewOp(0, 0, jbod.CmdMount), nil))

	block := testBlock(3)
	assert.Nil(t, c.Operation(jbod.NewOp(0, 0, jbod.CmdWriteBlock), block))

	got := make([]byte, jbod.BlockSize)
	assert.Nil(t, c.Operation(jbod.NewOp(0, 0, jbod.CmdReadBlock), got))
	assert.Equal(t, got, block)

	err := c.Operation(jbod.NewOp(0, 0, jbod.CmdUnmount), nil)
	assert.Equal(t, errors.Cause(err), ErrServerFailure)

	err = c.Operation(jbod.NewOp(1, 0, jbod.CmdSeekToBlock), nil)
	assert.Equal(t, errors.Cause(err), ErrOpMismatch)

	// rejected responses leave the caller's buffer alone
	buf := testBlock(7)
	err = c.Operation(jbod.NewOp(0, 0, jbod.CmdSignBlock), buf)
	assert.Equal(t, errors.Cause(err), ErrServerFailure)
	assert.Equal(t, buf, testBlock(7))
	err = c.Operation(jbod.NewOp(9, 0, jbod.CmdReadBlock), buf)
	assert.Equal(t, errors.Cause(err), ErrOpMismatch)
	assert.Equal(t, buf, testBlock(7))
}

func TestClientNotConnected(t *testing.T) {
	t.Parallel()
	var c Client
	assert.True(t, !c.Connected())
	assert.Equal(t, c.Operation(jbod.NewOp(0, 0, jbod.CmdMount), nil), ErrNotConnected)
	c.Disconnect()
}

func TestClientConnectionLost(t *testing.T) {
	t.Parallel()
	c1, c2 := net.Pipe()
	c2.Close()
	c := NewClient(c1)
	defer c.Disconnect()
	err := c.Operation(jbod.NewOp(0, 0, jbod.CmdMount), nil)
	assert.True(t, err != nil)
}

func TestClientConnect(t *testing.T) {
	t.Parallel()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.Nil(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		serve(conn, func(op jbod.Op, block []byte) (jbod.Op, uint8, []byte) {
			return op, 0, nil
		})
	}()
	addr := l.Addr().(*net.TCPAddr)
	var c Client
	assert.Nil(t, c.Connect("127.0.0.1", uint16(addr.Port)))
	defer c.Disconnect()
	assert.Nil(t, c.Operation(jbod.NewOp(0, 0, jbod.CmdMount), nil))
}
