/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 11 11:02:51 2019 mstenber
 * Last modified: Thu Feb 14 13:30:12 2019 mstenber
 * Edit time:     52 min
 *
 */

package protocol

import (
	"io"
	"net"
	"strconv"

	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/util"
	"github.com/pkg/errors"
)

// Transport executes single JBOD operation synchronously. block is
// the payload for WRITE_BLOCK, and the destination for whatever the
// device returns (READ_BLOCK, SIGN_BLOCK); it may be nil for other
// commands.
type Transport interface {
	Operation(op jbod.Op, block []byte) error
}

// Client is Transport over a stream connection to a JBOD server. It
// is not safe for concurrent use.
type Client struct {
	// Family is the network passed to Dial; "tcp" if unset.
	Family string

	// Dial connects to the server; net.Dial if unset.
	Dial func(network, address string) (net.Conn, error)

	conn io.ReadWriteCloser
}

var _ Transport = &Client{}

// NewClient returns client using an already established connection.
func NewClient(conn io.ReadWriteCloser) *Client {
	return &Client{conn: conn}
}

// Connect connects to the server at address:port, dropping any
// previous connection.
func (self *Client) Connect(address string, port uint16) error {
	mlog.Printf2("protocol/client", "c.Connect %v:%v", address, port)
	self.Disconnect()
	family := self.Family
	if family == "" {
		family = "tcp"
	}
	dial := self.Dial
	if dial == nil {
		dial = net.Dial
	}
	conn, err := dial(family, net.JoinHostPort(address, strconv.Itoa(int(port))))
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	self.conn = conn
	return nil
}

// Disconnect closes the connection, if any.
func (self *Client) Disconnect() {
	if self.conn == nil {
		return
	}
	mlog.Printf2("protocol/client", "c.Disconnect")
	self.conn.Close()
	self.conn = nil
}

func (self *Client) Connected() bool {
	return self.conn != nil
}

// Operation sends op (+ block for WRITE_BLOCK) and waits for the
// response. It fails if not connected, if the packet exchange fails,
// if the server flags failure, or if the echoed op differs from the
// sent one.
func (self *Client) Operation(op jbod.Op, block []byte) error {
	mlog.Printf2("protocol/client", "c.Operation %v", op)
	if self.conn == nil {
		return ErrNotConnected
	}
	req, err := EncodeRequest(op, block)
	if err != nil {
		return errors.Wrapf(err, "encode %v", op)
	}
	if err = WritePacket(self.conn, req); err != nil {
		return errors.Wrapf(err, "send %v", op)
	}
	rop, info, payload, err := DecodeResponse(self.conn)
	if err != nil {
		return errors.Wrapf(err, "receive %v", op)
	}
	if info&jbod.InfoFailure != 0 {
		mlog.Printf2("protocol/client", " failed")
		return errors.Wrapf(ErrServerFailure, "%v", op)
	}
	if rop != op {
		mlog.Printf2("protocol/client", " mismatch %v", rop)
		return errors.Wrapf(ErrOpMismatch, "sent %v got %v", op, rop)
	}
	if payload != nil && block != nil {
		copy(block, payload)
		mlog.Printf2("protocol/client", " block %s", util.HexPrefix(payload, 8))
	}
	return nil
}
