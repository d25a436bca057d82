/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2018 Markus Stenberg
 *
 * Created:       Tue Jan 16 14:38:35 2018 mstenber
 * Last modified: Fri Feb 15 17:02:18 2019 mstenber
 * Edit time:     171 min
 *
 */

// server package exposes a JBOD device over the wire protocol. Every
// connection gets its own goroutine; operations from all of them are
// executed one at a time against the shared device.
package server

import (
	"io"
	"log"
	"net"

	"github.com/fingon/go-jbod/jbod"
	"github.com/fingon/go-jbod/mlog"
	"github.com/fingon/go-jbod/protocol"
	"github.com/fingon/go-jbod/util"
	"github.com/pkg/errors"
)

type Server struct {
	Family, Address string

	// Device executes the operations (typically *device.Device)
	Device protocol.Transport

	// MaxConnections bounds concurrently served connections; further
	// ones wait in the accept queue. Default is util.DefaultPerCPU
	// per CPU.
	MaxConnections int

	listener net.Listener
	limiter  util.ParallelLimiter
	wg       util.SimpleWaitGroup
	lock     util.MutexLocked // serializes Device
	connLock util.MutexLocked
	conns    map[net.Conn]bool
	closed   bool
}

func (self Server) Init() (*Server, error) {
	if self.Family == "" {
		self.Family = "tcp"
	}
	lis, err := net.Listen(self.Family, self.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s %s", self.Family, self.Address)
	}
	log.Printf("Server at %s %s", self.Family, lis.Addr())
	self.listener = lis
	self.limiter.LimitTotal = self.MaxConnections
	self.conns = make(map[net.Conn]bool)
	s := &self
	s.wg.Go(s.acceptLoop)
	return s, nil
}

// Addr returns the address actually listened on.
func (self *Server) Addr() net.Addr {
	return self.listener.Addr()
}

// Close stops listening, drops the connections and waits for the
// handlers to finish.
func (self *Server) Close() {
	self.connLock.Lock()
	self.closed = true
	for conn := range self.conns {
		conn.Close()
	}
	self.connLock.Unlock()
	self.listener.Close()
	self.wg.Wait()
}

func (self *Server) track(conn net.Conn, add bool) bool {
	defer self.connLock.Locked()()
	if !add {
		delete(self.conns, conn)
		return true
	}
	if self.closed {
		return false
	}
	self.conns[conn] = true
	return true
}

func (self *Server) acceptLoop() {
	for {
		conn, err := self.listener.Accept()
		if err != nil {
			mlog.Printf2("server/server", "s.acceptLoop done: %v", err)
			return
		}
		if !self.track(conn, true) {
			conn.Close()
			return
		}
		unlock := self.limiter.Limited()
		self.wg.Go(func() {
			defer unlock()
			defer self.track(conn, false)
			defer conn.Close()
			self.handle(conn)
		})
	}
}

func (self *Server) execute(op jbod.Op, block []byte) error {
	defer self.lock.Locked()()
	return self.Device.Operation(op, block)
}

// handle serves requests on conn until it fails or is closed.
func (self *Server) handle(conn net.Conn) {
	mlog.Printf2("server/server", "s.handle %v", conn.RemoteAddr())
	for {
		op, _, block, err := protocol.DecodeRequest(conn)
		if err != nil {
			if errors.Cause(err) != io.EOF {
				mlog.Printf2("server/server", " receive failed: %v", err)
			}
			return
		}
		cmd := op.Command()
		returnsBlock := cmd == jbod.CmdReadBlock || cmd == jbod.CmdSignBlock
		if returnsBlock {
			block = make([]byte, jbod.BlockSize)
		}
		var info uint8
		err = self.execute(op, block)
		if err != nil {
			mlog.Printf2("server/server", " %v failed: %v", op, err)
			info = jbod.InfoFailure
		}
		if err != nil || !returnsBlock {
			block = nil
		}
		resp, err := protocol.EncodeResponse(op, info, block)
		if err != nil {
			log.Panic(err)
		}
		if err = protocol.WritePacket(conn, resp); err != nil {
			mlog.Printf2("server/server", " send failed: %v", err)
			return
		}
	}
}
