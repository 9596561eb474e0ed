// Package rpcserver accepts TCP connections carrying length-prefixed
// wire.Message frames and hands each decoded message to a dispatcher. One
// goroutine serves each connection; messages on a connection are processed
// sequentially, replies are written back in request order.
package rpcserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/curviron/master/internal/logger"
	"github.com/curviron/master/internal/rpc/wire"
)

// Dispatcher is the subset of *dispatch.Dispatcher the server depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *wire.Message, remoteAddr string) *wire.Message
}

// Server listens on a single TCP address and forwards every decoded
// message to a Dispatcher.
type Server struct {
	addr       string
	dispatcher Dispatcher

	listener net.Listener
	ready    chan struct{}
	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// New builds a Server bound to addr. It does not start listening until
// Serve is called.
func New(addr string, dispatcher Dispatcher) *Server {
	return &Server{
		addr:       addr,
		dispatcher: dispatcher,
		ready:      make(chan struct{}),
		shutdown:   make(chan struct{}),
	}
}

// Addr blocks until the listener is bound, then returns its address. Useful
// in tests that bind to ":0" and need the chosen port.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.listener.Addr()
}

// Serve opens the listener and blocks accepting connections until ctx is
// cancelled or Stop is called.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	close(s.ready)

	logger.Info("rpc server listening", "address", s.addr)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}(conn)
	}
}

// Stop closes the listener, causing Serve's accept loop to return.
// In-flight connections are allowed to finish.
func (s *Server) Stop() {
	s.once.Do(func() {
		close(s.shutdown)
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	remoteAddr := conn.RemoteAddr().String()

	for {
		msg, err := wire.Decode(conn)
		if err != nil {
			if err != io.EOF {
				logger.Debug("rpc connection read error", "client", remoteAddr, "error", err)
			}
			return
		}

		reply := s.dispatcher.Dispatch(ctx, msg, remoteAddr)
		if err := reply.Encode(conn); err != nil {
			logger.Debug("rpc connection write error", "client", remoteAddr, "error", err)
			return
		}
	}
}
