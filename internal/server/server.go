// Package server runs the FormX HTTP API with a bounded number of connections.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
)

// DefaultMaxConns caps concurrent connections when none is configured.
const DefaultMaxConns = 100

type Server struct {
	addr     string
	handler  http.Handler
	maxConns int
	cert     *tls.Certificate
	log      logrus.FieldLogger

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// New creates a server for handler on addr. maxConns <= 0 uses DefaultMaxConns.
func New(addr string, handler http.Handler, maxConns int, log logrus.FieldLogger) *Server {
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{addr: addr, handler: handler, maxConns: maxConns, log: log}
}

// SetCertificate enables TLS with the given certificate.
func (s *Server) SetCertificate(cert tls.Certificate) {
	s.cert = &cert
}

// LoadCertificate reads a PEM certificate and key pair and enables TLS.
func (s *Server) LoadCertificate(certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}
	s.SetCertificate(cert)
	return nil
}

// Listen binds the configured address and serves until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Listen() error {
	var listener net.Listener
	var err error

	if s.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*s.cert}, MinVersion: tls.VersionTLS12}
		listener, err = tls.Listen("tcp", s.addr, config)
	} else {
		listener, err = net.Listen("tcp", s.addr)
	}
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = l
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"addr":      l.Addr().String(),
		"tls":       s.cert != nil,
		"max_conns": s.maxConns,
	}).Info("http server listening")

	err := srv.Serve(netutil.LimitListener(l, s.maxConns))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the bound address, nil before the server is listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
