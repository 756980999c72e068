package console

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Server exposes the operator console over a Unix socket instead of
// stdin/stdout. The daemon drives its whole control flow from one logical
// thread, so the server hands out exactly one connection at a time: the next
// client is accepted only after the current one disconnects.
type Server struct {
	listener net.Listener
	path     string
}

// Listen creates the socket, replacing any stale file from a previous run.
func Listen(path string) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("console: create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("console: remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("console: listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("console: set socket permissions: %w", err)
	}

	return &Server{listener: listener, path: path}, nil
}

// Accept blocks until the next client attaches and returns its connection.
func (s *Server) Accept() (net.Conn, error) {
	conn, err := s.listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("console: accept: %w", err)
	}
	return conn, nil
}

// Close tears the socket down.
func (s *Server) Close() error {
	err := s.listener.Close()
	os.Remove(s.path)
	return err
}
