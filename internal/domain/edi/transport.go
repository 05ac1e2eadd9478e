package edi

import (
	"context"
	"fmt"
	"net"
	"path"
	"strconv"
)

// Endpoint carries everything a transport needs to open a session
type Endpoint struct {
	Protocol Protocol
	Host     string
	Port     int
	Login    string
	Password string
	BasePath string
}

// Address returns host:port
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String renders the endpoint without credentials
func (e Endpoint) String() string {
	return fmt.Sprintf("%s://%s@%s", e.Protocol, e.Login, e.Address())
}

// ResolveDir maps an action directory onto the remote tree.
// Absolute directories are used as-is, relative ones hang off BasePath.
func (e Endpoint) ResolveDir(dir string) string {
	base := e.BasePath
	if base == "" {
		base = "/"
	}
	if dir == "" {
		return path.Clean(base)
	}
	if path.IsAbs(dir) {
		return path.Clean(dir)
	}
	return path.Join(base, dir)
}

// TransportGateway opens sessions against a remote file server.
// Implementations pick their strategy (FTP, SFTP) when constructed.
type TransportGateway interface {
	Connect(ctx context.Context, endpoint Endpoint) (TransportSession, error)
}

// TransportSession is an open connection to a remote file server.
// Every method is blocking; callers must Close the session on every path.
type TransportSession interface {
	ChangeDir(dir string) error
	Put(remoteName string, data []byte) error
	Get(remoteName string) ([]byte, error)
	List() ([]string, error)
	Rename(from, to string) error
	Close() error
}
