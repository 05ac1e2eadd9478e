package transport

import (
	"bytes"
	"context"
	"io"

	"github.com/jlaffaye/ftp"

	"github.com/erp/edisync/internal/domain/edi"
)

// FTPStrategy opens plain FTP sessions
type FTPStrategy struct {
	config Config
}

// Ensure FTPStrategy implements edi.TransportGateway
var _ edi.TransportGateway = (*FTPStrategy)(nil)

// NewFTPStrategy creates the FTP strategy
func NewFTPStrategy(cfg Config) *FTPStrategy {
	return &FTPStrategy{config: cfg}
}

// Connect dials, logs in and moves to the endpoint's base path
func (s *FTPStrategy) Connect(ctx context.Context, endpoint edi.Endpoint) (edi.TransportSession, error) {
	conn, err := ftp.Dial(endpoint.Address(),
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(s.config.DialTimeout),
		ftp.DialWithDisabledEPSV(s.config.DisableEPSV),
	)
	if err != nil {
		return nil, wrapErr("dial "+endpoint.Address(), err)
	}

	if err := conn.Login(endpoint.Login, endpoint.Password); err != nil {
		_ = conn.Quit()
		return nil, wrapErr("login", err)
	}

	session := &ftpSession{conn: conn}
	if err := session.ChangeDir(endpoint.ResolveDir("")); err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}

type ftpSession struct {
	conn *ftp.ServerConn
}

var _ edi.TransportSession = (*ftpSession)(nil)

func (s *ftpSession) ChangeDir(dir string) error {
	return wrapErr("cd "+dir, s.conn.ChangeDir(dir))
}

func (s *ftpSession) Put(remoteName string, data []byte) error {
	return wrapErr("put "+remoteName, s.conn.Stor(remoteName, bytes.NewReader(data)))
}

func (s *ftpSession) Get(remoteName string) ([]byte, error) {
	resp, err := s.conn.Retr(remoteName)
	if err != nil {
		return nil, wrapErr("get "+remoteName, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, wrapErr("get "+remoteName, err)
	}
	return data, nil
}

func (s *ftpSession) List() ([]string, error) {
	entries, err := s.conn.List("")
	if err != nil {
		return nil, wrapErr("list", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type == ftp.EntryTypeFile {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}

func (s *ftpSession) Rename(from, to string) error {
	return wrapErr("rename "+from+" to "+to, s.conn.Rename(from, to))
}

func (s *ftpSession) Close() error {
	return s.conn.Quit()
}
