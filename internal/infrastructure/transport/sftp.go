package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/erp/edisync/internal/domain/edi"
)

// SFTPStrategy opens SFTP sessions over SSH with password authentication
type SFTPStrategy struct {
	config Config
}

// Ensure SFTPStrategy implements edi.TransportGateway
var _ edi.TransportGateway = (*SFTPStrategy)(nil)

// NewSFTPStrategy creates the SFTP strategy
func NewSFTPStrategy(cfg Config) *SFTPStrategy {
	return &SFTPStrategy{config: cfg}
}

// Connect dials the endpoint, authenticates and starts the sftp subsystem.
// The session starts in the endpoint's base path.
func (s *SFTPStrategy) Connect(ctx context.Context, endpoint edi.Endpoint) (edi.TransportSession, error) {
	hostKeyCallback, err := s.hostKeyCallback()
	if err != nil {
		return nil, wrapErr("load known hosts", err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            endpoint.Login,
		Auth:            []ssh.AuthMethod{ssh.Password(endpoint.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.config.DialTimeout,
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.config.DialTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", endpoint.Address())
	if err != nil {
		return nil, wrapErr("dial "+endpoint.Address(), err)
	}

	sshClient, err := sshHandshake(conn, endpoint.Address(), clientConfig, s.config.DialTimeout)
	if err != nil {
		_ = conn.Close()
		return nil, wrapErr("ssh handshake", err)
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, wrapErr("start sftp subsystem", err)
	}

	session := newSFTPSession(client, sshClient)
	if err := session.ChangeDir(endpoint.ResolveDir("")); err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}

// sshHandshake runs the SSH handshake on conn under a deadline.
// ClientConfig.Timeout only bounds ssh.Dial, not NewClientConn.
func sshHandshake(conn net.Conn, addr string, cfg *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = sshConn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (s *SFTPStrategy) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if s.config.KnownHostsFile == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	return knownhosts.New(s.config.KnownHostsFile)
}

// sftpSession tracks its own working directory; the sftp protocol has none
type sftpSession struct {
	client *sftp.Client
	closer io.Closer
	cwd    string
}

var _ edi.TransportSession = (*sftpSession)(nil)

func newSFTPSession(client *sftp.Client, closer io.Closer) *sftpSession {
	return &sftpSession{client: client, closer: closer, cwd: "/"}
}

func (s *sftpSession) resolve(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Join(s.cwd, name)
}

func (s *sftpSession) ChangeDir(dir string) error {
	target := s.resolve(dir)
	info, err := s.client.Stat(target)
	if err != nil {
		return wrapErr("cd "+target, err)
	}
	if !info.IsDir() {
		return wrapErr("cd "+target, fmt.Errorf("not a directory"))
	}
	s.cwd = target
	return nil
}

func (s *sftpSession) Put(remoteName string, data []byte) error {
	target := s.resolve(remoteName)
	f, err := s.client.Create(target)
	if err != nil {
		return wrapErr("put "+target, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return wrapErr("put "+target, err)
	}
	return wrapErr("put "+target, f.Close())
}

func (s *sftpSession) Get(remoteName string) ([]byte, error) {
	target := s.resolve(remoteName)
	f, err := s.client.Open(target)
	if err != nil {
		return nil, wrapErr("get "+target, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, wrapErr("get "+target, err)
	}
	return data, nil
}

func (s *sftpSession) List() ([]string, error) {
	entries, err := s.client.ReadDir(s.cwd)
	if err != nil {
		return nil, wrapErr("list "+s.cwd, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *sftpSession) Rename(from, to string) error {
	src, dst := s.resolve(from), s.resolve(to)
	return wrapErr(fmt.Sprintf("rename %s to %s", src, dst), s.client.Rename(src, dst))
}

func (s *sftpSession) Close() error {
	err := s.client.Close()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
