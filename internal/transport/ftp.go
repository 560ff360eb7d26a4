package transport

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/jlaffaye/ftp"
)

// Compile-time interface check.
var _ Conn = (*ftpConn)(nil)

// dialFTP establishes and logs in a real FTP connection. Used as the
// default Config.Dial.
func dialFTP(cfg Config) (Conn, error) {
	opts := []ftp.DialOption{
		ftp.DialWithTimeout(cfg.Timeout),
	}
	if cfg.TLS {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}))
	}
	if cfg.Debug != nil {
		opts = append(opts, ftp.DialWithDebugOutput(cfg.Debug))
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login %s@%s: %w", cfg.User, cfg.Host, err)
	}

	return &ftpConn{conn: conn}, nil
}

// ftpConn adapts a logged-in jlaffaye/ftp connection to Conn.
type ftpConn struct {
	conn *ftp.ServerConn
}

func (c *ftpConn) ChangeDir(path string) error      { return c.conn.ChangeDir(path) }
func (c *ftpConn) MakeDir(path string) error        { return c.conn.MakeDir(path) }
func (c *ftpConn) Delete(path string) error         { return c.conn.Delete(path) }
func (c *ftpConn) RemoveDirRecur(path string) error { return c.conn.RemoveDirRecur(path) }
func (c *ftpConn) NoOp() error                      { return c.conn.NoOp() }
func (c *ftpConn) Quit() error                      { return c.conn.Quit() }

func (c *ftpConn) Stor(path string, r io.Reader) error {
	return c.conn.Stor(path, r)
}

func (c *ftpConn) List(path string) ([]Entry, error) {
	raw, err := c.conn.List(path)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		// Servers commonly include dot entries in LIST output.
		if e.Name == "." || e.Name == ".." {
			continue
		}
		kind := File
		if e.Type == ftp.EntryTypeFolder {
			kind = Dir
		}
		entries = append(entries, Entry{Name: e.Name, Kind: kind})
	}
	return entries, nil
}
