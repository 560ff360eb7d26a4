// Package transport owns the FTP control connection for a deployment
// and re-establishes it transparently when the link drops mid-transfer.
package transport

import (
	"io"
	"time"

	"github.com/spf13/afero"
)

// EntryKind classifies a remote directory listing entry.
type EntryKind int

const (
	File EntryKind = iota + 1
	Dir
)

// Entry is one remote directory entry at a single path level.
type Entry struct {
	Name string
	Kind EntryKind
}

// Conn is the subset of FTP client operations the deploy engine uses.
// The production implementation wraps a logged-in jlaffaye/ftp
// connection; tests substitute fakes through Config.Dial.
type Conn interface {
	ChangeDir(path string) error
	MakeDir(path string) error
	Delete(path string) error
	RemoveDirRecur(path string) error
	List(path string) ([]Entry, error)
	Stor(path string, r io.Reader) error
	NoOp() error
	Quit() error
}

// DialFunc establishes a logged-in connection from connection
// parameters. The session calls it once at startup and again on every
// reconnect.
type DialFunc func(cfg Config) (Conn, error)

// Config carries the connection parameters needed to establish, and
// later reconstruct, an equivalent FTP session.
type Config struct {
	Host     string
	Port     int // 0 = default (21)
	User     string
	Password string
	Root     string // remote root path, posix-style
	TLS      bool   // explicit FTPS on the control connection

	Timeout  time.Duration // per-operation timeout; 0 = default (60s)
	Attempts int           // upload attempts; 0 = default (3)
	Backoff  time.Duration // wait before reconnecting; 0 = default (2s)

	Debug io.Writer // protocol trace sink; nil = off
	Dial  DialFunc  // nil = real FTP dial
	Fs    afero.Fs  // local filesystem for uploads; nil = OS
}

const (
	// DefaultPort is the standard FTP control port.
	DefaultPort = 21

	defaultTimeout  = 60 * time.Second
	defaultAttempts = 3
	defaultBackoff  = 2 * time.Second

	keepaliveInterval = 30 * time.Second
	keepaliveEvery    = 10
)

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Attempts == 0 {
		c.Attempts = defaultAttempts
	}
	if c.Backoff == 0 {
		c.Backoff = defaultBackoff
	}
	if c.Dial == nil {
		c.Dial = dialFTP
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}
	return c
}
