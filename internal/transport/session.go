package transport

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// Session wraps a single live FTP connection plus the parameters needed
// to rebuild it. At most one physical connection is active at a time;
// a reconnect swaps it out behind the handle, so callers must always go
// through Session methods and never retain a Conn across operations.
type Session struct {
	cfg  Config
	conn Conn

	lastKeepalive time.Time
	uploadsSince  int
}

// Dial connects and logs in. The caller must Close the session on every
// exit path.
func Dial(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	conn, err := cfg.Dial(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:           cfg,
		conn:          conn,
		lastKeepalive: time.Now(),
	}, nil
}

// Close terminates the connection. Safe to call more than once.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Quit()
	s.conn = nil
	return err
}

// rootPath returns the absolute remote root directory.
func (s *Session) rootPath() string {
	return "/" + strings.Trim(s.cfg.Root, "/")
}

// live returns the current connection, redialing first when a failed
// reconnect left the session without one. The replacement is sitting in
// the remote root before any caller sees it, so a dead link degrades to
// per-operation errors instead of a poisoned session.
func (s *Session) live() (Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.cfg.Dial(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}
	if err := conn.ChangeDir(s.rootPath()); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("restore working dir %s: %w", s.rootPath(), err)
	}
	s.conn = conn
	return conn, nil
}

// EnsureRoot walks the configured remote root component by component
// from /, entering each directory and creating it first when entry
// fails. Creation losing a race to another client is fine: the second
// ChangeDir decides.
func (s *Session) EnsureRoot() error {
	conn, err := s.live()
	if err != nil {
		return err
	}
	if err := conn.ChangeDir("/"); err != nil {
		return fmt.Errorf("enter /: %w", err)
	}
	for _, part := range strings.Split(strings.Trim(s.cfg.Root, "/"), "/") {
		if part == "" {
			continue
		}
		if err := conn.ChangeDir(part); err == nil {
			continue
		}
		if err := conn.MakeDir(part); err != nil {
			slog.Debug("mkdir failed, retrying entry", "dir", part, "error", err)
		}
		if err := conn.ChangeDir(part); err != nil {
			return fmt.Errorf("enter remote dir %s: %w", part, err)
		}
	}
	return nil
}

// Upload stores the local file at remotePath (relative to the remote
// root). On a connection-class failure it closes the broken connection,
// waits, redials with the original parameters, restores the working
// directory, and retries — up to the configured attempt budget. Any
// other failure, or the final attempt's, propagates.
func (s *Session) Upload(localPath, remotePath string) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		err := s.stor(localPath, remotePath)
		if err == nil {
			s.uploadsSince++
			return nil
		}
		lastErr = err

		if !IsConnError(err) || attempt >= s.cfg.Attempts {
			return lastErr
		}

		slog.Warn("connection lost, reconnecting",
			"path", remotePath, "attempt", attempt, "error", err)
		if rerr := s.reconnect(); rerr != nil {
			return rerr
		}
	}
}

func (s *Session) stor(localPath, remotePath string) error {
	conn, err := s.live()
	if err != nil {
		return err
	}

	f, err := s.cfg.Fs.Open(filepath.FromSlash(localPath))
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	if err := conn.Stor(remotePath, f); err != nil {
		return fmt.Errorf("store %s: %w", remotePath, err)
	}
	return nil
}

// reconnect discards the broken connection and replaces it atomically
// from the caller's perspective: by the time it returns nil the new
// connection is live and sitting in the remote root. On failure the
// session is left without a connection and the next operation redials
// through live.
func (s *Session) reconnect() error {
	if s.conn != nil {
		_ = s.conn.Quit() // best effort, the link is already dead
		s.conn = nil
	}

	time.Sleep(s.cfg.Backoff)

	_, err := s.live()
	return err
}

// Keepalive issues a no-op when more than 30 seconds have passed since
// the last one or after every 10th successful upload, whichever comes
// first. Failures are swallowed: the next real operation will surface a
// genuine connection loss through the retry policy.
func (s *Session) Keepalive() {
	if s.conn == nil {
		// Nothing to keep alive; the next real operation redials.
		return
	}
	if time.Since(s.lastKeepalive) < keepaliveInterval && s.uploadsSince < keepaliveEvery {
		return
	}
	if err := s.conn.NoOp(); err != nil {
		slog.Debug("keepalive failed", "error", err)
	}
	s.lastKeepalive = time.Now()
	s.uploadsSince = 0
}

// List returns the immediate children of path (one level, fetched
// fresh, never cached).
func (s *Session) List(path string) ([]Entry, error) {
	conn, err := s.live()
	if err != nil {
		return nil, err
	}
	return conn.List(path)
}

// ChangeDir changes the remote working directory.
func (s *Session) ChangeDir(path string) error {
	conn, err := s.live()
	if err != nil {
		return err
	}
	return conn.ChangeDir(path)
}

// MakeDir creates a single remote directory. Already-exists failures
// are the caller's to ignore.
func (s *Session) MakeDir(path string) error {
	conn, err := s.live()
	if err != nil {
		return err
	}
	return conn.MakeDir(path)
}

// Delete removes a single remote file.
func (s *Session) Delete(path string) error {
	conn, err := s.live()
	if err != nil {
		return err
	}
	return conn.Delete(path)
}

// RemoveDirRecur removes a remote directory and everything beneath it.
func (s *Session) RemoveDirRecur(path string) error {
	conn, err := s.live()
	if err != nil {
		return err
	}
	return conn.RemoveDirRecur(path)
}
