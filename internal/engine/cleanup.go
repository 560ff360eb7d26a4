package engine

import (
	"fmt"

	"github.com/bamsammich/siteup/internal/event"
	"github.com/bamsammich/siteup/internal/transport"
)

// ItemError records a single non-fatal per-item failure.
type ItemError struct {
	Path string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// cleanupRemote deletes the immediate children of the remote root that
// are not protected by an exclusion rule, leaving a clean base for the
// upload pass. A failure to list the directory is fatal; a failure to
// delete a single item is collected and the loop continues, so one
// locked remote file cannot abort the whole deployment.
func (d *deployment) cleanupRemote(sess *transport.Session) ([]ItemError, error) {
	entries, err := sess.List(".")
	if err != nil {
		return nil, fmt.Errorf("list remote dir: %w", err)
	}

	var failed []ItemError
	for _, entry := range entries {
		if d.cfg.Exclusions.Excluded(entry.Name) {
			d.log.Debug("preserving excluded remote entry", "name", entry.Name)
			d.emit(event.Event{Type: event.DeleteSkipped, Path: entry.Name})
			continue
		}

		var delErr error
		if entry.Kind == transport.Dir {
			delErr = sess.RemoveDirRecur(entry.Name)
		} else {
			delErr = sess.Delete(entry.Name)
		}
		if delErr != nil {
			d.log.Warn("failed to delete remote entry", "name", entry.Name, "error", delErr)
			d.emit(event.Event{Type: event.DeleteFailed, Path: entry.Name, Error: delErr})
			d.cfg.Stats.AddDeleteFailed(1)
			failed = append(failed, ItemError{Path: entry.Name, Err: delErr})
			continue
		}

		d.log.Debug("deleted remote entry", "name", entry.Name)
		d.emit(event.Event{Type: event.FileDeleted, Path: entry.Name})
		d.cfg.Stats.AddItemsDeleted(1)
	}

	return failed, nil
}
