// Package engine drives a deployment end to end: connect, ensure the
// remote root exists, reconcile the remote directory, upload everything
// except the entry document, then publish the entry document last so a
// concurrent reader never observes a half-deployed site.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/bamsammich/siteup/internal/event"
	"github.com/bamsammich/siteup/internal/filter"
	"github.com/bamsammich/siteup/internal/scan"
	"github.com/bamsammich/siteup/internal/stats"
	"github.com/bamsammich/siteup/internal/transport"
)

// DefaultEntry is the well-known name of the site's entry document.
const DefaultEntry = "index.html"

// Config describes one deployment run.
type Config struct {
	Transport  transport.Config
	LocalRoot  string
	Exclusions *filter.Set
	Entry      string // root-level entry document name; "" = index.html
	DryRun     bool

	Fs     afero.Fs // nil = OS
	Events chan<- event.Event
	Stats  *stats.Collector // nil = fresh collector
}

// Result is the outcome of a deployment.
type Result struct {
	Stats           stats.Snapshot
	UploadFailures  []ItemError
	CleanupFailures []ItemError
	Err             error
}

type deployment struct {
	cfg Config
	log *slog.Logger
}

func (d *deployment) emit(e event.Event) {
	if d.cfg.Events == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case d.cfg.Events <- e:
	default:
	}
}

func (d *deployment) phase(name string) {
	d.log.Info("phase started", "phase", name)
	d.emit(event.Event{Type: event.PhaseStarted, Phase: name})
}

// Run executes a deployment, blocking until complete. Per-item failures
// (remote deletes during cleanup, non-entry uploads) are collected in
// the Result and do not fail the run; Result.Err is set only for fatal
// errors, including an entry-document upload failure.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Exclusions == nil {
		cfg.Exclusions = filter.New()
	}
	if cfg.Entry == "" {
		cfg.Entry = DefaultEntry
	}
	cfg.Transport.Fs = cfg.Fs

	// Every line of this run carries the same run id so interleaved
	// deployments can be told apart in aggregated logs.
	log := slog.Default().With("run", uuid.NewString())
	log.Info("deployment starting",
		"local", cfg.LocalRoot,
		"host", cfg.Transport.Host,
		"remote", cfg.Transport.Root)

	d := &deployment{cfg: cfg, log: log}
	res := d.run(ctx)
	res.Stats = cfg.Stats.Snapshot()
	return res
}

func (d *deployment) run(ctx context.Context) Result {
	cfg := d.cfg

	if _, err := cfg.Fs.Stat(cfg.LocalRoot); err != nil {
		return Result{Err: fmt.Errorf("local build root: %w", err)}
	}

	if cfg.DryRun {
		return d.plan()
	}

	d.phase("connect")
	sess, err := transport.Dial(cfg.Transport)
	if err != nil {
		return Result{Err: fmt.Errorf("connect: %w", err)}
	}
	defer sess.Close()

	d.phase("ensure-root")
	if err := sess.EnsureRoot(); err != nil {
		return Result{Err: err}
	}

	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	d.phase("cleanup")
	cleanupFailures, err := d.cleanupRemote(sess)
	if err != nil {
		return Result{CleanupFailures: cleanupFailures, Err: err}
	}

	d.phase("scan")
	entries, err := scan.Tree(cfg.Fs, cfg.LocalRoot, cfg.Exclusions)
	if err != nil {
		return Result{CleanupFailures: cleanupFailures, Err: err}
	}
	cfg.Stats.AddFilesScanned(int64(len(entries)))

	bulk, entryDoc := d.partition(entries)

	if err := ctx.Err(); err != nil {
		return Result{CleanupFailures: cleanupFailures, Err: err}
	}

	d.phase("upload")
	d.ensureDirs(sess, bulk)
	uploadFailures := d.uploadBulk(ctx, sess, bulk)

	res := Result{
		UploadFailures:  uploadFailures,
		CleanupFailures: cleanupFailures,
	}

	// A cancellation mid-bulk leaves the asset set incomplete; publishing
	// the entry document over it would present a broken site as a success.
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	d.phase("publish")
	if entryDoc == nil {
		d.log.Info("no entry document in local tree, nothing to publish", "entry", cfg.Entry)
		return res
	}
	if err := d.uploadOne(sess, *entryDoc); err != nil {
		// A site without a reachable entry point is a failed deployment
		// no matter how many assets landed.
		res.Err = fmt.Errorf("publish entry document %s: %w", entryDoc.Rel, err)
		return res
	}
	d.emit(event.Event{Type: event.EntryPublished, Path: entryDoc.Rel, Size: entryDoc.Size})
	d.log.Info("entry document published", "path", entryDoc.Rel)
	return res
}

// partition splits the scan output into the bulk set and the entry
// document. Only a root-level match counts: a file with the same name
// nested in a subdirectory is an ordinary bulk upload.
func (d *deployment) partition(entries []scan.Entry) (bulk []scan.Entry, entryDoc *scan.Entry) {
	for _, e := range entries {
		if e.Rel == d.cfg.Entry {
			doc := e
			entryDoc = &doc
			continue
		}
		bulk = append(bulk, e)
	}
	return bulk, entryDoc
}

// ensureDirs batch-creates the unique remote parent directories implied
// by the bulk set, shallow-first so parents exist before children.
// Already-exists failures are indistinguishable from create races and
// are ignored; a genuinely missing directory surfaces on the first
// upload into it.
func (d *deployment) ensureDirs(sess *transport.Session, entries []scan.Entry) {
	seen := map[string]bool{}
	var dirs []string
	for _, e := range entries {
		for dir := path.Dir(e.Rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		if err := sess.MakeDir(dir); err != nil {
			d.log.Debug("mkdir remote dir", "dir", dir, "error", err)
			continue
		}
		d.cfg.Stats.AddDirsCreated(1)
	}
}

// uploadBulk transfers every non-entry file best-effort: a single
// file's failure, after the transport's retries, is collected and the
// deployment proceeds over the remaining files.
func (d *deployment) uploadBulk(ctx context.Context, sess *transport.Session, entries []scan.Entry) []ItemError {
	var failed []ItemError
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if err := d.uploadOne(sess, e); err != nil {
			d.log.Warn("upload failed", "path", e.Rel, "error", err)
			d.emit(event.Event{Type: event.FileFailed, Path: e.Rel, Error: err})
			d.cfg.Stats.AddFilesFailed(1)
			failed = append(failed, ItemError{Path: e.Rel, Err: err})
		}
		sess.Keepalive()
	}
	return failed
}

func (d *deployment) uploadOne(sess *transport.Session, e scan.Entry) error {
	localPath := filepath.Join(d.cfg.LocalRoot, filepath.FromSlash(e.Rel))
	if err := sess.Upload(localPath, e.Rel); err != nil {
		return err
	}
	d.log.Debug("uploaded", "path", e.Rel, "size", e.Size)
	d.emit(event.Event{Type: event.FileUploaded, Path: e.Rel, Size: e.Size})
	d.cfg.Stats.AddFilesUploaded(1)
	d.cfg.Stats.AddBytesUploaded(e.Size)
	return nil
}

// plan is the dry-run path: scan and report what a real run would
// upload, without touching the remote side.
func (d *deployment) plan() Result {
	d.phase("scan")
	entries, err := scan.Tree(d.cfg.Fs, d.cfg.LocalRoot, d.cfg.Exclusions)
	if err != nil {
		return Result{Err: err}
	}
	d.cfg.Stats.AddFilesScanned(int64(len(entries)))

	bulk, entryDoc := d.partition(entries)
	for _, e := range bulk {
		d.log.Info("would upload", "path", e.Rel, "size", e.Size)
		d.emit(event.Event{Type: event.FileSkipped, Path: e.Rel, Size: e.Size})
		d.cfg.Stats.AddFilesSkipped(1)
	}
	if entryDoc != nil {
		d.log.Info("would publish entry document last", "path", entryDoc.Rel)
		d.emit(event.Event{Type: event.FileSkipped, Path: entryDoc.Rel, Size: entryDoc.Size})
		d.cfg.Stats.AddFilesSkipped(1)
	} else {
		d.log.Info("no entry document in local tree", "entry", d.cfg.Entry)
	}
	return Result{}
}
