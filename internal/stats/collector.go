package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks deployment statistics using lock-free atomic counters.
type Collector struct {
	filesScanned  atomic.Int64
	filesUploaded atomic.Int64
	filesFailed   atomic.Int64
	filesSkipped  atomic.Int64
	itemsDeleted  atomic.Int64
	deleteFailed  atomic.Int64
	dirsCreated   atomic.Int64
	bytesUploaded atomic.Int64
	startTime     time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesScanned  int64
	FilesUploaded int64
	FilesFailed   int64
	FilesSkipped  int64
	ItemsDeleted  int64
	DeleteFailed  int64
	DirsCreated   int64
	BytesUploaded int64
	Elapsed       time.Duration
}

func (c *Collector) AddFilesScanned(n int64)  { c.filesScanned.Add(n) }
func (c *Collector) AddFilesUploaded(n int64) { c.filesUploaded.Add(n) }
func (c *Collector) AddFilesFailed(n int64)   { c.filesFailed.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)  { c.filesSkipped.Add(n) }
func (c *Collector) AddItemsDeleted(n int64)  { c.itemsDeleted.Add(n) }
func (c *Collector) AddDeleteFailed(n int64)  { c.deleteFailed.Add(n) }
func (c *Collector) AddDirsCreated(n int64)   { c.dirsCreated.Add(n) }
func (c *Collector) AddBytesUploaded(n int64) { c.bytesUploaded.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned:  c.filesScanned.Load(),
		FilesUploaded: c.filesUploaded.Load(),
		FilesFailed:   c.filesFailed.Load(),
		FilesSkipped:  c.filesSkipped.Load(),
		ItemsDeleted:  c.itemsDeleted.Load(),
		DeleteFailed:  c.deleteFailed.Load(),
		DirsCreated:   c.dirsCreated.Load(),
		BytesUploaded: c.bytesUploaded.Load(),
		Elapsed:       c.Elapsed(),
	}
}

// Elapsed returns the time since the collector was created.
func (c *Collector) Elapsed() time.Duration {
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime)
}

// Summary formats a one-line human-readable deployment summary.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("uploaded %d/%d files (%d bytes), deleted %d, skipped %d, failed %d in %s",
		s.FilesUploaded, s.FilesScanned, s.BytesUploaded, s.ItemsDeleted,
		s.FilesSkipped, s.FilesFailed, s.Elapsed.Round(time.Millisecond))
}
