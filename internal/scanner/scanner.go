package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"photo-gallery/internal/database"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/workers"
)

// Scanner walks the gallery directory on an interval and keeps the catalog
// in sync with what is on disk.
type Scanner struct {
	db         *database.Database
	galleryDir string
	interval   time.Duration

	stopChan   chan struct{}
	scanMu     sync.Mutex
	isScanning bool
	lastScan   time.Time

	photosSeen atomic.Int64
	albumsSeen atomic.Int64
}

// New creates a Scanner for the gallery directory.
func New(db *database.Database, galleryDir string, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Scanner{
		db:         db,
		galleryDir: galleryDir,
		interval:   interval,
		stopChan:   make(chan struct{}),
	}
}

// Start runs an initial scan and then rescans on the configured interval
// until Stop is called.
func (s *Scanner) Start(ctx context.Context) {
	if err := s.Scan(ctx); err != nil {
		logging.Error("initial gallery scan failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Scan(ctx); err != nil {
				logging.Error("gallery scan failed: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// Stop ends the periodic scanning loop.
func (s *Scanner) Stop() {
	close(s.stopChan)
}

// IsScanning reports whether a scan is currently running.
func (s *Scanner) IsScanning() bool {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return s.isScanning
}

// photoJob is one candidate file found during the walk.
type photoJob struct {
	albumID int64
	name    string
	path    string
	modTime time.Time
}

// Scan walks the gallery once. Directory structure is discovered in a
// single pass; content sniffing and database writes run on a small worker
// pool since they are I/O-bound.
func (s *Scanner) Scan(ctx context.Context) error {
	s.scanMu.Lock()
	if s.isScanning {
		s.scanMu.Unlock()
		logging.Debug("scan already in progress, skipping")
		return nil
	}
	s.isScanning = true
	s.scanMu.Unlock()

	defer func() {
		s.scanMu.Lock()
		s.isScanning = false
		s.lastScan = time.Now()
		s.scanMu.Unlock()
	}()

	start := time.Now()
	s.photosSeen.Store(0)
	s.albumsSeen.Store(0)
	logging.Info("Scanning gallery: %s", s.galleryDir)

	jobs := make(chan photoJob, 256)
	var wg sync.WaitGroup

	numWorkers := workers.ForIO(8)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				s.processPhoto(ctx, job)
			}
		}()
	}

	albumIDs := make(map[string]int64)
	walkErr := filepath.WalkDir(s.galleryDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("scan: cannot access %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && path != s.galleryDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.galleryDir, path)
		if err != nil {
			return nil
		}
		albumDir := filepath.Dir(rel)
		if albumDir == "." {
			// Files directly under the root belong to a catch-all album.
			albumDir = ""
		}

		albumID, ok := albumIDs[albumDir]
		if !ok {
			info, err := d.Info()
			var date time.Time
			if err == nil {
				date = info.ModTime()
			}
			albumID, err = s.db.UpsertAlbum(ctx, albumDir, albumDisplayName(albumDir), date)
			if err != nil {
				logging.Warn("scan: failed to record album %s: %v", albumDir, err)
				return nil
			}
			albumIDs[albumDir] = albumID
			s.albumsSeen.Add(1)
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		jobs <- photoJob{albumID: albumID, name: name, path: path, modTime: info.ModTime()}
		return nil
	})

	close(jobs)
	wg.Wait()

	duration := time.Since(start)
	metrics.ScannerRunsTotal.Inc()
	metrics.ScannerLastRunTimestamp.SetToCurrentTime()
	metrics.ScannerLastRunDuration.Set(duration.Seconds())

	logging.Info("Scan complete: %d albums, %d photos in %v",
		s.albumsSeen.Load(), s.photosSeen.Load(), duration)
	return walkErr
}

func (s *Scanner) processPhoto(ctx context.Context, job photoJob) {
	mtype, err := mimetype.DetectFile(job.path)
	if err != nil {
		logging.Debug("scan: cannot sniff %s: %v", job.path, err)
		return
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return
	}

	if _, err := s.db.UpsertPhoto(ctx, job.albumID, job.name, job.modTime); err != nil {
		logging.Warn("scan: failed to record photo %s: %v", job.name, err)
		return
	}
	s.photosSeen.Add(1)
}

// albumDisplayName derives a human-readable album name from its directory.
func albumDisplayName(dirpath string) string {
	if dirpath == "" {
		return "Unsorted"
	}
	return filepath.Base(dirpath)
}
