// Package scanner implements the collection scanner: a breadth-first
// walk of each mount point's source directory, dispatching supported
// audio files to a worker pool of tag readers and feeding the resulting
// records to an index builder. Uses a direct bounded-channel pipeline
// rather than a durable job queue, since each scan produces a fresh
// in-memory snapshot rather than persisting individual jobs.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/tagreader"
	"github.com/agersant/polaris/internal/vpath"
)

// Stats counts what one Scan call observed, the raw material for C7's
// index_status counters.
type Stats struct {
	FilesSeen int
	Errors    int
}

// Scanner walks mount points and produces scan records. It holds no
// mutable state across calls; each Scan is an independent walk.
type Scanner struct {
	workers    int
	artPattern *regexp.Regexp
}

// New builds a Scanner with a worker pool sized to the host's CPU count
// and the given adjacent-art match pattern.
func New(artPattern *regexp.Regexp) *Scanner {
	if artPattern == nil {
		artPattern, _ = tagreader.CompileArtPattern("")
	}
	return &Scanner{workers: runtime.NumCPU(), artPattern: artPattern}
}

type fileJob struct {
	realPath       string
	parentRealPath string
}

type fileResult struct {
	job fileJob
	res tagreader.Result
	err error
}

// Scan walks every mount's source tree breadth-first, dispatching
// supported files to the worker pool and staging every SongRecord and
// DirectoryRecord it produces into builder. ctx cancellation is
// cooperative: workers finish their current file and the walk stops
// enqueueing new directories once ctx is done.
func (s *Scanner) Scan(ctx context.Context, mounts []vpath.Mount, builder *collection.Builder) (Stats, error) {
	jobs := make(chan fileJob, s.workers*4)
	results := make(chan fileResult, s.workers*4)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res, err := tagreader.Read(job.realPath)
				results <- fileResult{job: job, res: res, err: err}
			}
		}()
	}

	done := make(chan struct{})
	var stats Stats
	go func() {
		defer close(done)
		for r := range results {
			stats.FilesSeen++
			if r.err != nil {
				stats.Errors++
				continue
			}
			rec := r.res.Record
			rec.RealPath = r.job.realPath
			rec.ParentRealPath = r.job.parentRealPath
			builder.AddSong(rec)
		}
	}()

	walkErr := s.walkMounts(ctx, mounts, builder, jobs)

	close(jobs)
	wg.Wait()
	close(results)
	<-done

	return stats, walkErr
}

// walkMounts performs the breadth-first traversal for every mount and
// feeds file jobs into the worker pool's channel. Directory records
// (including adjacent-art resolution) are staged directly since that work
// is cheap relative to tag decoding and doesn't benefit from the pool.
func (s *Scanner) walkMounts(ctx context.Context, mounts []vpath.Mount, builder *collection.Builder, jobs chan<- fileJob) error {
	visited := newRealPathSet()

	for _, mount := range mounts {
		root, err := canonicalPath(mount.Source)
		if err != nil {
			return apperr.Wrap(apperr.IO, "resolve mount source: "+mount.Source, err)
		}
		if !visited.markVisited(root) {
			continue
		}
		if err := s.walkDir(ctx, root, "", visited, builder, jobs); err != nil {
			return err
		}
	}
	return nil
}

// walkDir stages dir's own DirectoryRecord (including the adjacent art
// resolved from dir's own listing, never a child's) before recursing into
// its subdirectories.
func (s *Scanner) walkDir(ctx context.Context, dir, parentRealPath string, visited *realPathSet, builder *collection.Builder, jobs chan<- fileJob) error {
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Per-file/per-directory errors never abort the scan.
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	artPath := tagreader.ResolveAdjacentArtFromNames(dir, names, s.artPattern)
	builder.AddDirectory(collection.DirectoryRecord{
		RealPath:            dir,
		ParentRealPath:      parentRealPath,
		AdjacentArtRealPath: artPath,
	})

	var subdirs []string
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		info, err := os.Stat(full) // follows symlinks
		if err != nil {
			continue
		}
		if info.IsDir() {
			subdirs = append(subdirs, full)
			continue
		}
		if !info.Mode().IsRegular() || !tagreader.IsSupported(full) {
			continue
		}
		select {
		case jobs <- fileJob{realPath: full, parentRealPath: dir}:
		case <-ctx.Done():
			return nil
		}
	}

	for _, sub := range subdirs {
		real, err := canonicalPath(sub)
		if err != nil {
			continue
		}
		if !visited.markVisited(real) {
			continue // symlink cycle or already-traversed target
		}
		if err := s.walkDir(ctx, real, dir, visited, builder, jobs); err != nil {
			return err
		}
	}
	return nil
}

// canonicalPath resolves symlinks so cycle detection compares the
// filesystem's real identity rather than the path spelling used to reach
// it.
func canonicalPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}
