package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Filter narrows which files the collector yields
type Filter struct {
	ExcludePatterns []string // glob matched against base name or full path
	MinSize         int64
	MaxSize         int64 // 0 means unlimited
	SkipHidden      bool
}

func (f Filter) excluded(path, name string) bool {
	if f.SkipHidden && strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	for _, pattern := range f.ExcludePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

func (f Filter) accepts(size int64) bool {
	// Zero-byte files are never duplicates worth reporting
	if size <= 0 {
		return false
	}
	if f.MinSize > 0 && size < f.MinSize {
		return false
	}
	if f.MaxSize > 0 && size > f.MaxSize {
		return false
	}
	return true
}

type fileKey struct {
	device uint64
	inode  uint64
}

// Collector walks root paths and yields regular files
type Collector struct {
	fs        afero.Fs
	filter    Filter
	batchSize int
	logger    *zap.Logger
}

// NewCollector creates a collector over fs
func NewCollector(fs afero.Fs, filter Filter, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		fs:        fs,
		filter:    filter,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
}

// SetBatchSize sets how many records are grouped per emitted batch
func (c *Collector) SetBatchSize(n int) {
	if n > 0 {
		c.batchSize = n
	}
}

// ResolveRoots makes roots absolute, follows a root that is itself a symlink
// and drops repeated roots. Unusable roots are reported as PathErrors;
// ErrNoValidRoots is returned when nothing is left to scan.
func (c *Collector) ResolveRoots(roots []string) ([]string, []*PathError, error) {
	var resolved []string
	var errs []*PathError
	seen := make(map[string]struct{})

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			errs = append(errs, &PathError{Path: root, Stage: StageCollect, Err: err})
			continue
		}

		info, err := c.fs.Stat(abs)
		if err != nil {
			c.logger.Warn("cannot access root", zap.String("path", root), zap.Error(err))
			errs = append(errs, &PathError{Path: root, Stage: StageCollect, Err: err})
			continue
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			errs = append(errs, &PathError{
				Path:  root,
				Stage: StageCollect,
				Err:   fmt.Errorf("not a regular file or directory"),
			})
			continue
		}

		walkPath, err := c.followRootSymlink(abs)
		if err != nil {
			errs = append(errs, &PathError{Path: root, Stage: StageCollect, Err: err})
			continue
		}

		if _, dup := seen[walkPath]; dup {
			c.logger.Debug("skipping repeated root", zap.String("path", root))
			continue
		}
		seen[walkPath] = struct{}{}
		resolved = append(resolved, walkPath)
	}

	if len(resolved) == 0 {
		return nil, errs, ErrNoValidRoots
	}
	return resolved, errs, nil
}

func (c *Collector) followRootSymlink(path string) (string, error) {
	lstater, ok := c.fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	info, lstatCalled, err := lstater.LstatIfPossible(path)
	if err != nil || !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
		return path, nil
	}
	return filepath.EvalSymlinks(path)
}

// Stream walks roots in argument order and emits records in batches.
// Roots should come from ResolveRoots. The channel is closed when the walk
// finishes or ctx is done; a completed walk ends with a Final batch.
func (c *Collector) Stream(ctx context.Context, roots []string) <-chan *Batch {
	ch := make(chan *Batch, ChannelBufferSize)

	go func() {
		defer close(ch)

		bc := NewBatchCollector(ctx, c.batchSize, ch)
		seen := make(map[string]struct{})
		aliases := make(map[fileKey]struct{})

		for _, root := range roots {
			if ctx.Err() != nil {
				return
			}
			c.walkRoot(ctx, root, bc, seen, aliases)
		}

		if ctx.Err() == nil {
			bc.Finalize()
		}
	}()

	return ch
}

// Collect runs Stream to completion
func (c *Collector) Collect(ctx context.Context, roots []string) ([]FileRecord, []*PathError, error) {
	return CollectAllBatches(ctx, c.Stream(ctx, roots))
}

func (c *Collector) walkRoot(ctx context.Context, root string, bc *BatchCollector, seen map[string]struct{}, aliases map[fileKey]struct{}) {
	_ = afero.Walk(c.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			c.logger.Warn("cannot access path", zap.String("path", path), zap.Error(err))
			bc.AddError(&PathError{Path: path, Stage: StageCollect, Err: err})
			return nil
		}

		// Symlinks are never followed, whether they point at files or directories
		if info.Mode()&os.ModeSymlink != 0 {
			c.logger.Debug("skipping symlink", zap.String("path", path))
			return nil
		}

		if path != root && c.filter.excluded(path, info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		if !c.filter.accepts(info.Size()) {
			return nil
		}

		// Overlapping roots reach the same path twice
		if _, dup := seen[path]; dup {
			return nil
		}
		seen[path] = struct{}{}

		record := FileRecord{
			Path:    path,
			Root:    root,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if dev, ino, nlink, ok := fileIdentity(info); ok {
			record.Device, record.Inode = dev, ino
			// A single-link inode seen under two names is one directory entry
			// reached through an alias (case-insensitive or bind-mounted path)
			if nlink <= 1 {
				key := fileKey{device: dev, inode: ino}
				if _, alias := aliases[key]; alias {
					c.logger.Debug("skipping aliased path", zap.String("path", path))
					return nil
				}
				aliases[key] = struct{}{}
			}
		}

		c.logger.Debug("collected", zap.String("path", path), zap.Int64("size", record.Size))
		bc.Add(record)
		return nil
	})
}
