package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/fenilsonani/dupsweep/pkg/utils"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxWorkers caps hashing parallelism to avoid excessive disk contention
const MaxWorkers = 16

// DefaultWorkers returns the worker count used when none is configured
func DefaultWorkers() int {
	return clampWorkers(runtime.NumCPU())
}

func clampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// Hasher computes content digests for collected files
type Hasher struct {
	fs        afero.Fs
	workers   int
	chunkSize int
	verify    bool
	logger    *zap.Logger
	onHashed  func(done int)
}

// NewHasher creates a hasher. workers <= 0 selects DefaultWorkers and
// chunkSize <= 0 selects utils.DefaultChunkSize.
func NewHasher(fs afero.Fs, workers, chunkSize int, logger *zap.Logger) *Hasher {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hasher{
		fs:        fs,
		workers:   clampWorkers(workers),
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Workers returns the effective parallelism
func (h *Hasher) Workers() int {
	return h.workers
}

// SetVerify enables byte-by-byte confirmation of digest matches
func (h *Hasher) SetVerify(verify bool) {
	h.verify = verify
}

// OnHashed registers a callback invoked with the running count of hashed files
func (h *Hasher) OnHashed(fn func(done int)) {
	h.onHashed = fn
}

// HashAll hashes every record in parallel. The returned records carry their
// digest and keep the input order; files that could not be hashed are left
// out and reported as PathErrors. The error is non-nil only when ctx is done.
func (h *Hasher) HashAll(ctx context.Context, records []FileRecord) ([]FileRecord, []*PathError, error) {
	slots := make([]FileRecord, len(records))
	failures := make([]*PathError, len(records))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)

	for i, record := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			digest, n, err := utils.HashFile(gctx, h.fs, record.Path, h.chunkSize)
			switch {
			case gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				h.logger.Warn("cannot hash file", zap.String("path", record.Path), zap.Error(err))
				failures[i] = &PathError{Path: record.Path, Stage: StageHash, Err: err}
			case n != record.Size:
				h.logger.Warn("file changed while scanning",
					zap.String("path", record.Path),
					zap.Int64("recorded", record.Size),
					zap.Int64("read", n))
				failures[i] = &PathError{
					Path:  record.Path,
					Stage: StageHash,
					Err:   fmt.Errorf("%w: recorded %d bytes, read %d", ErrSizeChanged, record.Size, n),
				}
			default:
				record.Digest = digest
				slots[i] = record
				h.logger.Debug("hashed", zap.String("path", record.Path), zap.String("digest", digest))
			}

			count := done.Add(1)
			if h.onHashed != nil {
				h.onHashed(int(count))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	hashed := make([]FileRecord, 0, len(records))
	var errs []*PathError
	for i := range records {
		if failures[i] != nil {
			errs = append(errs, failures[i])
			continue
		}
		hashed = append(hashed, slots[i])
	}
	return hashed, errs, nil
}
