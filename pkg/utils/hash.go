package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// DefaultChunkSize is the read size used when streaming file content
const DefaultChunkSize = 64 * KB

// DigestLen is the length of a formatted digest (64-bit hash, hex encoded)
const DigestLen = 16

// FormatDigest renders a 64-bit hash as fixed-width lowercase hex
func FormatDigest(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// HashReader computes the XXH64 digest of r, reading chunkSize bytes at a time.
// It returns the digest and the number of bytes consumed.
func HashReader(r io.Reader, chunkSize int) (string, int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	digest := xxhash.New()
	buf := make([]byte, chunkSize)
	var total int64

	for {
		n, err := r.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", total, err
		}
	}

	return FormatDigest(digest.Sum64()), total, nil
}

// HashFile computes the XXH64 digest of the full content of a file.
// Reading stops at the next chunk boundary once ctx is done.
func HashFile(ctx context.Context, fs afero.Fs, path string, chunkSize int) (string, int64, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	return HashReader(&contextReader{ctx: ctx, r: file}, chunkSize)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// SameContent reports whether two files hold exactly the same bytes
func SameContent(fs afero.Fs, a, b string, chunkSize int) (bool, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	fa, err := fs.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()

	fb, err := fs.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)

	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)

		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}

		endA := errors.Is(errA, io.EOF) || errors.Is(errA, io.ErrUnexpectedEOF)
		endB := errors.Is(errB, io.EOF) || errors.Is(errB, io.ErrUnexpectedEOF)
		if errA != nil && !endA {
			return false, errA
		}
		if errB != nil && !endB {
			return false, errB
		}
		if endA || endB {
			return endA == endB, nil
		}
	}
}
