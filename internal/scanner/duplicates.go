package scanner

import (
	"context"
	"fmt"
	"sort"

	"github.com/fenilsonani/dupsweep/pkg/utils"
	"go.uber.org/zap"
)

// GroupByDigest splits same-size hashed records into duplicate groups.
// Groups and members keep discovery order; unique digests are dropped.
func GroupByDigest(size int64, hashed []FileRecord) []DuplicateGroup {
	var order []string
	byDigest := make(map[string][]FileRecord)

	for _, record := range hashed {
		if record.Digest == "" {
			continue
		}
		if _, ok := byDigest[record.Digest]; !ok {
			order = append(order, record.Digest)
		}
		byDigest[record.Digest] = append(byDigest[record.Digest], record)
	}

	var groups []DuplicateGroup
	for _, digest := range order {
		files := byDigest[digest]
		if len(files) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			Digest: digest,
			Size:   size,
			Files:  files,
		})
	}
	return groups
}

// FindDuplicates hashes every candidate of sizeGroups and returns the
// duplicate groups ordered by size descending. Groups of equal size keep the
// discovery order of their first member.
func (h *Hasher) FindDuplicates(ctx context.Context, sizeGroups *SizeGroups) ([]DuplicateGroup, []*PathError, error) {
	hashed, errs, err := h.HashAll(ctx, sizeGroups.Records())
	if err != nil {
		return nil, nil, err
	}

	bySize := make(map[int64][]FileRecord, sizeGroups.Len())
	for _, record := range hashed {
		bySize[record.Size] = append(bySize[record.Size], record)
	}

	var groups []DuplicateGroup
	for _, size := range sizeGroups.Sizes {
		for _, group := range GroupByDigest(size, bySize[size]) {
			if !h.verify {
				groups = append(groups, group)
				continue
			}
			verified, verifyErrs := h.verifyGroup(ctx, group)
			groups = append(groups, verified...)
			errs = append(errs, verifyErrs...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Size > groups[j].Size
	})
	return groups, errs, nil
}

// verifyGroup compares members byte by byte against the first remaining
// member, splitting off any that differ despite the digest match
func (h *Hasher) verifyGroup(ctx context.Context, group DuplicateGroup) ([]DuplicateGroup, []*PathError) {
	var groups []DuplicateGroup
	var errs []*PathError
	remaining := group.Files

	for len(remaining) >= 2 && ctx.Err() == nil {
		reference := remaining[0]
		same := []FileRecord{reference}
		var rest []FileRecord

		for _, candidate := range remaining[1:] {
			equal, err := utils.SameContent(h.fs, reference.Path, candidate.Path, h.chunkSize)
			if err != nil {
				h.logger.Warn("cannot verify file", zap.String("path", candidate.Path), zap.Error(err))
				errs = append(errs, &PathError{
					Path:  candidate.Path,
					Stage: StageVerify,
					Err:   fmt.Errorf("verify against %s: %w", reference.Path, err),
				})
				continue
			}
			if equal {
				same = append(same, candidate)
			} else {
				h.logger.Warn("digest collision", zap.String("path", candidate.Path), zap.String("reference", reference.Path))
				rest = append(rest, candidate)
			}
		}

		if len(same) >= 2 {
			groups = append(groups, DuplicateGroup{Digest: group.Digest, Size: group.Size, Files: same})
		}
		remaining = rest
	}

	return groups, errs
}
