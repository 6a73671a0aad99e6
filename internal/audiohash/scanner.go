package audiohash

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/kenafu/voice-dataset-organizer/internal/logging"
)

// Target identifies one file to fingerprint.
type Target struct {
	// ID is the sample identifier the signature is reported under.
	ID string
	// Path is the absolute file path.
	Path string
}

// Cache persists signatures keyed by file identity and parameter set so
// unchanged files are not decoded twice. Implementations must be safe for
// concurrent use.
type Cache interface {
	Lookup(ctx context.Context, path string, size, mtimeNS int64, paramsKey string) (Signature, bool, error)
	Store(ctx context.Context, path string, size, mtimeNS int64, paramsKey string, sig Signature) error
}

// Scanner fingerprints a set of files across a bounded worker pool. All
// results are collected before Scan returns; clustering never sees a
// partial mapping.
type Scanner struct {
	decoder Decoder
	params  Params
	cache   Cache
	workers int
	logger  *slog.Logger
}

// NewScanner builds a scanner. cache may be nil to disable caching;
// workers below 1 is treated as 1.
func NewScanner(decoder Decoder, params Params, cache Cache, workers int, logger *slog.Logger) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		decoder: decoder,
		params:  params,
		cache:   cache,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "audiohash"),
	}
}

type scanResult struct {
	id  string
	sig Signature
	err *DecodeError
}

// Scan fingerprints every target. Per-file decode failures are returned
// separately and never abort the scan; only context cancellation does.
// The progress callback, when non-nil, is invoked after each file.
func (s *Scanner) Scan(ctx context.Context, targets []Target, progress func(done, total int)) (map[string]Signature, []*DecodeError, error) {
	total := len(targets)
	jobs := make(chan Target)
	results := make(chan scanResult, total)
	paramsKey := s.params.Key()

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				results <- s.fingerprint(ctx, target, paramsKey)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, target := range targets {
			select {
			case jobs <- target:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	signatures := make(map[string]Signature, total)
	var failures []*DecodeError
	done := 0
	for result := range results {
		done++
		if result.err != nil {
			failures = append(failures, result.err)
		} else {
			signatures[result.id] = result.sig
		}
		if progress != nil {
			progress(done, total)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Worker completion order is nondeterministic; fix the failure order
	// so repeated scans report identically.
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })

	return signatures, failures, nil
}

func (s *Scanner) fingerprint(ctx context.Context, target Target, paramsKey string) scanResult {
	info, err := os.Stat(target.Path)
	if err != nil {
		return scanResult{id: target.ID, err: &DecodeError{Path: target.Path, Err: err}}
	}
	size := info.Size()
	mtimeNS := info.ModTime().UnixNano()

	if s.cache != nil {
		sig, hit, cacheErr := s.cache.Lookup(ctx, target.Path, size, mtimeNS, paramsKey)
		if cacheErr != nil {
			s.logger.Warn("signature cache lookup failed", logging.String("path", target.Path), logging.Error(cacheErr))
		} else if hit {
			return scanResult{id: target.ID, sig: sig}
		}
	}

	samples, err := s.decoder.Decode(ctx, target.Path)
	if err != nil {
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			decodeErr = &DecodeError{Path: target.Path, Err: err}
		}
		return scanResult{id: target.ID, err: decodeErr}
	}

	sig, err := Compute(samples, s.params)
	if err != nil {
		return scanResult{id: target.ID, err: &DecodeError{Path: target.Path, Err: err}}
	}

	if s.cache != nil {
		if cacheErr := s.cache.Store(ctx, target.Path, size, mtimeNS, paramsKey, sig); cacheErr != nil {
			s.logger.Warn("signature cache store failed", logging.String("path", target.Path), logging.Error(cacheErr))
		}
	}

	return scanResult{id: target.ID, sig: sig}
}
