// Package batch searches many schematics for one pattern on a bounded pool
// of workers.
//
// A Runner is created once per pattern and reused across runs. Failures are
// isolated per source: a schematic that cannot be read or decoded yields a
// Result carrying the error while the remaining sources are still searched.
//
//	runner, err := batch.NewRunner(pattern, behavior, batch.WithWorkers(8))
//	if err != nil {
//	    return err
//	}
//	for _, res := range runner.Run(ctx, sources) {
//	    if res.Err != nil {
//	        log.Printf("%s: %v", res.Name, res.Err)
//	        continue
//	    }
//	    fmt.Println(res.Name, len(res.Matches))
//	}
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/internal/hash"
	"github.com/arloliu/schemsearch/internal/options"
	"github.com/arloliu/schemsearch/schematic"
	"github.com/arloliu/schemsearch/search"
	"github.com/arloliu/schemsearch/source"
)

// Result is the outcome of searching one source. Results of sources with
// identical content share their Matches slice.
type Result struct {
	Name string
	// Digest is the xxHash64 of the source bytes; zero when reading failed.
	Digest  uint64
	Matches []search.Match
	Err     error
}

type outcome struct {
	matches []search.Match
	err     error
	sum     [hash.SumSize]byte
}

// Runner searches sources for a pattern. It is safe for concurrent use.
type Runner struct {
	pattern    schematic.Schematic
	behavior   search.Behavior
	workers    int
	metrics    *Metrics
	logger     *zap.Logger
	invalidNBT bool
	coarse     bool
	decodeOpts []schematic.DecoderOption
	onResult   func(Result)

	digest func([]byte) uint64
	group  singleflight.Group
	mu     sync.Mutex
	memo   map[uint64]outcome
}

// Option configures a Runner.
type Option = options.Option[*Runner]

// WithWorkers sets the number of concurrent searches; 0 uses runtime.NumCPU.
func WithWorkers(n int) Option {
	return options.New(func(r *Runner) error {
		if n < 0 {
			return fmt.Errorf("workers must not be negative, got %d", n)
		}
		r.workers = n

		return nil
	})
}

// WithMetrics records run metrics on m.
func WithMetrics(m *Metrics) Option {
	return options.NoError(func(r *Runner) { r.metrics = m })
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	})
}

// WithInvalidNBT switches the runner from pattern search to the block entity
// check; see search.SearchInvalidNBT. The pattern may then be nil.
func WithInvalidNBT(coarse bool) Option {
	return options.NoError(func(r *Runner) {
		r.invalidNBT = true
		r.coarse = coarse
	})
}

// WithDecoderOptions passes options to schematic.Decode for every source.
func WithDecoderOptions(opts ...schematic.DecoderOption) Option {
	return options.NoError(func(r *Runner) { r.decodeOpts = append(r.decodeOpts, opts...) })
}

// WithOnResult registers fn to be called once per source as soon as its
// result is known. Calls are serialized but arrive in completion order.
func WithOnResult(fn func(Result)) Option {
	return options.NoError(func(r *Runner) { r.onResult = fn })
}

// NewRunner creates a runner searching for pattern with behavior.
func NewRunner(pattern schematic.Schematic, behavior search.Behavior, opts ...Option) (*Runner, error) {
	r := &Runner{
		pattern:  pattern,
		behavior: behavior,
		logger:   zap.NewNop(),
		digest:   hash.Digest,
		memo:     make(map[uint64]outcome),
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}
	if r.workers == 0 {
		r.workers = runtime.NumCPU()
	}
	if !r.invalidNBT {
		if r.pattern == nil {
			return nil, errors.New("batch: pattern is required")
		}
		if err := behavior.Validate(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Workers returns the size of the worker pool.
func (r *Runner) Workers() int {
	return r.workers
}

// Run searches all sources and returns one result per source, in input order.
//
// Sources with identical content are decoded and searched once. Once ctx is
// done no further source is started and the results of unstarted sources
// carry ctx.Err(); a search already in progress runs to completion.
func (r *Runner) Run(ctx context.Context, sources []source.Source) []Result {
	results := make([]Result, len(sources))

	var (
		g      errgroup.Group
		notify sync.Mutex
	)
	g.SetLimit(r.workers)

	emit := func(i int, res Result) {
		results[i] = res
		if r.onResult != nil {
			notify.Lock()
			r.onResult(res)
			notify.Unlock()
		}
	}

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			r.metrics.observe(StatusCanceled, 0)
			emit(i, Result{Name: src.Name(), Err: err})

			continue
		}

		g.Go(func() error {
			emit(i, r.runOne(ctx, src))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, src source.Source) Result {
	name := src.Name()
	res := Result{Name: name}

	if err := ctx.Err(); err != nil {
		r.metrics.observe(StatusCanceled, 0)
		res.Err = err

		return res
	}

	data, err := src.Open(ctx)
	if err != nil {
		r.metrics.observe(StatusIOError, 0)
		r.logger.Warn("failed to read schematic", zap.String("name", name), zap.Error(err))
		res.Err = err

		return res
	}
	res.Digest = r.digest(data)

	out, shared := r.lookup(res.Digest, hash.Sum(data), data)
	if shared {
		r.metrics.duplicate()
	}
	res.Matches = out.matches
	if out.err != nil {
		res.Err = errs.WithPath(name, out.err)
		r.metrics.observe(StatusInvalid, 0)
		r.logger.Warn("failed to decode schematic", zap.String("name", name), zap.Error(res.Err))

		return res
	}

	r.metrics.observe(StatusOK, len(res.Matches))
	r.logger.Debug("searched schematic",
		zap.String("name", name),
		zap.Uint64("digest", res.Digest),
		zap.Int("matches", len(res.Matches)))

	return res
}

// lookup returns the outcome for data, decoding and searching it only when no
// source with the same content was processed before. shared reports whether
// the outcome came from another source.
func (r *Runner) lookup(digest uint64, sum [hash.SumSize]byte, data []byte) (outcome, bool) {
	computed := false
	// Concurrent duplicates share one flight, later ones hit the memo.
	v, _, _ := r.group.Do(strconv.FormatUint(digest, 16), func() (any, error) {
		r.mu.Lock()
		cached, ok := r.memo[digest]
		r.mu.Unlock()
		if ok && cached.sum == sum {
			return cached, nil
		}

		computed = true
		out := r.process(data)
		out.sum = sum
		if !ok {
			r.mu.Lock()
			r.memo[digest] = out
			r.mu.Unlock()
		}

		return out, nil
	})

	out := v.(outcome) //nolint:forcetypeassert
	if out.sum != sum {
		// Equal digests, different content.
		out = r.process(data)
		out.sum = sum
		computed = true
	}

	return out, !computed
}

func (r *Runner) process(data []byte) outcome {
	start := time.Now()
	s, err := schematic.Decode(data, r.decodeOpts...)
	r.metrics.decodeSeconds(time.Since(start).Seconds())
	if err != nil {
		return outcome{err: err}
	}

	start = time.Now()
	var matches []search.Match
	if r.invalidNBT {
		matches = search.SearchInvalidNBT(s, r.coarse)
	} else {
		matches = search.Search(s, r.pattern, r.behavior)
	}
	r.metrics.searchSeconds(time.Since(start).Seconds())

	return outcome{matches: matches}
}
