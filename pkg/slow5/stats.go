package slow5

import (
	"context"
	"errors"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Summary aggregates the records of a file
type Summary struct {
	Records      int
	Samples      uint64
	ReadGroups   map[uint32]int
	MinPicoamps  float64
	MaxPicoamps  float64
	DecodeErrors int
}

func newSummary() Summary {
	return Summary{
		ReadGroups:  make(map[uint32]int),
		MinPicoamps: math.Inf(1),
		MaxPicoamps: math.Inf(-1),
	}
}

func (s *Summary) add(rec *Record) {
	s.Records++
	s.Samples += uint64(rec.Len())
	s.ReadGroups[rec.ReadGroup()]++
	it := rec.PicoampsIter()
	for it.Next() {
		pa := it.Value()
		s.MinPicoamps = math.Min(s.MinPicoamps, pa)
		s.MaxPicoamps = math.Max(s.MaxPicoamps, pa)
	}
}

func (s *Summary) merge(o Summary) {
	s.Records += o.Records
	s.Samples += o.Samples
	s.DecodeErrors += o.DecodeErrors
	for g, n := range o.ReadGroups {
		s.ReadGroups[g] += n
	}
	s.MinPicoamps = math.Min(s.MinPicoamps, o.MinPicoamps)
	s.MaxPicoamps = math.Max(s.MaxPicoamps, o.MaxPicoamps)
}

// Summarize reads every record of path using up to workers goroutines.
// The read index is built once; each worker then opens its own Reader and
// decodes a contiguous share of the reads. Records that fail to decode
// are counted, not fatal.
func Summarize(ctx context.Context, path string, workers int, opts ...Option) (Summary, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	r, err := Open(path, opts...)
	if err != nil {
		return Summary{}, err
	}
	locs, stats, err := r.locations()
	if err := errors.Join(err, r.Close()); err != nil {
		return Summary{}, err
	}

	total := newSummary()
	total.DecodeErrors = stats.Skipped
	if len(locs) == 0 {
		return total.finish(), nil
	}

	// workers never touch the index, persistent or not
	workerOpts := append(slices.Clone(opts), func(o *Options) { o.persistentIndex = false })

	workers = min(workers, len(locs))
	shares := make([]Summary, workers)
	chunk := (len(locs) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(locs))
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			wr, err := Open(path, workerOpts...)
			if err != nil {
				return err
			}
			defer wr.Close()

			s := newSummary()
			for _, loc := range locs[lo:hi] {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec, err := wr.getAt(loc)
				if errors.Is(err, ErrDecode) {
					s.DecodeErrors++
					continue
				}
				if err != nil {
					return err
				}
				s.add(rec)
			}
			shares[w] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	for _, s := range shares {
		if s.ReadGroups != nil {
			total.merge(s)
		}
	}
	return total.finish(), nil
}

// finish zeroes the signal range of a summary without samples
func (s Summary) finish() Summary {
	if s.Samples == 0 {
		s.MinPicoamps, s.MaxPicoamps = 0, 0
	}
	return s
}
