package crypto

import (
	"sort"
	"time"

	"github.com/newthinker/cointools/internal/core"
)

// Bucket is one granularity's slice of candles, ordered by ascending time.
type Bucket struct {
	Granularity int64
	Candles     []core.Candle
}

type candidate struct {
	candle      core.Candle
	granularity int64
}

// BestMatch picks the candle whose timestamp is closest to target across all
// buckets. Each bucket contributes at most two candidates: the first candle
// at or after target, and the last one before it. Candles later than now are
// never chosen. Ties go to the earlier candle, then the finer granularity.
func BestMatch(buckets []Bucket, target, now int64) (core.Candle, bool) {
	ordered := make([]Bucket, len(buckets))
	copy(ordered, buckets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Granularity < ordered[j].Granularity
	})

	var candidates []candidate
	for _, b := range ordered {
		var previous *core.Candle
		for i := range b.Candles {
			c := b.Candles[i]
			if c.Time >= target {
				if c.Time <= now {
					candidates = append(candidates, candidate{c, b.Granularity})
				}
				break
			}
			previous = &b.Candles[i]
		}
		if previous != nil && previous.Time <= now {
			candidates = append(candidates, candidate{*previous, b.Granularity})
		}
	}

	if len(candidates) == 0 {
		return core.Candle{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if better(c, best, target) {
			best = c
		}
	}
	return best.candle, true
}

func better(a, b candidate, target int64) bool {
	da, db := distance(a.candle.Time, target), distance(b.candle.Time, target)
	if da != db {
		return da < db
	}
	if a.candle.Time != b.candle.Time {
		return a.candle.Time < b.candle.Time
	}
	return a.granularity < b.granularity
}

func distance(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Window says how far back a granularity's history reaches.
type Window struct {
	Granularity int64
	Lookback    time.Duration
}

// Days converts a number of days into a Duration.
func Days(n float64) time.Duration {
	return time.Duration(n * float64(24*time.Hour))
}

// SelectGranularity returns the finest granularity whose window still covers
// target. False means no window does and the caller should query everything.
func SelectGranularity(table []Window, target, now time.Time) (int64, bool) {
	ordered := make([]Window, len(table))
	copy(ordered, table)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Granularity < ordered[j].Granularity
	})

	for _, w := range ordered {
		if now.Add(-w.Lookback).Before(target) {
			return w.Granularity, true
		}
	}
	return 0, false
}
