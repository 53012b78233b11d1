// Copyright 2024 sieve Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cascade

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sieve-ml/sieve/base/log"
	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/feature"
)

// Builder greedily constructs a cascade: at every step it scans all
// (feature, direction) pairs for the threshold rejecting the most negatives
// while losing almost no positives, then filters the training set and
// repeats until no worthwhile split remains.
type Builder struct {
	conf config.CascadeConfig
}

// NewBuilder creates a builder with the given candidate thresholds.
func NewBuilder(conf config.CascadeConfig) *Builder {
	return &Builder{conf: conf}
}

type boosterCandidate struct {
	// fraction of all negatives the split removes; zero means no candidate
	fraction float64
	removed  float64
	booster  Booster
}

type oneFeatureValue struct {
	value    float32
	positive bool
}

// findBooster scans one (feature, direction) pair. Examples are sorted so
// that rejected ones come first; the best split point keeps the running
// positive count below MaxPositiveRatio of the running negative count and
// never bisects equal feature values.
func (b *Builder) findBooster(set *feature.Set, featureIdx int, rejectAbove bool) boosterCandidate {
	neg, pos := set.Counts()
	sorted := make([]oneFeatureValue, 0, neg+pos)
	for _, example := range set.Negatives() {
		sorted = append(sorted, oneFeatureValue{value: example[featureIdx]})
	}
	for _, example := range set.Positives() {
		sorted = append(sorted, oneFeatureValue{value: example[featureIdx], positive: true})
	}
	if rejectAbove {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].value > sorted[j].value })
	} else {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })
	}

	var runPos, runNeg float64
	bestThreshold := 0.0
	removed := -1.0
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].positive {
			runPos++
		} else {
			runNeg++
		}
		// A split below here is worthwhile only while positives stay rare,
		// and only strictly between two distinct values.
		if runPos < b.conf.MaxPositiveRatio*runNeg && sorted[i].value != sorted[i+1].value {
			bestThreshold = 0.5 * (float64(sorted[i].value) + float64(sorted[i+1].value))
			removed = runNeg
		}
	}

	if neg == 0 {
		return boosterCandidate{}
	}
	fraction := removed / float64(neg)
	if fraction < b.conf.MinRemovedFraction || removed < float64(b.conf.MinRemoved) {
		return boosterCandidate{}
	}
	return boosterCandidate{
		fraction: fraction,
		removed:  removed,
		booster: Booster{
			FeatureIndex: featureIdx,
			Threshold:    bestThreshold,
			RejectAbove:  rejectAbove,
		},
	}
}

func (b *Builder) findBestBooster(set *feature.Set) boosterCandidate {
	var best boosterCandidate
	dims := set.Dimension()
	for _, rejectAbove := range []bool{false, true} {
		for idx := 0; idx < dims; idx++ {
			if candidate := b.findBooster(set, idx, rejectAbove); candidate.fraction > best.fraction {
				best = candidate
			}
		}
	}
	return best
}

// Build returns the cascade and the example set with every rejected example
// filtered out. The returned cascade may be empty. Each accepted booster
// must strictly shrink the negative class; a step that fails to is a
// corrupted scan and panics.
func (b *Builder) Build(set *feature.Set) (Cascade, *feature.Set) {
	var boosters Cascade
	for {
		best := b.findBestBooster(set)
		if best.fraction <= 0 {
			return boosters, set
		}
		boosters = append(boosters, best.booster)

		negBefore, _ := set.Counts()
		set = set.Filter(best.booster.KeepVector)
		negAfter, posAfter := set.Counts()
		if negAfter >= negBefore {
			panic("cascade step failed to shrink the negative class")
		}
		log.Logger().Info("accepted booster",
			zap.Stringer("booster", best.booster),
			zap.Float64("removed_fraction", best.fraction),
			zap.Int("negatives", negAfter),
			zap.Int("positives", posAfter))
	}
}
