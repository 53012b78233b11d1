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

package search

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/sieve-ml/sieve/base/log"
	"github.com/sieve-ml/sieve/base/parallel"
	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/feature"
	"github.com/sieve-ml/sieve/model"
)

// Result is the winning configuration of a search: the feature subset, its
// hyperparameters and the cross-validation score they achieved.
type Result struct {
	Subset []int
	Params model.Params
	Score  float64
	NumSVs float64
}

// Searcher runs feature subset selection with a nested hyperparameter grid
// search, keeping the configuration with the best penalized k-fold score.
type Searcher struct {
	conf *config.Config
	cv   *CrossValidator
	grid []*model.Parameterization

	// optional TSV sinks, nil disables them
	allResults  io.Writer
	bestResults io.Writer
	surfaceDir  string
}

// NewSearcher creates a searcher over the configured hyperparameter grid.
func NewSearcher(conf *config.Config, weights model.ClassWeights) *Searcher {
	return &Searcher{
		conf: conf,
		cv:   NewCrossValidator(weights),
		grid: BuildGrid(conf.Grid),
	}
}

// SetResultLogs attaches TSV sinks: one row per evaluated subset and one row
// per subset-size round.
func (s *Searcher) SetResultLogs(allResults, bestResults io.Writer) {
	s.allResults = allResults
	s.bestResults = bestResults
}

// SetSurfaceDir enables per-subset hyperparameter surface dumps into dir.
func (s *Searcher) SetSurfaceDir(dir string) {
	s.surfaceDir = dir
}

// SubsetKey renders a subset canonically, sorted indices joined by dashes.
func SubsetKey(subset []int) string {
	sorted := make([]int, len(subset))
	copy(sorted, subset)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, idx := range sorted {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "-")
}

// Search runs the configured selection mode over the example set and returns
// the best configuration found. The set must already be cascade-filtered; the
// coefficients must cover its full dimension.
func (s *Searcher) Search(ctx context.Context, set *feature.Set, coeffs feature.Coefficients) (Result, error) {
	dims := set.Dimension()
	if dims == 0 {
		return Result{}, errors.NotValidf("empty example set")
	}
	mode := s.conf.Selection.Mode
	candidates, err := s.initialCandidates(mode, dims)
	if err != nil {
		return Result{}, errors.Trace(err)
	}

	best := Result{Score: math.Inf(-1)}
	for round := 0; round < dims && len(candidates) > 0; round++ {
		roundBest := Result{Score: math.Inf(-1)}
		for _, subset := range candidates {
			p, err := s.evaluateSubset(ctx, set, coeffs, subset)
			if err != nil {
				return Result{}, errors.Trace(err)
			}
			if s.conf.Grid.FilterHyperparams && len(subset) > dims/3 {
				s.grid = FilterTop(s.grid, s.conf.Folds)
			}
			s.logResult(s.allResults, subset, p.Params, p.CVScore())
			if p.CVScore() > roundBest.Score {
				roundBest = Result{Subset: subset, Params: p.Params, Score: p.CVScore(), NumSVs: p.NumSVs()}
			}
		}
		s.logResult(s.bestResults, roundBest.Subset, roundBest.Params, roundBest.Score)
		log.Logger().Info("finished subset round",
			zap.Int("round", round),
			zap.String("subset", SubsetKey(roundBest.Subset)),
			zap.String("params", roundBest.Params.ToString()),
			zap.Float64("score", roundBest.Score))
		// ties go to the latest round, which has the smaller subsets under
		// backward selection
		if roundBest.Score >= best.Score {
			best = roundBest
		}
		if mode == config.SelectionFixed || mode == config.SelectionNone {
			break
		}
		candidates = nextCandidates(roundBest.Subset, dims, mode == config.SelectionForward)
	}
	if math.IsInf(best.Score, -1) {
		return Result{}, errors.New("subset search found no usable configuration")
	}
	return best, nil
}

// evaluateSubset scores the whole current grid on one subset in parallel and
// returns the best parameterization. The scored grid replaces the searcher's
// grid so filtering sees fresh scores.
func (s *Searcher) evaluateSubset(ctx context.Context, set *feature.Set, coeffs feature.Coefficients, subset []int) (*model.Parameterization, error) {
	selector := feature.SubsetSelector{Subset: subset, Coeffs: coeffs}
	folds := Split(s.materialize(selector, set.Negatives()), s.materialize(selector, set.Positives()), s.conf.Folds)

	candidates := make([]*model.Parameterization, len(s.grid))
	for i, p := range s.grid {
		candidates[i] = p.Clone()
	}
	err := parallel.Parallel(ctx, len(candidates), s.conf.Jobs, func(_, jobId int) error {
		s.cv.Score(folds, candidates[jobId])
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.grid = candidates

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.CVScore() > best.CVScore() {
			best = c
		}
	}
	if err := s.writeSurface(subset, candidates); err != nil {
		return nil, errors.Trace(err)
	}
	return best, nil
}

// EvaluateFolds splits the subset-selected matrices and returns the folds, for
// callers that need held-out predictions of a known-good configuration.
func (s *Searcher) EvaluateFolds(set *feature.Set, coeffs feature.Coefficients, subset []int) []Fold {
	selector := feature.SubsetSelector{Subset: subset, Coeffs: coeffs}
	return Split(s.materialize(selector, set.Negatives()), s.materialize(selector, set.Positives()), s.conf.Folds)
}

// CrossValidator returns the searcher's cross-validator.
func (s *Searcher) CrossValidator() *CrossValidator {
	return s.cv
}

// materialize selects and normalizes every example on the configured worker
// pool. SelectNormalize is pure, so rows can be built concurrently.
func (s *Searcher) materialize(selector feature.SubsetSelector, examples [][]float32) [][]float32 {
	selected := make([][]float32, len(examples))
	parallel.ForEach(examples, s.conf.Jobs, func(i int, example []float32) {
		selected[i] = selector.SelectNormalize(example)
	})
	return selected
}

func (s *Searcher) initialCandidates(mode config.SelectionMode, dims int) ([][]int, error) {
	switch mode {
	case config.SelectionForward:
		return nextCandidates(nil, dims, true), nil
	case config.SelectionBackward, config.SelectionNone:
		full := make([]int, dims)
		for i := range full {
			full[i] = i
		}
		return [][]int{full}, nil
	case config.SelectionFixed:
		for _, idx := range s.conf.Selection.Features {
			if idx < 0 || idx >= dims {
				return nil, errors.NotValidf("fixed feature index %d for dimension %d", idx, dims)
			}
		}
		return [][]int{s.conf.Selection.Features}, nil
	}
	return nil, errors.NotValidf("selection mode %q", mode)
}

// nextCandidates derives the next round's subsets from the round winner:
// forward selection appends each absent feature in turn, backward selection
// drops each member in turn. Duplicates are collapsed.
func nextCandidates(best []int, dims int, forward bool) [][]int {
	seen := mapset.NewThreadUnsafeSet[string]()
	var candidates [][]int
	add := func(subset []int) {
		if len(subset) > 0 && seen.Add(SubsetKey(subset)) {
			candidates = append(candidates, subset)
		}
	}
	if forward {
		members := bitset.New(uint(dims))
		for _, idx := range best {
			members.Set(uint(idx))
		}
		for i := 0; i < dims; i++ {
			if members.Test(uint(i)) {
				continue
			}
			grown := make([]int, len(best), len(best)+1)
			copy(grown, best)
			add(append(grown, i))
		}
	} else {
		for _, remove := range best {
			shrunk := make([]int, 0, len(best)-1)
			for _, keep := range best {
				if keep != remove {
					shrunk = append(shrunk, keep)
				}
			}
			add(shrunk)
		}
	}
	return candidates
}

func (s *Searcher) logResult(w io.Writer, subset []int, params model.Params, score float64) {
	if w == nil || subset == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "%d\t%s\t%v\t%v\t%v\n",
		len(subset), SubsetKey(subset),
		params.GetFloat64(model.Nu, -1), params.GetFloat64(model.Gamma, -1),
		score)
}

// writeSurface dumps one (nu, log gamma, score, SVs) row per grid point, for
// plotting the hyperparameter surface of a subset.
func (s *Searcher) writeSurface(subset []int, candidates []*model.Parameterization) error {
	if s.surfaceDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.surfaceDir, 0o755); err != nil {
		return errors.Trace(err)
	}
	file, err := os.Create(filepath.Join(s.surfaceDir, "surface-"+SubsetKey(subset)+".tsv"))
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	for _, c := range candidates {
		gamma := c.Params.GetFloat64(model.Gamma, -1)
		logGamma := -20.0
		if gamma > 0 {
			logGamma = math.Log(gamma)
		}
		if _, err := fmt.Fprintf(file, "%v\t%v\t%v\t%v\n",
			c.Params.GetFloat64(model.Nu, -1), logGamma, c.CVScore(), c.NumSVs()); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
