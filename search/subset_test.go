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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/feature"
	"github.com/sieve-ml/sieve/model"
)

func TestSubsetKey(t *testing.T) {
	assert.Equal(t, "1-2-3", SubsetKey([]int{3, 1, 2}))
	assert.Equal(t, "7", SubsetKey([]int{7}))
	assert.Equal(t, "", SubsetKey(nil))
}

func TestNextCandidatesBackward(t *testing.T) {
	candidates := nextCandidates([]int{0, 1, 2}, 5, false)
	require.Len(t, candidates, 3)
	keys := make(map[string]struct{})
	for _, subset := range candidates {
		assert.Len(t, subset, 2)
		keys[SubsetKey(subset)] = struct{}{}
	}
	assert.Contains(t, keys, "0-1")
	assert.Contains(t, keys, "0-2")
	assert.Contains(t, keys, "1-2")

	// removing the last feature yields nothing
	assert.Empty(t, nextCandidates([]int{4}, 5, false))
}

func TestNextCandidatesForward(t *testing.T) {
	candidates := nextCandidates([]int{1}, 4, true)
	require.Len(t, candidates, 3)
	keys := make(map[string]struct{})
	for _, subset := range candidates {
		assert.Len(t, subset, 2)
		keys[SubsetKey(subset)] = struct{}{}
	}
	assert.Contains(t, keys, "0-1")
	assert.Contains(t, keys, "1-2")
	assert.Contains(t, keys, "1-3")

	// from the empty subset, every singleton
	assert.Len(t, nextCandidates(nil, 4, true), 4)
	// from the full subset, nothing left to add
	assert.Empty(t, nextCandidates([]int{0, 1, 2, 3}, 4, true))
}

func searchTestConfig() *config.Config {
	conf := config.GetDefaultConfig()
	conf.Jobs = 1
	conf.Folds = 2
	conf.Selection.Mode = config.SelectionBackward
	conf.Grid.NuSteps = 2
	conf.Grid.GammaSteps = 2
	return conf
}

func TestSearchSeparableData(t *testing.T) {
	if testing.Short() {
		t.Skip("slow solver test")
	}
	// dimension 0 separates the classes, dimension 1 is constant noise
	set := feature.NewSet(false)
	for i := 0; i < 40; i++ {
		jitter := float32(i%5) * 0.1
		set.AddVector([]float32{-2 - jitter, 1}, false)
		set.AddVector([]float32{2 + jitter, 1}, true)
	}
	coeffs, err := feature.FitCoefficients(set)
	require.NoError(t, err)

	conf := searchTestConfig()
	weights := model.BalancedWeights(40, 40, conf.NegativeWeight)
	searcher := NewSearcher(conf, weights)
	result, err := searcher.Search(context.Background(), set, coeffs)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Subset)
	assert.Contains(t, result.Subset, 0)
	assert.Greater(t, result.Score, 0.8)
}
