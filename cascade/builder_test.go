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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/feature"
)

func testCascadeConfig() config.CascadeConfig {
	return config.CascadeConfig{
		MinRemoved:         150,
		MinRemovedFraction: 0.1,
		MaxPositiveRatio:   0.0005,
	}
}

func TestBuildCleanSeparation(t *testing.T) {
	// negatives well below every positive, one threshold rejects them all
	set := feature.NewSet(false)
	for i := 0; i < 1000; i++ {
		set.AddVector([]float32{float32(i) / 1000}, false)
	}
	for i := 0; i < 50; i++ {
		set.AddVector([]float32{10 + float32(i)}, true)
	}
	casc, filtered := NewBuilder(testCascadeConfig()).Build(set)
	require.Len(t, casc, 1)
	assert.False(t, casc[0].RejectAbove)
	neg, pos := filtered.Counts()
	assert.Equal(t, 0, neg)
	assert.Equal(t, 50, pos)
	assert.True(t, casc.KeepVector([]float32{20}))
	assert.False(t, casc.KeepVector([]float32{0.5}))
}

func TestBuildRejectAbove(t *testing.T) {
	set := feature.NewSet(false)
	for i := 0; i < 400; i++ {
		set.AddVector([]float32{100 + float32(i)}, false)
	}
	for i := 0; i < 50; i++ {
		set.AddVector([]float32{float32(i)}, true)
	}
	casc, filtered := NewBuilder(testCascadeConfig()).Build(set)
	require.Len(t, casc, 1)
	assert.True(t, casc[0].RejectAbove)
	neg, pos := filtered.Counts()
	assert.Equal(t, 0, neg)
	assert.Equal(t, 50, pos)
}

func TestBuildInterleavedClasses(t *testing.T) {
	// positives spread through the negatives, no threshold is worthwhile
	set := feature.NewSet(false)
	for i := 0; i < 1000; i++ {
		set.AddVector([]float32{float32(i)}, i%2 == 0)
	}
	casc, filtered := NewBuilder(testCascadeConfig()).Build(set)
	assert.Empty(t, casc)
	neg, pos := filtered.Counts()
	assert.Equal(t, 500, neg)
	assert.Equal(t, 500, pos)
}

func TestBuildTooFewRemoved(t *testing.T) {
	// clean separation, but under the absolute removal threshold
	set := feature.NewSet(false)
	for i := 0; i < 100; i++ {
		set.AddVector([]float32{float32(i)}, false)
	}
	for i := 0; i < 100; i++ {
		set.AddVector([]float32{1000 + float32(i)}, true)
	}
	casc, _ := NewBuilder(testCascadeConfig()).Build(set)
	assert.Empty(t, casc)
}

func TestBuildNeverSplitsEqualValues(t *testing.T) {
	// every example shares one value, a split would bisect equal values
	set := feature.NewSet(false)
	for i := 0; i < 1000; i++ {
		set.AddVector([]float32{7}, false)
	}
	for i := 0; i < 50; i++ {
		set.AddVector([]float32{7}, true)
	}
	casc, _ := NewBuilder(testCascadeConfig()).Build(set)
	assert.Empty(t, casc)
}

func TestBoosterKeep(t *testing.T) {
	below := Booster{FeatureIndex: 0, Threshold: 2, RejectAbove: false}
	assert.True(t, below.Keep(3))
	assert.False(t, below.Keep(2))
	assert.False(t, below.Keep(1))

	above := Booster{FeatureIndex: 1, Threshold: 2, RejectAbove: true}
	assert.True(t, above.KeepVector([]float32{9, 1}))
	assert.False(t, above.KeepVector([]float32{9, 3}))
}

func TestCascadeKeepOrder(t *testing.T) {
	casc := Cascade{
		{FeatureIndex: 0, Threshold: 0, RejectAbove: false},
		{FeatureIndex: 1, Threshold: 10, RejectAbove: true},
	}
	assert.True(t, casc.Keep(feature.Vector{1, 5}))
	assert.False(t, casc.Keep(feature.Vector{-1, 5}))
	assert.False(t, casc.Keep(feature.Vector{1, 15}))
	assert.True(t, Cascade(nil).Keep(feature.Vector{0}))
}
