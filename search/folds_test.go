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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieve-ml/sieve/model/svm"
)

func TestSplitPartition(t *testing.T) {
	negatives := make([][]float32, 10)
	for i := range negatives {
		negatives[i] = []float32{float32(i)}
	}
	positives := make([][]float32, 7)
	for i := range positives {
		positives[i] = []float32{float32(100 + i)}
	}
	folds := Split(negatives, positives, 3)
	require.Len(t, folds, 3)

	// every example validates exactly once across the folds
	seen := make(map[float32]int)
	for _, fold := range folds {
		assert.Len(t, fold.TrainFeatures, len(fold.TrainLabels))
		assert.Len(t, fold.TestFeatures, len(fold.TestLabels))
		assert.Equal(t, 17, len(fold.TrainFeatures)+len(fold.TestFeatures))
		for i, example := range fold.TestFeatures {
			seen[example[0]]++
			if example[0] < 100 {
				assert.Equal(t, float64(svm.NegativeLabel), fold.TestLabels[i])
			} else {
				assert.Equal(t, float64(svm.PositiveLabel), fold.TestLabels[i])
			}
		}
	}
	assert.Len(t, seen, 17)
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
}

func TestSplitStratified(t *testing.T) {
	negatives := make([][]float32, 9)
	for i := range negatives {
		negatives[i] = []float32{0}
	}
	positives := make([][]float32, 3)
	for i := range positives {
		positives[i] = []float32{1}
	}
	folds := Split(negatives, positives, 3)
	for _, fold := range folds {
		var testPos int
		for _, label := range fold.TestLabels {
			if label > 0 {
				testPos++
			}
		}
		// each fold validates on a third of each class
		assert.Equal(t, 1, testPos)
		assert.Equal(t, 4, len(fold.TestLabels))
	}
}

func TestFoldDims(t *testing.T) {
	folds := Split([][]float32{{1, 2, 3}, {4, 5, 6}}, [][]float32{{7, 8, 9}, {0, 1, 2}}, 2)
	assert.Equal(t, 3, folds[0].Dims())
}
