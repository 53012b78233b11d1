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

package feature

import (
	"math"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/stat"
)

// Coefficients center and scale every feature dimension. Both vectors cover
// the full dimension even when only a subset of features is selected.
type Coefficients struct {
	Mean  []float64
	Scale []float64
}

// FitCoefficients computes per-dimension (mean, 1/stddev) over the union of
// both classes. A zero standard deviation yields scale 1. A non-finite scale
// means the data is broken and fails with a not-valid error.
func FitCoefficients(set *Set) (Coefficients, error) {
	dims := set.Dimension()
	if dims == 0 {
		return Coefficients{}, errors.NotValidf("empty example set")
	}
	coeffs := Coefficients{
		Mean:  make([]float64, dims),
		Scale: make([]float64, dims),
	}
	neg, pos := set.Counts()
	values := make([]float64, 0, neg+pos)
	for d := 0; d < dims; d++ {
		values = values[:0]
		for _, class := range [][][]float32{set.Negatives(), set.Positives()} {
			for _, example := range class {
				values = append(values, float64(example[d]))
			}
		}
		mean := stat.Mean(values, nil)
		sd := math.Sqrt(stat.PopVariance(values, nil))
		scale := 1.0
		if sd > 0 {
			scale = 1.0 / sd
		}
		if math.IsNaN(scale) || math.IsInf(scale, 0) || math.IsNaN(mean) {
			return Coefficients{}, errors.NotValidf("normalization scale for dimension %d", d)
		}
		coeffs.Mean[d] = mean
		coeffs.Scale[d] = scale
	}
	return coeffs, nil
}

// SubsetSelector picks an ordered subset of feature indices and normalizes
// the selected coordinates.
type SubsetSelector struct {
	Subset []int
	Coeffs Coefficients
}

// SelectNormalize returns the normalized selected coordinates of a
// materialized vector.
func (s SubsetSelector) SelectNormalize(values []float32) []float32 {
	selected := make([]float32, len(s.Subset))
	for i, idx := range s.Subset {
		selected[i] = float32(s.Coeffs.Scale[idx] * (float64(values[idx]) - s.Coeffs.Mean[idx]))
	}
	return selected
}

// SelectNormalizeProvider is SelectNormalize over a lazy provider: only the
// selected coordinates are computed.
func (s SubsetSelector) SelectNormalizeProvider(p Provider) []float32 {
	selected := make([]float32, len(s.Subset))
	for i, idx := range s.Subset {
		selected[i] = float32(s.Coeffs.Scale[idx] * (float64(p.Value(idx)) - s.Coeffs.Mean[idx]))
	}
	return selected
}
