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

package calibrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbStaysBounded(t *testing.T) {
	p := SigmoidParams{ThreshLo: 0.1, ThreshHi: 0.9, Shift: 0, Scale: 1}
	previous := 0.0
	for _, score := range []float64{-100, -2, -0.5, 0, 0.5, 2, 100} {
		prob := p.Prob(score)
		assert.GreaterOrEqual(t, prob, p.ThreshLo)
		assert.LessOrEqual(t, prob, p.ThreshHi)
		assert.Greater(t, prob, previous)
		previous = prob
	}
	// at the shift the curve sits halfway between the thresholds
	assert.InDelta(t, 0.5, p.Prob(0), 1e-12)
}

func TestLogisticInv(t *testing.T) {
	for _, x := range []float64{0.001, 0.3, 0.5, 0.9} {
		assert.InDelta(t, x, Logistic(LogisticInv(x)), 1e-9)
	}
	// out-of-range inputs are clipped instead of blowing up
	assert.Equal(t, LogisticInv(0.0001), LogisticInv(0))
	assert.Equal(t, LogisticInv(0.9999), LogisticInv(1))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultSigmoidParams().Validate())
	assert.Error(t, SigmoidParams{ThreshLo: 0.9, ThreshHi: 0.1, Scale: 1}.Validate())
	assert.Error(t, SigmoidParams{ThreshLo: -0.1, ThreshHi: 0.9, Scale: 1}.Validate())
	assert.Error(t, SigmoidParams{ThreshLo: 0.1, ThreshHi: 1.1, Scale: 1}.Validate())
	assert.Error(t, SigmoidParams{ThreshLo: 0.1, ThreshHi: 0.9, Scale: 0}.Validate())
	assert.Error(t, SigmoidParams{ThreshLo: 0.1, ThreshHi: 0.9, Scale: -1}.Validate())
}

func TestFitSeparatedScores(t *testing.T) {
	var labels, scores []float64
	for i := 0; i < 20; i++ {
		jitter := float64(i%5) * 0.05
		labels = append(labels, 1)
		scores = append(scores, 2+jitter)
		labels = append(labels, -1)
		scores = append(scores, -2-jitter)
	}
	fitted, err := Fit(labels, scores, 1)
	require.NoError(t, err)
	require.NoError(t, fitted.Validate())
	probPos := fitted.Prob(2)
	probNeg := fitted.Prob(-2)
	assert.Greater(t, probPos, 0.5)
	assert.Less(t, probNeg, 0.5)
	assert.Greater(t, probPos, probNeg+0.2)
}

func TestFitInvertedScores(t *testing.T) {
	// a negative sign correction resolves inverted polarity before fitting
	var labels, scores []float64
	for i := 0; i < 20; i++ {
		labels = append(labels, 1)
		scores = append(scores, -2)
		labels = append(labels, -1)
		scores = append(scores, 2)
	}
	fitted, err := Fit(labels, scores, -1)
	require.NoError(t, err)
	assert.Greater(t, fitted.Prob(2), 0.5)
}

func TestFitBadInput(t *testing.T) {
	_, err := Fit(nil, nil, 1)
	assert.Error(t, err)
	_, err = Fit([]float64{1}, []float64{1, 2}, 1)
	assert.Error(t, err)
}
