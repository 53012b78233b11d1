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
	"github.com/juju/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// The optimizer works in unconstrained space: the thresholds are carried as
// their logit so they stay inside (0, 1) by construction.
func paramsFromVector(x []float64) SigmoidParams {
	return SigmoidParams{
		Scale:    x[0],
		Shift:    x[1],
		ThreshHi: Logistic(x[2]),
		ThreshLo: Logistic(x[3]),
	}
}

func vectorFromParams(p SigmoidParams) []float64 {
	return []float64{p.Scale, p.Shift, LogisticInv(p.ThreshHi), LogisticInv(p.ThreshLo)}
}

// Fit fits the calibration curve to held-out raw scores and their +/-1
// ground-truth labels by least squares: one residual per point, probability
// minus the 0/1 target. signCorrection resolves the scores' polarity before
// they enter the curve.
func Fit(labels, scores []float64, signCorrection float64) (SigmoidParams, error) {
	if len(labels) == 0 || len(labels) != len(scores) {
		return SigmoidParams{}, errors.NotValidf("calibration set: %d labels, %d scores", len(labels), len(scores))
	}
	objective := func(x []float64) float64 {
		p := paramsFromVector(x)
		var sum float64
		for i := range scores {
			prob := p.Prob(signCorrection * scores[i])
			target := 0.0
			if labels[i] > 0 {
				target = 1.0
			}
			residual := prob - target
			sum += residual * residual
		}
		return sum
	}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, nil)
		},
	}
	result, err := optimize.Minimize(problem, vectorFromParams(DefaultSigmoidParams()), nil, nil)
	if err != nil {
		return SigmoidParams{}, errors.Trace(err)
	}
	fitted := paramsFromVector(result.X)
	if err := fitted.Validate(); err != nil {
		return SigmoidParams{}, errors.Trace(err)
	}
	return fitted, nil
}
