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

// Package calibrate maps raw classifier scores to probability estimates
// through a bounded logistic curve fitted by nonlinear least squares.
package calibrate

import (
	"math"

	"github.com/juju/errors"
)

// SigmoidParams define the calibration curve
//
//	prob(score) = lo + (hi-lo) * logistic(scale*(score-shift))
//
// so every probability stays inside [lo, hi].
type SigmoidParams struct {
	ThreshLo float64 `json:"sigmoid_thresh_lo"`
	ThreshHi float64 `json:"sigmoid_thresh_hi"`
	Shift    float64 `json:"sigmoid_shift"`
	Scale    float64 `json:"sigmoid_scale"`
}

// DefaultSigmoidParams returns the initial curve used to seed the fit.
func DefaultSigmoidParams() SigmoidParams {
	return SigmoidParams{ThreshLo: 0.1, ThreshHi: 0.9, Shift: 0, Scale: 1}
}

// Validate checks 0 <= lo < hi <= 1 and scale > 0.
func (p SigmoidParams) Validate() error {
	for _, v := range []float64{p.ThreshLo, p.ThreshHi} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return errors.NotValidf("sigmoid threshold %v", v)
		}
	}
	if p.ThreshLo >= p.ThreshHi {
		return errors.NotValidf("sigmoid thresholds [%v, %v]", p.ThreshLo, p.ThreshHi)
	}
	if math.IsNaN(p.Scale) || p.Scale <= 0 {
		return errors.NotValidf("sigmoid scale %v", p.Scale)
	}
	return nil
}

// Prob maps a raw score to a calibrated probability.
func (p SigmoidParams) Prob(score float64) float64 {
	return p.ThreshLo + (p.ThreshHi-p.ThreshLo)*Logistic(p.Scale*(score-p.Shift))
}

// Logistic is the standard logistic sigmoid, range (0, 1).
func Logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// LogisticInv inverts Logistic. The input is clipped away from 0 and 1 so
// the result stays finite.
func LogisticInv(x float64) float64 {
	x = math.Min(math.Max(x, 0.0001), 0.9999)
	return -math.Log(1.0/x - 1.0)
}
