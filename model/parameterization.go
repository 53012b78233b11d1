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

package model

import (
	"fmt"
	"math"
)

// Parameterization pairs a hyperparameter set with the result of its
// cross-validation run. The score is set exactly once, after evaluation.
type Parameterization struct {
	Params Params
	score  float64
	numSVs float64
	scored bool
}

// NewParameterization creates an unevaluated parameterization.
func NewParameterization(params Params) *Parameterization {
	return &Parameterization{
		Params: params,
		score:  math.Inf(-1),
	}
}

// Clone returns an unevaluated copy with the same hyperparameters.
func (p *Parameterization) Clone() *Parameterization {
	return NewParameterization(p.Params.Copy())
}

// SetCVScore records the penalized cross-validation score and the average
// support-vector count.
func (p *Parameterization) SetCVScore(score, numSVs float64) {
	p.score = score
	p.numSVs = numSVs
	p.scored = true
}

// CVScore returns the penalized cross-validation score, or -Inf when the
// parameterization has not been evaluated.
func (p *Parameterization) CVScore() float64 {
	return p.score
}

// NumSVs returns the average support-vector count across folds.
func (p *Parameterization) NumSVs() float64 {
	return p.numSVs
}

// Scored reports whether the parameterization has been evaluated.
func (p *Parameterization) Scored() bool {
	return p.scored
}

func (p *Parameterization) String() string {
	return fmt.Sprintf("nu=%v gamma=%v", p.Params.GetFloat64(Nu, -1), p.Params.GetFloat64(Gamma, -1))
}
