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

// Package cascade builds and applies the chain of cheap single-feature
// threshold tests that rejects easy negatives before the kernel classifier
// runs.
package cascade

import (
	"fmt"

	"github.com/sieve-ml/sieve/feature"
)

// Booster is one threshold test. It rejects candidates on one side of the
// threshold along a single feature dimension.
type Booster struct {
	FeatureIndex int     `json:"featureIndex"`
	Threshold    float64 `json:"threshold"`
	RejectAbove  bool    `json:"rejectAbove"`
}

// Keep reports whether a candidate with the given feature value passes.
func (b Booster) Keep(value float64) bool {
	if b.RejectAbove {
		return value < b.Threshold
	}
	return value > b.Threshold
}

// KeepVector applies the test to a materialized feature vector.
func (b Booster) KeepVector(values []float32) bool {
	return b.Keep(float64(values[b.FeatureIndex]))
}

// KeepProvider applies the test through a lazy provider, computing only the
// tested coordinate.
func (b Booster) KeepProvider(p feature.Provider) bool {
	return b.Keep(float64(p.Value(b.FeatureIndex)))
}

func (b Booster) String() string {
	op := ">"
	if b.RejectAbove {
		op = "<"
	}
	return fmt.Sprintf("keep feature[%d] %s %v", b.FeatureIndex, op, b.Threshold)
}

// Cascade is an ordered sequence of boosters applied in insertion order. An
// empty cascade passes everything.
type Cascade []Booster

// Keep reports whether a candidate passes every booster.
func (c Cascade) Keep(p feature.Provider) bool {
	for _, b := range c {
		if !b.KeepProvider(p) {
			return false
		}
	}
	return true
}

// KeepVector reports whether a materialized vector passes every booster.
func (c Cascade) KeepVector(values []float32) bool {
	for _, b := range c {
		if !b.KeepVector(values) {
			return false
		}
	}
	return true
}
