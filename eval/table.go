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

package eval

import (
	"math"

	"github.com/juju/errors"

	"github.com/sieve-ml/sieve/model"
)

// Sweep bounds for the precision table: boundaries -1 to 1 in steps of 0.1.
const (
	sweepLow   = -1.0
	sweepStep  = 0.1
	sweepCount = 21
)

// Table maps decision boundaries to the precision measured at them. Built
// once per final model, immutable afterwards, used only for interpolation.
type Table struct {
	Boundaries []float64 `json:"boundaries"`
	Precision  []float64 `json:"precision"`
}

// BuildTable sweeps the decision boundary from -1 to 1 in steps of 0.1 and
// records the precision at each. Boundaries where precision is undefined
// (no predicted positives) are left out.
func BuildTable(labels, outputs []float64, weights model.ClassWeights) Table {
	var table Table
	for i := 0; i < sweepCount; i++ {
		boundary := sweepLow + sweepStep*float64(i)
		result := Evaluate(labels, outputs, boundary, weights)
		if math.IsNaN(result.Precision) || math.IsInf(result.Precision, 0) {
			continue
		}
		table.Boundaries = append(table.Boundaries, boundary)
		table.Precision = append(table.Precision, result.Precision)
	}
	return table
}

// Len returns the number of table entries.
func (t Table) Len() int {
	return len(t.Boundaries)
}

// Interpolate returns the decision boundary matching the target precision,
// by fitting a straight line through the two entries whose precision is
// nearest the target. A target equal to an existing entry returns that
// entry's boundary exactly.
func (t Table) Interpolate(target float64) (float64, error) {
	if t.Len() < 2 {
		return 0, errors.NotValidf("precision table with %d entries", t.Len())
	}
	boundary1, boundary2 := 0.0, 0.0
	p1, p2 := math.Inf(1), math.Inf(1)
	for i := range t.Boundaries {
		boundary := t.Boundaries[i]
		precision := t.Precision[i]
		if math.Abs(precision-target) < math.Abs(p1-target) {
			p2, boundary2 = p1, boundary1
			p1, boundary1 = precision, boundary
		} else if math.Abs(precision-target) < math.Abs(p2-target) {
			p2, boundary2 = precision, boundary
		}
	}
	if p1 == p2 {
		return 0, errors.NotValidf("degenerate precision table around %v", target)
	}
	// boundary = m*precision + c through the two nearest entries
	m := (boundary2 - boundary1) / (p2 - p1)
	c := boundary1 - m*p1
	return target*m + c, nil
}
