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
	"sync"
)

// Set holds collected labelled examples, negatives and positives separately.
// Appends from concurrent producers are serialized by a mutex; reads must not
// start before collection is complete. Filtering returns a fresh Set and may
// only shrink either class, never grow it.
type Set struct {
	mu             sync.Mutex
	dropDuplicates bool
	// examples[0] negatives, examples[1] positives
	examples [2][][]float32
}

// NewSet creates an empty example set.
func NewSet(dropDuplicates bool) *Set {
	return &Set{dropDuplicates: dropDuplicates}
}

func labelIndex(positive bool) int {
	if positive {
		return 1
	}
	return 0
}

func vectorsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Add computes the entire feature vector and appends it under the label.
func (s *Set) Add(p Provider, positive bool) {
	values := make([]float32, p.Dimension())
	for i := range values {
		values[i] = p.Value(i)
	}
	s.AddVector(values, positive)
}

// AddVector appends a materialized vector under the label. The set owns the
// slice afterwards.
func (s *Set) AddVector(values []float32, positive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	label := labelIndex(positive)
	if s.dropDuplicates {
		for _, existing := range s.examples[label] {
			if vectorsEqual(existing, values) {
				return
			}
		}
	}
	s.examples[label] = append(s.examples[label], values)
}

// Negatives returns the negative examples. Read-only after collection.
func (s *Set) Negatives() [][]float32 {
	return s.examples[0]
}

// Positives returns the positive examples. Read-only after collection.
func (s *Set) Positives() [][]float32 {
	return s.examples[1]
}

// ByLabel returns one class, false for negatives and true for positives.
func (s *Set) ByLabel(positive bool) [][]float32 {
	return s.examples[labelIndex(positive)]
}

// Counts returns the (negative, positive) example counts.
func (s *Set) Counts() (neg, pos int) {
	return len(s.examples[0]), len(s.examples[1])
}

// Dimension returns the feature dimension, or 0 for an empty set.
func (s *Set) Dimension() int {
	for _, class := range s.examples {
		if len(class) > 0 {
			return len(class[0])
		}
	}
	return 0
}

// Filter returns a new set holding only the examples keep accepts. The
// original set is left untouched.
func (s *Set) Filter(keep func(values []float32) bool) *Set {
	filtered := NewSet(s.dropDuplicates)
	for label, class := range s.examples {
		for _, values := range class {
			if keep(values) {
				filtered.examples[label] = append(filtered.examples[label], values)
			}
		}
	}
	return filtered
}
