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

// Package feature holds labelled feature collections and per-dimension
// normalization for the classifier pipeline.
package feature

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Provider computes coordinates of one feature vector. Implementations may
// compute values lazily; the dimension is fixed and known up front.
type Provider interface {
	// Value returns the coordinate at index.
	Value(index int) float32
	// Dimension returns the total number of coordinates.
	Dimension() int
}

// Cached wraps a per-index compute function with lazy, memoized evaluation.
// Expensive coordinates are only computed when a cascade test or the
// classifier actually reads them.
type Cached struct {
	compute func(index int) float32
	values  []float32
	known   []bool
}

// NewCached creates a lazily evaluated feature vector of the given dimension.
func NewCached(dimension int, compute func(index int) float32) *Cached {
	return &Cached{
		compute: compute,
		values:  make([]float32, dimension),
		known:   make([]bool, dimension),
	}
}

// Value returns the coordinate at index, computing and caching it on first
// access. Non-finite values indicate a broken extractor and panic eagerly.
func (c *Cached) Value(index int) float32 {
	if !c.known[index] {
		v := c.compute(index)
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			panic(fmt.Sprintf("non-finite feature value %v at index %d", v, index))
		}
		c.values[index] = v
		c.known[index] = true
	}
	return c.values[index]
}

// Dimension returns the total number of coordinates.
func (c *Cached) Dimension() int {
	return len(c.values)
}

// Entire computes every coordinate and returns the full vector. Used when
// collecting training examples.
func (c *Cached) Entire() []float32 {
	for i := range c.values {
		c.Value(i)
	}
	return c.values
}

// Vector adapts a materialized feature vector to the Provider interface.
type Vector []float32

func (v Vector) Value(index int) float32 {
	return v[index]
}

func (v Vector) Dimension() int {
	return len(v)
}
