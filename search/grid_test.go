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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/model"
)

func testGridConfig() config.GridConfig {
	return config.GridConfig{
		NuLow:        0.0005,
		NuHigh:       0.4,
		NuSteps:      10,
		NuBase:       1.5,
		LogGammaLow:  -14,
		LogGammaHigh: 5,
		GammaSteps:   10,
	}
}

func TestBuildGrid(t *testing.T) {
	grid := BuildGrid(testGridConfig())
	require.Len(t, grid, 100)

	nus := make(map[float64]struct{})
	gammas := make(map[float64]struct{})
	for _, p := range grid {
		nu := p.Params.GetFloat64(model.Nu, -1)
		gamma := p.Params.GetFloat64(model.Gamma, -1)
		assert.GreaterOrEqual(t, nu, 0.0005*(1-1e-12))
		assert.Less(t, nu, 0.4)
		assert.GreaterOrEqual(t, math.Log(gamma), -14.0*(1+1e-12))
		assert.Less(t, math.Log(gamma), 5.0)
		nus[nu] = struct{}{}
		gammas[gamma] = struct{}{}
	}
	assert.Len(t, nus, 10)
	assert.Len(t, gammas, 10)
}

func TestLogSpaced(t *testing.T) {
	values := logSpaced(0, 1, 4, func(v float64) float64 { return v })
	require.Len(t, values, 4)
	assert.Equal(t, 0.0, values[0])
	assert.Less(t, values[3], 1.0)
	assert.Greater(t, values[3], 0.9)
}

func TestFilterTop(t *testing.T) {
	grid := make([]*model.Parameterization, 6)
	for i := range grid {
		grid[i] = model.NewParameterization(model.Params{model.Nu: float64(i)})
		grid[i].SetCVScore(float64(i), 0)
	}
	filtered := FilterTop(grid, 3)
	require.Len(t, filtered, 3)
	for i, p := range filtered {
		assert.Equal(t, float64(5-i), p.CVScore())
	}
	// nothing to filter when the grid already fits
	assert.Len(t, FilterTop(grid[:2], 3), 2)
}
