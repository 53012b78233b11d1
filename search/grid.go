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
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/sieve-ml/sieve/base/log"
	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/model"
)

// BuildGrid expands the configured nu and gamma ranges into the cross product
// of candidate parameterizations. Nu is spaced logarithmically in the
// configured base, gamma in base e.
func BuildGrid(conf config.GridConfig) []*model.Parameterization {
	logBase := math.Log(conf.NuBase)
	nuValues := logSpaced(
		math.Log(conf.NuLow)/logBase, math.Log(conf.NuHigh)/logBase, conf.NuSteps,
		func(v float64) float64 { return math.Pow(conf.NuBase, v) })
	gammaValues := logSpaced(conf.LogGammaLow, conf.LogGammaHigh, conf.GammaSteps, math.Exp)
	paramsGrid := model.ParamsGrid{
		model.Nu:    lo.ToAnySlice(nuValues),
		model.Gamma: lo.ToAnySlice(gammaValues),
	}
	log.Logger().Debug("built hyperparameter grid",
		zap.Int("params", paramsGrid.Len()),
		zap.Int("combinations", paramsGrid.NumCombinations()))

	grid := make([]*model.Parameterization, 0, paramsGrid.NumCombinations())
	for _, gamma := range paramsGrid[model.Gamma] {
		for _, nu := range paramsGrid[model.Nu] {
			grid = append(grid, model.NewParameterization(model.Params{
				model.Nu:    nu,
				model.Gamma: gamma,
			}))
		}
	}
	return grid
}

// logSpaced walks [lo, hi) with step (hi-lo)/(steps-0.999): the slightly
// enlarged step yields exactly steps values with the last one just under hi.
func logSpaced(lo, hi float64, steps int, transform func(float64) float64) []float64 {
	step := (hi - lo) / (float64(steps) - 0.999)
	var values []float64
	for v := lo; v < hi; v += step {
		values = append(values, transform(v))
	}
	return values
}

// FilterTop keeps the best-scoring parameterizations. The best hyperparameters
// are about the same for every subset, so once the subsets grow large only the
// top candidates are carried forward.
func FilterTop(grid []*model.Parameterization, keep int) []*model.Parameterization {
	if len(grid) <= keep {
		return grid
	}
	sorted := make([]*model.Parameterization, len(grid))
	copy(sorted, grid)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CVScore() > sorted[j].CVScore()
	})
	return sorted[:keep]
}
