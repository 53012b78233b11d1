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
	"encoding/json"
	"fmt"
)

// ParamName is the type of hyperparameter names.
type ParamName string

// Predefined hyperparameter names.
const (
	// Nu is the regularization strength of the nu-SVC solver.
	Nu ParamName = "nu"
	// Gamma is the RBF kernel width. A non-positive value degenerates to a
	// linear kernel.
	Gamma ParamName = "gamma"
)

// Params stores hyperparameters for a classifier. It is a map between names
// and values:
//
//	model.Params{
//		model.Nu:    0.01,
//		model.Gamma: 0.001,
//	}
type Params map[ParamName]interface{}

// Copy hyperparameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetFloat64 gets a float parameter by name. Returns _default if not exists.
func (parameters Params) GetFloat64(name ParamName, _default float64) float64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		}
	}
	return _default
}

// Overwrite merges params over the receiver into a new Params.
func (parameters Params) Overwrite(params Params) Params {
	merged := make(Params)
	for k, v := range parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		return fmt.Sprintf("%v", map[ParamName]interface{}(parameters))
	}
	return string(b)
}

// ParamsGrid contains candidates for grid search.
type ParamsGrid map[ParamName][]interface{}

func (grid ParamsGrid) Len() int {
	return len(grid)
}

// NumCombinations returns the size of the cross product of all candidates.
func (grid ParamsGrid) NumCombinations() int {
	count := 1
	for _, values := range grid {
		count *= len(values)
	}
	return count
}
