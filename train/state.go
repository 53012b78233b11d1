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

// Package train orchestrates the full training pipeline and loads the
// resulting classifiers back for use.
package train

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/juju/errors"

	"github.com/sieve-ml/sieve/calibrate"
	"github.com/sieve-ml/sieve/cascade"
	"github.com/sieve-ml/sieve/model/svm"
)

// State is everything a classifier needs at runtime except the kernel model
// itself, which is stored next to it as an opaque blob. A zero sign
// correction marks a cascade-only classifier with no kernel stage.
type State struct {
	Boosters         []cascade.Booster `json:"boosterStates"`
	FeatureSubset    []int             `json:"featureSubset"`
	NormalisingMean  []float64         `json:"normalisingMean"`
	NormalisingScale []float64         `json:"normalisingScale"`
	SignCorrection   float64           `json:"signCorrection"`
	Boundaries       []float64         `json:"boundaries"`
	Precision        []float64         `json:"precision"`
	calibrate.SigmoidParams
	TrainingDetails string `json:"trainingDetails"`
}

// StatePath returns the state file path for a label.
func StatePath(dir, label string) string {
	return filepath.Join(dir, "state-"+label+".json")
}

// ModelPath returns the kernel model file path for a label.
func ModelPath(dir, label string) string {
	return filepath.Join(dir, "model-"+label+".bin")
}

// Save persists the state, and the kernel model when there is one.
func Save(dir, label string, state *State, model *svm.Model) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	if err := os.WriteFile(StatePath(dir, label), data, 0o644); err != nil {
		return errors.Trace(err)
	}
	if state.SignCorrection == 0 {
		return nil
	}
	file, err := os.Create(ModelPath(dir, label))
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	return errors.Trace(model.Marshal(file))
}

// Load reads the state and, for a classifier with a kernel stage, its model.
func Load(dir, label string) (*State, *svm.Model, error) {
	data, err := os.ReadFile(StatePath(dir, label))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if err := state.SigmoidParams.Validate(); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if state.SignCorrection == 0 {
		return &state, nil, nil
	}
	file, err := os.Open(ModelPath(dir, label))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	defer file.Close()
	var model svm.Model
	if err := model.Unmarshal(file); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return &state, &model, nil
}
