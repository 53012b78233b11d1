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

// Package svm wraps the libsvm solver behind the trainer contract used by
// the search and training layers. The solver is treated as opaque: polarity
// of the raw decision value is resolved downstream by sign correction.
package svm

import (
	"io"

	"github.com/datastream/libsvm"
	"github.com/juju/errors"

	"github.com/sieve-ml/sieve/base/encoding"
	"github.com/sieve-ml/sieve/model"
)

// Labels of the two classes on the solver side.
const (
	PositiveLabel = 1
	NegativeLabel = -1
)

// Model is a trained kernel classifier.
type Model struct {
	model *libsvm.SVMModel
}

// Trainer trains nu-SVC models through libsvm.
type Trainer struct{}

// NewTrainer creates a trainer. A fresh solver instance is used per call, so
// one trainer may be shared across worker goroutines.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// defaultParams backs any hyperparameter the caller leaves unset: moderate
// regularization and a linear kernel.
var defaultParams = model.Params{
	model.Nu:    0.1,
	model.Gamma: -1.0,
}

func newParameter(params model.Params, classWeights model.ClassWeights) *libsvm.SVMParameter {
	params = defaultParams.Overwrite(params)
	nu := params.GetFloat64(model.Nu, 0.1)
	gamma := params.GetFloat64(model.Gamma, -1)
	param := &libsvm.SVMParameter{
		SvmType:     libsvm.NUSVC,
		KernelType:  libsvm.LINEAR,
		Nu:           nu,
		C:            nu,
		CacheSize:   100,
		Eps:          1e-3,
		Shrinking:    1,
		WeightLabel: []int{NegativeLabel, PositiveLabel},
		Weight:       []float64{classWeights[0], classWeights[1]},
		NrWeight:    2,
	}
	if gamma > 0 {
		param.KernelType = libsvm.RBF
		param.Gamma = gamma
	}
	return param
}

func denseToNodes(feature []float32) []libsvm.SVMNode {
	nodes := make([]libsvm.SVMNode, len(feature))
	for i, v := range feature {
		nodes[i].Index = i + 1
		nodes[i].Value = float64(v)
	}
	return nodes
}

// Train fits a model on the given features and +/-1 labels. The class weight
// pair is (negative, positive); absolute values are handed to the solver.
func (t *Trainer) Train(features [][]float32, labels []float64, params model.Params, classWeights model.ClassWeights) (m *Model, err error) {
	if len(features) == 0 || len(features) != len(labels) {
		return nil, errors.Errorf("bad training set: %d features, %d labels", len(features), len(labels))
	}
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, errors.Errorf("svm train: %v", r)
		}
	}()
	prob := &libsvm.SVMProblem{
		L: len(features),
		Y: labels,
		X: make([][]libsvm.SVMNode, len(features)),
	}
	for i, feature := range features {
		prob.X[i] = denseToNodes(feature)
	}
	solver := libsvm.NewSvm()
	param := newParameter(params, model.ClassWeights{abs(classWeights[0]), abs(classWeights[1])})
	if msg := solver.SVMCheckParameter(prob, param); msg != "" {
		return nil, errors.New(msg)
	}
	return &Model{model: solver.SVMTrain(prob, param)}, nil
}

// Predict returns the classifier output for one feature vector. With raw set
// the full decision value is returned, otherwise the predicted +/-1 label.
// Solver panics are converted to errors so a bad prediction never takes down
// a search job.
func (m *Model) Predict(feature []float32, raw bool) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score, err = 0, errors.Errorf("svm predict: %v", r)
		}
	}()
	solver := libsvm.NewSvm()
	x := denseToNodes(feature)
	if raw {
		decValues := make([]float64, 1)
		solver.SVMPredictValues(m.model, x, decValues)
		return decValues[0], nil
	}
	return solver.SVMPredict(m.model, x), nil
}

// NumSVs returns the support-vector count of the trained model.
func (m *Model) NumSVs() int {
	return m.model.L
}

// modelFormat tags persisted model blobs so a stale or foreign file fails
// fast instead of gob-decoding into garbage.
const modelFormat = "sieve.svm.v1"

// Marshal writes the model to a byte stream.
func (m *Model) Marshal(w io.Writer) error {
	if err := encoding.WriteString(w, modelFormat); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteGob(w, m.model))
}

// Unmarshal reads the model from a byte stream.
func (m *Model) Unmarshal(r io.Reader) error {
	format, err := encoding.ReadString(r)
	if err != nil {
		return errors.Trace(err)
	}
	if format != modelFormat {
		return errors.NotValidf("model format %q", format)
	}
	m.model = new(libsvm.SVMModel)
	return errors.Trace(encoding.ReadGob(r, m.model))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
