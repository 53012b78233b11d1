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

package svm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieve-ml/sieve/base/encoding"
	"github.com/sieve-ml/sieve/model"
)

func separableTrainingSet() (features [][]float32, labels []float64) {
	for i := 0; i < 20; i++ {
		jitter := float32(i%5) * 0.1
		features = append(features, []float32{-1 - jitter, -1 + jitter})
		labels = append(labels, NegativeLabel)
		features = append(features, []float32{1 + jitter, 1 - jitter})
		labels = append(labels, PositiveLabel)
	}
	return features, labels
}

func TestTrainLinear(t *testing.T) {
	features, labels := separableTrainingSet()
	m, err := NewTrainer().Train(features, labels,
		model.Params{model.Nu: 0.3, model.Gamma: -1.0}, model.ClassWeights{-1, 1})
	require.NoError(t, err)
	assert.Positive(t, m.NumSVs())

	// the solver's polarity is unknown, but it must separate the classes
	negOut, err := m.Predict([]float32{-1, -1}, false)
	require.NoError(t, err)
	posOut, err := m.Predict([]float32{1, 1}, false)
	require.NoError(t, err)
	assert.NotEqual(t, negOut, posOut)
	assert.Contains(t, []float64{NegativeLabel, PositiveLabel}, negOut)
	assert.Contains(t, []float64{NegativeLabel, PositiveLabel}, posOut)

	// raw decision values sit on opposite sides of zero
	negRaw, err := m.Predict([]float32{-1, -1}, true)
	require.NoError(t, err)
	posRaw, err := m.Predict([]float32{1, 1}, true)
	require.NoError(t, err)
	assert.Negative(t, negRaw*posRaw)
}

func TestTrainRBF(t *testing.T) {
	features, labels := separableTrainingSet()
	m, err := NewTrainer().Train(features, labels,
		model.Params{model.Nu: 0.3, model.Gamma: 0.5}, model.ClassWeights{-1, 1})
	require.NoError(t, err)
	negOut, err := m.Predict([]float32{-1, -1}, false)
	require.NoError(t, err)
	posOut, err := m.Predict([]float32{1, 1}, false)
	require.NoError(t, err)
	assert.NotEqual(t, negOut, posOut)
}

func TestTrainBadInput(t *testing.T) {
	_, err := NewTrainer().Train(nil, nil, model.Params{}, model.ClassWeights{-1, 1})
	assert.Error(t, err)
	_, err = NewTrainer().Train([][]float32{{1}}, []float64{1, -1}, model.Params{}, model.ClassWeights{-1, 1})
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	features, labels := separableTrainingSet()
	m, err := NewTrainer().Train(features, labels,
		model.Params{model.Nu: 0.3, model.Gamma: 0.5}, model.ClassWeights{-1, 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Marshal(&buf))
	var restored Model
	require.NoError(t, restored.Unmarshal(&buf))
	assert.Equal(t, m.NumSVs(), restored.NumSVs())

	probe := []float32{0.3, -0.7}
	want, err := m.Predict(probe, true)
	require.NoError(t, err)
	got, err := restored.Predict(probe, true)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

func TestTrainDefaultParams(t *testing.T) {
	features, labels := separableTrainingSet()
	m, err := NewTrainer().Train(features, labels, model.Params{}, model.ClassWeights{-1, 1})
	require.NoError(t, err)
	negOut, err := m.Predict([]float32{-1, -1}, false)
	require.NoError(t, err)
	posOut, err := m.Predict([]float32{1, 1}, false)
	require.NoError(t, err)
	assert.NotEqual(t, negOut, posOut)
}

func TestUnmarshalRejectsForeignBlob(t *testing.T) {
	features, labels := separableTrainingSet()
	m, err := NewTrainer().Train(features, labels,
		model.Params{model.Nu: 0.3, model.Gamma: 0.5}, model.ClassWeights{-1, 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, encoding.WriteString(&buf, "not-a-model"))
	require.NoError(t, encoding.WriteGob(&buf, m.model))
	var restored Model
	err = restored.Unmarshal(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-model")
}
