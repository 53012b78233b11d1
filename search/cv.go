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
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/sieve-ml/sieve/base/log"
	"github.com/sieve-ml/sieve/eval"
	"github.com/sieve-ml/sieve/model"
	"github.com/sieve-ml/sieve/model/svm"
)

// DimensionPenalty is subtracted from the mean fold score once per selected
// feature dimension, so an extra feature must buy its keep.
const DimensionPenalty = 0.003

// CrossValidator scores hyperparameter sets by k-fold cross-validation.
type CrossValidator struct {
	trainer *svm.Trainer
	weights model.ClassWeights
}

// NewCrossValidator creates a cross-validator with the given class weights.
func NewCrossValidator(weights model.ClassWeights) *CrossValidator {
	return &CrossValidator{
		trainer: svm.NewTrainer(),
		weights: weights,
	}
}

// Score cross-validates one hyperparameter set and stores the penalized score
// and average support-vector count on it. A solver failure scores the fold
// zero instead of aborting the search.
func (cv *CrossValidator) Score(folds []Fold, p *model.Parameterization) {
	var sumScore, sumSVs float64
	for _, fold := range folds {
		m, err := cv.trainer.Train(fold.TrainFeatures, fold.TrainLabels, p.Params, cv.weights)
		if err != nil {
			log.Logger().Warn("cross-validation training failed",
				zap.String("params", p.String()), zap.Error(err))
			continue
		}
		outputs, err := predictRaw(m, fold.TestFeatures)
		if err != nil {
			log.Logger().Warn("cross-validation prediction failed",
				zap.String("params", p.String()), zap.Error(err))
			continue
		}
		sumSVs += float64(m.NumSVs())
		sumScore += eval.Evaluate(fold.TestLabels, outputs, 0, cv.weights).SuccessRate
	}
	k := float64(len(folds))
	p.SetCVScore(sumScore/k-DimensionPenalty*float64(folds[0].Dims()), sumSVs/k)
}

// HeldOutPredictions trains each fold and collects raw outputs on its
// validation half, paired with ground truth. Every example contributes exactly
// one held-out prediction; used for probability calibration.
func (cv *CrossValidator) HeldOutPredictions(folds []Fold, params model.Params) (labels, outputs []float64, err error) {
	for _, fold := range folds {
		m, err := cv.trainer.Train(fold.TrainFeatures, fold.TrainLabels, params, cv.weights)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		foldOutputs, err := predictRaw(m, fold.TestFeatures)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		labels = append(labels, fold.TestLabels...)
		outputs = append(outputs, foldOutputs...)
	}
	return labels, outputs, nil
}

func predictRaw(m *svm.Model, features [][]float32) ([]float64, error) {
	outputs := make([]float64, len(features))
	for i, feat := range features {
		out, err := m.Predict(feat, true)
		if err != nil {
			return nil, errors.Trace(err)
		}
		outputs[i] = out
	}
	return outputs, nil
}
