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

package train

import (
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/sieve-ml/sieve/base/log"
	"github.com/sieve-ml/sieve/cascade"
	"github.com/sieve-ml/sieve/eval"
	"github.com/sieve-ml/sieve/feature"
	"github.com/sieve-ml/sieve/model/svm"
)

// RejectedScore is the score of a candidate the cascade rejects outright.
const RejectedScore = -1.0

// Classifier is the runtime side of a trained pipeline: cascade first, then
// the normalized kernel stage. A classifier without a kernel stage accepts
// everything passing the cascade.
type Classifier struct {
	state    *State
	model    *svm.Model
	cascade  cascade.Cascade
	selector feature.SubsetSelector
	boundary float64
}

// NewClassifier builds a classifier from trained state. model may be nil for
// a cascade-only classifier.
func NewClassifier(state *State, model *svm.Model) *Classifier {
	return &Classifier{
		state:   state,
		model:   model,
		cascade: cascade.Cascade(state.Boosters),
		selector: feature.SubsetSelector{
			Subset: state.FeatureSubset,
			Coeffs: feature.Coefficients{Mean: state.NormalisingMean, Scale: state.NormalisingScale},
		},
	}
}

// LoadClassifier loads a previously trained classifier for the label.
func LoadClassifier(dir, label string) (*Classifier, error) {
	state, model, err := Load(dir, label)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewClassifier(state, model), nil
}

// SetTargetPrecision moves the decision boundary to where the training sweep
// measured the target precision, interpolating between the two nearest
// entries. Fails when the sweep has too few usable entries.
func (c *Classifier) SetTargetPrecision(target float64) error {
	table := eval.Table{Boundaries: c.state.Boundaries, Precision: c.state.Precision}
	boundary, err := table.Interpolate(target)
	if err != nil {
		return errors.Trace(err)
	}
	c.boundary = boundary
	return nil
}

// Score returns the decision score of one candidate. Positive means the
// positive class. Cascade rejections score RejectedScore without touching
// the kernel stage.
func (c *Classifier) Score(p feature.Provider) float64 {
	if !c.cascade.Keep(p) {
		return RejectedScore
	}
	if c.state.SignCorrection == 0 {
		return 1
	}
	raw, err := c.model.Predict(c.selector.SelectNormalizeProvider(p), true)
	if err != nil {
		log.Logger().Warn("prediction failed, rejecting candidate", zap.Error(err))
		return RejectedScore
	}
	return c.state.SignCorrection * (raw - c.boundary)
}

// Classify reports whether the candidate belongs to the positive class.
func (c *Classifier) Classify(p feature.Provider) bool {
	return eval.Class(c.Score(p))
}

// Probability returns the calibrated probability that the candidate is
// positive, along with the underlying decision score.
func (c *Classifier) Probability(p feature.Provider) (prob, score float64) {
	score = c.Score(p)
	return c.state.SigmoidParams.Prob(score), score
}

// TrainingDetails returns the human-readable training summary.
func (c *Classifier) TrainingDetails() string {
	return c.state.TrainingDetails
}
