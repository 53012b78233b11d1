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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/sieve-ml/sieve/base/log"
	"github.com/sieve-ml/sieve/calibrate"
	"github.com/sieve-ml/sieve/cascade"
	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/eval"
	"github.com/sieve-ml/sieve/feature"
	"github.com/sieve-ml/sieve/model"
	"github.com/sieve-ml/sieve/model/svm"
	"github.com/sieve-ml/sieve/search"
)

// minExamplesPerClass is the smallest class size the kernel stage trains on.
// Below it only the cascade is built.
const minExamplesPerClass = 20

// Trainer collects labelled examples and trains a classifier from them.
// Add may be called from concurrent producers; Train must only run after
// collection is finished.
type Trainer struct {
	conf  *config.Config
	label string
	set   *feature.Set

	featuresLog *os.File
}

// NewTrainer creates a trainer writing its artifacts for the given label
// under the configured directory.
func NewTrainer(conf *config.Config, label string) (*Trainer, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := os.MkdirAll(conf.Dir, 0o755); err != nil {
		return nil, errors.Trace(err)
	}
	featuresLog, err := os.Create(filepath.Join(conf.Dir, label+"-features.tsv"))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Trainer{
		conf:        conf,
		label:       label,
		set:         feature.NewSet(conf.DropDuplicates),
		featuresLog: featuresLog,
	}, nil
}

// Add collects one labelled training example. The full feature vector is
// computed up front and logged.
func (t *Trainer) Add(p feature.Provider, positive bool) {
	values := make([]float32, p.Dimension())
	for i := range values {
		values[i] = p.Value(i)
	}
	t.logFeatures(values, positive)
	t.set.AddVector(values, positive)
}

func (t *Trainer) logFeatures(values []float32, positive bool) {
	label := svm.NegativeLabel
	if positive {
		label = svm.PositiveLabel
	}
	row := make([]string, 0, len(values)+1)
	row = append(row, fmt.Sprintf("%d", label))
	for _, v := range values {
		row = append(row, fmt.Sprintf("%v", v))
	}
	_, _ = fmt.Fprintln(t.featuresLog, strings.Join(row, "\t"))
}

// Train runs the full pipeline on the collected examples and persists the
// result: cascade construction, normalization, subset and hyperparameter
// search, final retrain, boundary sweep and probability calibration.
func (t *Trainer) Train(ctx context.Context) (*Classifier, error) {
	defer t.featuresLog.Close()

	neg, pos := t.set.Counts()
	log.Logger().Info("training classifier",
		zap.String("label", t.label), zap.Int("negatives", neg), zap.Int("positives", pos))

	builder := cascade.NewBuilder(t.conf.Cascade)
	casc, filtered := builder.Build(t.set)

	// the kernel stage trains on what survives the cascade
	negLeft, posLeft := filtered.Counts()
	if negLeft < minExamplesPerClass || posLeft < minExamplesPerClass {
		log.Logger().Warn("too few examples for a kernel stage, keeping cascade only",
			zap.String("label", t.label), zap.Int("negatives", negLeft), zap.Int("positives", posLeft))
		state := &State{
			Boosters:      casc,
			SigmoidParams: calibrate.DefaultSigmoidParams(),
			TrainingDetails: fmt.Sprintf("cascade-only classifier: %d boosters, %d negatives, %d positives",
				len(casc), negLeft, posLeft),
		}
		if err := Save(t.conf.Dir, t.label, state, nil); err != nil {
			return nil, errors.Trace(err)
		}
		return NewClassifier(state, nil), nil
	}

	weights := classWeights(filtered, t.conf.NegativeWeight)
	coeffs, err := feature.FitCoefficients(filtered)
	if err != nil {
		return nil, errors.Trace(err)
	}

	searcher := search.NewSearcher(t.conf, weights)
	allResults, bestResults, err := t.openResultLogs()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer allResults.Close()
	defer bestResults.Close()
	searcher.SetResultLogs(allResults, bestResults)
	searcher.SetSurfaceDir(filepath.Join(t.conf.Dir, "surfaces"))

	result, err := searcher.Search(ctx, filtered, coeffs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("subset search finished",
		zap.String("subset", search.SubsetKey(result.Subset)),
		zap.Float64("score", result.Score),
		zap.Float64("avg_svs", result.NumSVs))

	// Retrain the winning configuration on everything.
	selector := feature.SubsetSelector{Subset: result.Subset, Coeffs: coeffs}
	allFeatures, allLabels := t.selectAll(selector, filtered)
	kernelModel, err := svm.NewTrainer().Train(allFeatures, allLabels, result.Params, weights)
	if err != nil {
		return nil, errors.Trace(err)
	}
	outputs, err := predictAll(kernelModel, allFeatures)
	if err != nil {
		return nil, errors.Trace(err)
	}
	trainingResult := eval.Evaluate(allLabels, outputs, 0, weights)
	table := eval.BuildTable(allLabels, outputs, weights)
	if err := t.dumpDecisionBoundaries(kernelModel, result); err != nil {
		return nil, errors.Trace(err)
	}

	// Calibrate on held-out predictions so the probabilities are not fitted
	// to outputs the model has already memorized.
	sigmoid := calibrate.DefaultSigmoidParams()
	folds := searcher.EvaluateFolds(filtered, coeffs, result.Subset)
	heldOutLabels, heldOutOutputs, err := searcher.CrossValidator().HeldOutPredictions(folds, result.Params)
	if err == nil {
		sigmoid, err = calibrate.Fit(heldOutLabels, heldOutOutputs, trainingResult.SignCorrection)
	}
	if err != nil {
		log.Logger().Warn("probability calibration failed, keeping defaults", zap.Error(err))
		sigmoid = calibrate.DefaultSigmoidParams()
	}

	state := &State{
		Boosters:         casc,
		FeatureSubset:    result.Subset,
		NormalisingMean:  coeffs.Mean,
		NormalisingScale: coeffs.Scale,
		SignCorrection:   trainingResult.SignCorrection,
		Boundaries:       table.Boundaries,
		Precision:        table.Precision,
		SigmoidParams:    sigmoid,
		TrainingDetails:  t.summarize(casc, result, trainingResult, kernelModel.NumSVs()),
	}
	if err := Save(t.conf.Dir, t.label, state, kernelModel); err != nil {
		return nil, errors.Trace(err)
	}
	return NewClassifier(state, kernelModel), nil
}

// dumpDecisionBoundaries writes the raw decision value of the final model
// over a [-2, 2] grid for each adjacent pair of selected features, with all
// other coordinates at zero. The TSVs are meant for offline contour plots of
// the decision surface in normalized space.
func (t *Trainer) dumpDecisionBoundaries(m *svm.Model, result search.Result) error {
	dims := len(result.Subset)
	dir := filepath.Join(t.conf.Dir, "boundaries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Trace(err)
	}
	nu := result.Params.GetFloat64(model.Nu, -1)
	gamma := result.Params.GetFloat64(model.Gamma, -1)
	for i := 0; i+1 < dims; i++ {
		name := fmt.Sprintf("nu=%v-gamma=%v-i=%d-j=%d.tsv", nu, gamma, i, i+1)
		file, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return errors.Trace(err)
		}
		probe := make([]float32, dims)
		for si := 0; si <= 100; si++ {
			for sj := 0; sj <= 100; sj++ {
				vi := -2 + 0.04*float64(si)
				vj := -2 + 0.04*float64(sj)
				probe[i] = float32(vi)
				probe[i+1] = float32(vj)
				raw, err := m.Predict(probe, true)
				if err != nil {
					file.Close()
					return errors.Trace(err)
				}
				if _, err := fmt.Fprintf(file, "%v\t%v\t%v\n", vi, vj, raw); err != nil {
					file.Close()
					return errors.Trace(err)
				}
			}
		}
		if err := file.Close(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// classWeights balances the solver's class weights on the post-cascade
// counts, since those are what the kernel stage trains and validates on.
func classWeights(set *feature.Set, negRelativeWeight float64) model.ClassWeights {
	neg, pos := set.Counts()
	return model.BalancedWeights(pos, neg, negRelativeWeight)
}

func (t *Trainer) openResultLogs() (allResults, bestResults *os.File, err error) {
	allResults, err = os.Create(filepath.Join(t.conf.Dir, t.label+"-allResults.tsv"))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	bestResults, err = os.Create(filepath.Join(t.conf.Dir, t.label+"-bestResults.tsv"))
	if err != nil {
		allResults.Close()
		return nil, nil, errors.Trace(err)
	}
	return allResults, bestResults, nil
}

func (t *Trainer) selectAll(selector feature.SubsetSelector, set *feature.Set) (features [][]float32, labels []float64) {
	for _, class := range []struct {
		examples [][]float32
		label    float64
	}{
		{set.Negatives(), svm.NegativeLabel},
		{set.Positives(), svm.PositiveLabel},
	} {
		for _, example := range class.examples {
			features = append(features, selector.SelectNormalize(example))
			labels = append(labels, class.label)
		}
	}
	return features, labels
}

func predictAll(m *svm.Model, features [][]float32) ([]float64, error) {
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

func (t *Trainer) summarize(casc cascade.Cascade, result search.Result, trainingResult eval.Result, numSVs int) string {
	neg, pos := t.set.Counts()
	var summary strings.Builder
	fmt.Fprintf(&summary, "label=%s negatives=%d positives=%d\n", t.label, neg, pos)
	fmt.Fprintf(&summary, "cascade: %d boosters\n", len(casc))
	fmt.Fprintf(&summary, "subset=%s nu=%v gamma=%v\n", search.SubsetKey(result.Subset),
		result.Params.GetFloat64(model.Nu, -1), result.Params.GetFloat64(model.Gamma, -1))
	fmt.Fprintf(&summary, "cross-validation score=%v avg SVs=%v\n", result.Score, result.NumSVs)
	fmt.Fprintf(&summary, "training set: success rate=%v BSR=%v precision=%v recall=%v sign=%v SVs=%d\n",
		trainingResult.SuccessRate, trainingResult.BSR, trainingResult.Precision,
		trainingResult.Recall, trainingResult.SignCorrection, numSVs)
	return summary.String()
}
