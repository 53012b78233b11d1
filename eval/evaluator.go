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

// Package eval scores raw classifier outputs against ground truth: sign
// correction, class-weighted success rate, balanced success rate and
// precision/recall, all from the same sign-corrected predictions.
package eval

import (
	"math"

	"github.com/sieve-ml/sieve/model"
)

// Class maps a score to its predicted class. Positive scores are positives.
func Class(score float64) bool {
	return score > 0
}

// Result of evaluating one prediction run.
type Result struct {
	// SignCorrection is +1, or -1 when the classifier's raw output is
	// anti-correlated with ground truth.
	SignCorrection float64
	// SuccessRate is the class-weighted fraction of correct predictions
	// under the chosen sign correction. This is what selection optimizes.
	SuccessRate float64
	// BSR is the balanced success rate: per-class accuracy averaged over the
	// two classes. Reported, never optimized.
	BSR float64
	// Precision and Recall of the positive class under the sign correction.
	// 0/0 cases stay NaN.
	Precision float64
	Recall    float64
}

// Evaluate scores raw outputs, offset by the decision boundary, against +/-1
// ground-truth labels.
func Evaluate(labels, outputs []float64, boundary float64, weights model.ClassWeights) Result {
	shifted := make([]float64, len(outputs))
	for i, out := range outputs {
		shifted[i] = out - boundary
	}
	var result Result
	result.SignCorrection, result.SuccessRate = signCorrection(labels, shifted, weights)
	result.BSR = balancedSuccessRate(labels, shifted, result.SignCorrection)
	result.Precision, result.Recall = precisionRecall(labels, shifted, result.SignCorrection)
	return result
}

// signCorrection resolves the solver's unknown polarity: if the weighted
// error cost exceeds half the total cost the convention is inverted.
func signCorrection(labels, shifted []float64, weights model.ClassWeights) (sign, successRate float64) {
	var totalScore, totalErrorScore float64
	for i := range labels {
		gtClass := Class(labels[i])
		weight := math.Abs(weights.Positive())
		if !gtClass {
			weight = math.Abs(weights.Negative())
		}
		if gtClass != Class(shifted[i]) {
			totalErrorScore += weight
		}
		totalScore += weight
	}
	if totalErrorScore < 0.5*totalScore {
		return 1, (totalScore - totalErrorScore) / totalScore
	}
	return -1, totalErrorScore / totalScore
}

func balancedSuccessRate(labels, shifted []float64, sign float64) float64 {
	bsr := 0.0
	for _, positive := range []bool{false, true} {
		var errors, examples float64
		for i := range labels {
			if Class(labels[i]) != positive {
				continue
			}
			examples++
			if Class(sign*shifted[i]) != positive {
				errors++
			}
		}
		if examples > 0 {
			bsr += 0.5 * (examples - errors) / examples
		}
	}
	return bsr
}

func precisionRecall(labels, shifted []float64, sign float64) (precision, recall float64) {
	var truePositives, predictedPositives, actualPositives float64
	for i := range labels {
		gtClass := Class(labels[i])
		if Class(sign * shifted[i]) {
			predictedPositives++
			if gtClass {
				truePositives++
			}
		}
		if gtClass {
			actualPositives++
		}
	}
	return truePositives / predictedPositives, truePositives / actualPositives
}
