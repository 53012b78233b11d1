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

// Package search selects the feature subset and kernel hyperparameters that
// maximize the k-fold cross-validation score.
package search

import (
	"github.com/sieve-ml/sieve/model/svm"
)

// Fold is one train/validate division of the normalized feature matrix.
type Fold struct {
	TrainFeatures [][]float32
	TrainLabels   []float64
	TestFeatures  [][]float32
	TestLabels    []float64
}

// Dims returns the feature dimension of the fold.
func (f Fold) Dims() int {
	if len(f.TrainFeatures) == 0 {
		return 0
	}
	return len(f.TrainFeatures[0])
}

// Split builds k train/validate divisions, stratified by class. Each class is
// cut into k contiguous ranges [n*i/k, n*(i+1)/k); fold i validates on range i
// of both classes and trains on everything else.
func Split(negatives, positives [][]float32, k int) []Fold {
	folds := make([]Fold, k)
	classes := []struct {
		examples [][]float32
		label    float64
	}{
		{negatives, svm.NegativeLabel},
		{positives, svm.PositiveLabel},
	}
	for i := 0; i < k; i++ {
		fold := &folds[i]
		for _, class := range classes {
			n := len(class.examples)
			validateStart := n * i / k
			validateEnd := n * (i + 1) / k
			for j, example := range class.examples {
				if j >= validateStart && j < validateEnd {
					fold.TestFeatures = append(fold.TestFeatures, example)
					fold.TestLabels = append(fold.TestLabels, class.label)
				} else {
					fold.TrainFeatures = append(fold.TrainFeatures, example)
					fold.TrainLabels = append(fold.TrainLabels, class.label)
				}
			}
		}
	}
	return folds
}
