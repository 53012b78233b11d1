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

// ClassWeights holds per-class misclassification weights, negative class
// first. Scoring uses their absolute values.
type ClassWeights [2]float64

// Negative returns the weight of the negative class.
func (w ClassWeights) Negative() float64 { return w[0] }

// Positive returns the weight of the positive class.
func (w ClassWeights) Positive() float64 { return w[1] }

// BalancedWeights chooses weights so that the total cost of each class is
// equal at balance: the negative weight is scaled by numPos/numNeg times the
// configured relative weight, the positive weight is 1.
func BalancedWeights(numPos, numNeg int, negRelativeWeight float64) ClassWeights {
	balance := float64(numPos) / float64(numNeg)
	return ClassWeights{-negRelativeWeight * balance, 1}
}
