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

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sieve-ml/sieve/base/log"
	"github.com/sieve-ml/sieve/config"
	"github.com/sieve-ml/sieve/feature"
	"github.com/sieve-ml/sieve/train"
)

var rootCmd = &cobra.Command{
	Use:   "sieve",
	Short: "Train and run cascaded kernel classifiers",
}

var trainCmd = &cobra.Command{
	Use:   "train LABEL FEATURES_TSV",
	Short: "Train a classifier from a TSV of labelled feature vectors",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		trainer, err := train.NewTrainer(conf, args[0])
		if err != nil {
			log.Logger().Fatal("failed to create trainer", zap.Error(err))
		}
		if err := loadExamples(args[1], trainer); err != nil {
			log.Logger().Fatal("failed to load training examples", zap.Error(err))
		}
		classifier, err := trainer.Train(context.Background())
		if err != nil {
			log.Logger().Fatal("training failed", zap.Error(err))
		}
		fmt.Print(classifier.TrainingDetails())
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify LABEL FEATURES_TSV",
	Short: "Score a TSV of feature vectors with a trained classifier",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		classifier, err := train.LoadClassifier(conf.Dir, args[0])
		if err != nil {
			log.Logger().Fatal("failed to load classifier", zap.Error(err))
		}
		if cmd.Flags().Changed("target-precision") {
			target, _ := cmd.Flags().GetFloat64("target-precision")
			if err := classifier.SetTargetPrecision(target); err != nil {
				log.Logger().Fatal("failed to set target precision", zap.Error(err))
			}
		}
		if err := classifyFile(args[1], classifier); err != nil {
			log.Logger().Fatal("classification failed", zap.Error(err))
		}
	},
}

// loadExamples streams a TSV of rows "label \t v0 \t v1 ...", label +1 or -1.
func loadExamples(path string, trainer *train.Trainer) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) < 2 {
			return errors.NotValidf("line %d: %d columns", line, len(fields))
		}
		label, err := strconv.Atoi(fields[0])
		if err != nil || (label != 1 && label != -1) {
			return errors.NotValidf("line %d: label %q", line, fields[0])
		}
		values, err := parseValues(fields[1:])
		if err != nil {
			return errors.Annotatef(err, "line %d", line)
		}
		trainer.Add(feature.Vector(values), label == 1)
	}
	return errors.Trace(scanner.Err())
}

// classifyFile streams a TSV of unlabelled feature vectors and prints
// "score \t probability" per row.
func classifyFile(path string, classifier *train.Classifier) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		values, err := parseValues(strings.Split(strings.TrimSpace(scanner.Text()), "\t"))
		if err != nil {
			return errors.Annotatef(err, "line %d", line)
		}
		prob, score := classifier.Probability(feature.Vector(values))
		fmt.Printf("%v\t%v\n", score, prob)
	}
	return errors.Trace(scanner.Err())
}

func parseValues(fields []string) ([]float32, error) {
	values := make([]float32, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, errors.Trace(err)
		}
		values[i] = float32(v)
	}
	return values, nil
}

func init() {
	for _, cmd := range []*cobra.Command{trainCmd, classifyCmd} {
		cmd.Flags().String("config", "", "configuration file path")
		cmd.Flags().Bool("debug", false, "use debug log mode")
		log.AddFlags(cmd.Flags())
	}
	classifyCmd.Flags().Float64("target-precision", 0, "pick the decision boundary for this precision")
	rootCmd.AddCommand(trainCmd, classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
