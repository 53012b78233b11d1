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

package config

import (
	"runtime"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// SelectionMode selects how the feature subset is chosen.
type SelectionMode string

const (
	// SelectionForward grows the subset one feature at a time.
	SelectionForward SelectionMode = "forward"
	// SelectionBackward shrinks the subset one feature at a time.
	SelectionBackward SelectionMode = "backward"
	// SelectionFixed evaluates a fixed subset from the configuration.
	SelectionFixed SelectionMode = "fixed"
	// SelectionNone always uses the full feature set.
	SelectionNone SelectionMode = "none"
)

// Config is the configuration for a training run.
type Config struct {
	// Dir is the directory training artifacts are written to.
	Dir string `mapstructure:"dir"`
	// Jobs is the worker pool size for parallel hyperparameter evaluation.
	Jobs int `mapstructure:"jobs"`
	// NegativeWeight is the cost of mislabelling a negative example relative
	// to a positive one. Must be positive.
	NegativeWeight float64 `mapstructure:"negative_weight"`
	// Folds is the number of folds for cross-validation.
	Folds int `mapstructure:"folds"`
	// DropDuplicates drops training examples equal to an already collected one.
	DropDuplicates bool            `mapstructure:"drop_duplicates"`
	Selection      SelectionConfig `mapstructure:"selection"`
	Grid           GridConfig      `mapstructure:"grid"`
	Cascade        CascadeConfig   `mapstructure:"cascade"`
}

// SelectionConfig configures feature subset selection.
type SelectionConfig struct {
	Mode SelectionMode `mapstructure:"mode"`
	// Features is the fixed subset used when Mode is SelectionFixed.
	Features []int `mapstructure:"features"`
}

// GridConfig bounds the hyperparameter grid.
type GridConfig struct {
	NuLow    float64 `mapstructure:"nu_low"`
	NuHigh   float64 `mapstructure:"nu_high"`
	NuSteps  int     `mapstructure:"nu_steps"`
	NuBase   float64 `mapstructure:"nu_base"`
	LogGammaLow  float64 `mapstructure:"log_gamma_low"`
	LogGammaHigh float64 `mapstructure:"log_gamma_high"`
	GammaSteps   int     `mapstructure:"gamma_steps"`
	// FilterHyperparams keeps only the best Folds parameterizations once the
	// subset grows beyond a third of the feature dimension.
	FilterHyperparams bool `mapstructure:"filter_hyperparams"`
}

// CascadeConfig holds the thresholds a booster candidate must clear. The
// defaults are empirically tuned, not law.
type CascadeConfig struct {
	// MinRemoved is the minimum number of negatives a booster must reject.
	MinRemoved int `mapstructure:"min_removed"`
	// MinRemovedFraction is the minimum fraction of all negatives rejected.
	MinRemovedFraction float64 `mapstructure:"min_removed_fraction"`
	// MaxPositiveRatio bounds the running positive count relative to the
	// running negative count at the split point.
	MaxPositiveRatio float64 `mapstructure:"max_positive_ratio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", ".")
	v.SetDefault("jobs", runtime.NumCPU())
	v.SetDefault("negative_weight", 1.0)
	v.SetDefault("folds", 6)
	v.SetDefault("drop_duplicates", false)
	v.SetDefault("selection.mode", string(SelectionBackward))
	v.SetDefault("selection.features", []int{})
	v.SetDefault("grid.nu_low", 0.0005)
	v.SetDefault("grid.nu_high", 0.4)
	v.SetDefault("grid.nu_steps", 10)
	v.SetDefault("grid.nu_base", 1.5)
	v.SetDefault("grid.log_gamma_low", -14)
	v.SetDefault("grid.log_gamma_high", 5)
	v.SetDefault("grid.gamma_steps", 10)
	v.SetDefault("grid.filter_hyperparams", true)
	v.SetDefault("cascade.min_removed", 150)
	v.SetDefault("cascade.min_removed_fraction", 0.1)
	v.SetDefault("cascade.max_positive_ratio", 0.0005)
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		panic(err)
	}
	return &conf
}

// LoadConfig loads the configuration from a TOML file, filling defaults for
// any key the file omits. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks configuration ranges.
func (conf *Config) Validate() error {
	if conf.NegativeWeight <= 0 {
		return errors.NotValidf("negative_weight %v", conf.NegativeWeight)
	}
	if conf.Folds < 2 {
		return errors.NotValidf("folds %v", conf.Folds)
	}
	if conf.Jobs < 1 {
		return errors.NotValidf("jobs %v", conf.Jobs)
	}
	if conf.Grid.NuSteps < 2 || conf.Grid.GammaSteps < 2 {
		return errors.NotValidf("grid steps (%v, %v)", conf.Grid.NuSteps, conf.Grid.GammaSteps)
	}
	if conf.Grid.NuLow <= 0 || conf.Grid.NuHigh <= conf.Grid.NuLow || conf.Grid.NuBase <= 1 {
		return errors.NotValidf("nu grid [%v, %v] base %v", conf.Grid.NuLow, conf.Grid.NuHigh, conf.Grid.NuBase)
	}
	if conf.Grid.LogGammaHigh <= conf.Grid.LogGammaLow {
		return errors.NotValidf("log gamma grid [%v, %v]", conf.Grid.LogGammaLow, conf.Grid.LogGammaHigh)
	}
	if conf.Cascade.MinRemoved < 1 || conf.Cascade.MinRemovedFraction <= 0 || conf.Cascade.MaxPositiveRatio <= 0 {
		return errors.NotValidf("cascade thresholds")
	}
	switch conf.Selection.Mode {
	case SelectionForward, SelectionBackward, SelectionNone:
	case SelectionFixed:
		if len(conf.Selection.Features) == 0 {
			return errors.NotValidf("empty fixed feature subset")
		}
	default:
		return errors.NotValidf("selection mode %q", conf.Selection.Mode)
	}
	return nil
}

// ParseSelectionMode parses a selection mode name.
func ParseSelectionMode(s string) (SelectionMode, error) {
	mode := SelectionMode(strings.ToLower(s))
	switch mode {
	case SelectionForward, SelectionBackward, SelectionFixed, SelectionNone:
		return mode, nil
	}
	return "", errors.NotValidf("selection mode %q", s)
}
