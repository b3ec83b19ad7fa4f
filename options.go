/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package remat

import (
	"fmt"

	"github.com/cloudwego/remat/internal/opts"
	"go.uber.org/zap"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithDecay sets the decay factor applied per extra materialization point.
//
// A block materializes the constant for its whole subtree when
// "probability * decay^(materializations - offset)" is lower than the cost of
// its children. Lowering this option favors fewer, earlier loads.
//
// The default value of this option is "0.9".
func WithDecay(decay float64) Option {
	if decay <= 0 || decay > 1 {
		panic(fmt.Sprintf("remat: invalid decay factor: %g", decay))
	} else {
		return func(o *opts.Options) { o.Decay = decay }
	}
}

// WithDecayOffset sets the number of materializations that are not penalized
// by the decay factor.
//
// The default value of this option is "1".
func WithDecayOffset(offset int) Option {
	if offset < 0 {
		panic(fmt.Sprintf("remat: invalid decay offset: %d", offset))
	} else {
		return func(o *opts.Options) { o.DecayOffset = offset }
	}
}

// WithLogger sets the logger for per-constant decisions (at Debug level) and
// internal errors.
//
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	if logger == nil {
		panic("remat: nil logger")
	} else {
		return func(o *opts.Options) { o.Logger = logger }
	}
}

// WithDrawDir makes the optimizer write an SVG drawing of every relocated
// constant into dir. An empty string disables drawing.
func WithDrawDir(dir string) Option {
	return func(o *opts.Options) { o.DrawDir = dir }
}

// WithDisabled turns the optimization into a no-op.
func WithDisabled(v bool) Option {
	return func(o *opts.Options) { o.Disabled = v }
}

// WithConfigFile loads the options from a TOML file, recognized keys are
// "decay", "decay_offset", "disabled" and "draw_dir".
//
// It panics if the file cannot be read or holds invalid values.
func WithConfigFile(path string) Option {
	fc, err := opts.LoadFile(path)
	if err != nil {
		panic("remat: " + err.Error())
	}

	/* keep the logger of the caller */
	return func(o *opts.Options) {
		o.Decay = fc.Decay
		o.DecayOffset = fc.DecayOffset
		o.Disabled = fc.Disabled
		o.DrawDir = fc.DrawDir
	}
}
