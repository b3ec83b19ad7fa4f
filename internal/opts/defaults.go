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

package opts

import (
	"os"
	"strconv"
)

const (
	_DefaultDecay       = 0.9 // bias towards fewer materializations
	_DefaultDecayOffset = 1   // a single materialization is not biased
)

var (
	Decay       = parseFloatOrDefault("REMAT_DECAY", _DefaultDecay)
	DecayOffset = parseIntOrDefault("REMAT_DECAY_OFFSET", _DefaultDecayOffset, 0)
	Disabled    = os.Getenv("REMAT_DISABLE") == "1"
	DrawDir     = os.Getenv("REMAT_DRAW_DIR")
)

func parseIntOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("remat: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("remat: value too small for " + key)
	} else {
		return ret
	}
}

func parseFloatOrDefault(key string, def float64) float64 {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseFloat(env, 64); err != nil {
		panic("remat: invalid value for " + key)
	} else if val <= 0 || val > 1 {
		panic("remat: value out of range (0, 1] for " + key)
	} else {
		return val
	}
}
