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
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Options struct {
	Decay       float64
	DecayOffset int
	Disabled    bool
	DrawDir     string
	Logger      *zap.Logger
}

// Validate reports every invalid field at once.
func (self *Options) Validate() (err error) {
	if self.Decay <= 0 || self.Decay > 1 {
		err = multierr.Append(err, fmt.Errorf("decay must be within (0, 1], got %g", self.Decay))
	}
	if self.DecayOffset < 0 {
		err = multierr.Append(err, fmt.Errorf("decay offset must not be negative, got %d", self.DecayOffset))
	}
	if self.Logger == nil {
		err = multierr.Append(err, fmt.Errorf("logger must not be nil"))
	}
	return
}

func GetDefaultOptions() Options {
	return Options{
		Decay:       Decay,
		DecayOffset: DecayOffset,
		Disabled:    Disabled,
		DrawDir:     DrawDir,
		Logger:      zap.NewNop(),
	}
}
