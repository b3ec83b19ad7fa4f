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
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FileConfig is the on-disk form of Options, absent keys keep their defaults.
type FileConfig struct {
	Decay       *float64 `toml:"decay"`
	DecayOffset *int     `toml:"decay_offset"`
	Disabled    *bool    `toml:"disabled"`
	DrawDir     *string  `toml:"draw_dir"`
}

// Apply overrides the fields of o that are present in the config.
func (self *FileConfig) Apply(o *Options) {
	if self.Decay != nil {
		o.Decay = *self.Decay
	}
	if self.DecayOffset != nil {
		o.DecayOffset = *self.DecayOffset
	}
	if self.Disabled != nil {
		o.Disabled = *self.Disabled
	}
	if self.DrawDir != nil {
		o.DrawDir = *self.DrawDir
	}
}

// Parse decodes a TOML document on top of the default options.
func Parse(data []byte) (Options, error) {
	var fc FileConfig
	ret := GetDefaultOptions()

	/* decode the document */
	if err := toml.Unmarshal(data, &fc); err != nil {
		return ret, fmt.Errorf("failed to parse config: %w", err)
	}

	/* apply and check the values */
	fc.Apply(&ret)
	if err := ret.Validate(); err != nil {
		return ret, fmt.Errorf("invalid config: %w", err)
	}
	return ret, nil
}

// LoadFile reads the options from a TOML file.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GetDefaultOptions(), fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}
