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

// Package remat relocates constant loads of a LIR control flow graph into the
// set of blocks that minimizes the expected cost of materializing them.
package remat

import (
	"github.com/cloudwego/remat/internal/constload"
	"github.com/cloudwego/remat/internal/opts"
	"github.com/cloudwego/remat/lir"
	"go.uber.org/zap"
)

// Stats counts what happened to the constants of one Optimize call.
type Stats = constload.Stats

// Optimize runs the constant load optimization on cfg in place.
//
// An internal consistency violation aborts the optimization and is returned
// as an *InternalError, the CFG must be discarded in that case. Any other
// panic is not recovered.
//
// Only blocks reachable from the entry are rewritten, unreachable blocks must
// be pruned beforehand.
func Optimize(cfg *lir.CFG, options ...Option) (st Stats, err error) {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}

	/* recover internal errors only */
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(*InternalError); ok {
				o.Logger.Error("remat: internal compiler error", zap.Error(e))
				err = e
			} else {
				panic(v)
			}
		}
	}()

	/* run the pass */
	st = constload.New(o).Run(cfg)
	return
}

// Pass returns the optimization as a pipeline pass, it panics on internal errors.
func Pass(options ...Option) interface{ Apply(*lir.CFG) } {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return constload.New(o)
}
