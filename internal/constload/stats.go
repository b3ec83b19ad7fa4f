/*
 * Copyright 2022 ByteDance Inc.
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

package constload

import (
    `go.uber.org/atomic`
    `go.uber.org/zap`
    `go.uber.org/zap/zapcore`
)

// Stats counts what happened to the constants of one run.
type Stats struct {
    Candidates       int    // constant moves seen with a single definition
    Redefined        int    // variables excluded for being defined more than once
    SingleUse        int    // candidates with at most one use
    UseAtDef         int    // candidates used in their defining block
    Kept             int    // candidates left in place by the cost model
    Relocated        int    // candidates moved to cheaper blocks
    Materializations int    // new constant loads inserted
}

func (self Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
    enc.AddInt("candidates", self.Candidates)
    enc.AddInt("redefined", self.Redefined)
    enc.AddInt("single_use", self.SingleUse)
    enc.AddInt("use_at_def", self.UseAtDef)
    enc.AddInt("kept", self.Kept)
    enc.AddInt("relocated", self.Relocated)
    enc.AddInt("materializations", self.Materializations)
    return nil
}

func (self Stats) field() zap.Field {
    return zap.Object("stats", self)
}

var (
    _Candidates       atomic.Int64
    _Redefined        atomic.Int64
    _SingleUse        atomic.Int64
    _UseAtDef         atomic.Int64
    _Kept             atomic.Int64
    _Relocated        atomic.Int64
    _Materializations atomic.Int64
)

// record adds the counters of one run to the process-wide totals.
func record(s Stats) {
    _Candidates.Add(int64(s.Candidates))
    _Redefined.Add(int64(s.Redefined))
    _SingleUse.Add(int64(s.SingleUse))
    _UseAtDef.Add(int64(s.UseAtDef))
    _Kept.Add(int64(s.Kept))
    _Relocated.Add(int64(s.Relocated))
    _Materializations.Add(int64(s.Materializations))
}

// Totals returns the counters of every run in this process.
func Totals() Stats {
    return Stats {
        Candidates       : int(_Candidates.Load()),
        Redefined        : int(_Redefined.Load()),
        SingleUse        : int(_SingleUse.Load()),
        UseAtDef         : int(_UseAtDef.Load()),
        Kept             : int(_Kept.Load()),
        Relocated        : int(_Relocated.Load()),
        Materializations : int(_Materializations.Load()),
    }
}
