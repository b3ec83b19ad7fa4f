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

package debug

import (
	"github.com/cloudwego/remat/internal/constload"
)

// A Stats records statistics about the constant load optimizer.
type Stats struct {
	Constants ConstStats
	Loads     LoadStats
}

// A ConstStats records what happened to the constant definitions seen so far.
type ConstStats struct {
	Candidates int
	Redefined  int
	SingleUse  int
	UseAtDef   int
	Kept       int
	Relocated  int
}

// A LoadStats records the constant loads created by relocation.
type LoadStats struct {
	Inserted int
}

// GetStats returns statistics of every optimization run in this process.
func GetStats() Stats {
	st := constload.Totals()
	return Stats{
		Constants: ConstStats{
			Candidates: st.Candidates,
			Redefined:  st.Redefined,
			SingleUse:  st.SingleUse,
			UseAtDef:   st.UseAtDef,
			Kept:       st.Kept,
			Relocated:  st.Relocated,
		},
		Loads: LoadStats{
			Inserted: st.Materializations,
		},
	}
}
