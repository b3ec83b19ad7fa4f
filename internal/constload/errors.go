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
    `fmt`
    `strings`

    `github.com/cloudwego/remat/lir`
)

// InternalError occures when the LIR violates an invariant the pass relies
// on. It always indicates a compiler bug, never a problem with user input.
type InternalError struct {
    Var    lir.Reg
    Blocks []int
    Values []string
    Reason string
}

func (self *InternalError) Error() string {
    bbs := make([]string, 0, len(self.Blocks))
    for _, id := range self.Blocks {
        bbs = append(bbs, fmt.Sprintf("bb_%d", id))
    }
    return fmt.Sprintf(
        "constload: %s (var %s, blocks [%s], values [%s])",
        self.Reason,
        self.Var,
        strings.Join(bbs, ", "),
        strings.Join(self.Values, ", "),
    )
}

func efatal(r lir.Reg, blocks []int, values []string, reason string, args ...interface{}) {
    panic(&InternalError {
        Var    : r,
        Blocks : blocks,
        Values : values,
        Reason : fmt.Sprintf(reason, args...),
    })
}

func eblocks(bbs ...*lir.BasicBlock) []int {
    ret := make([]int, 0, len(bbs))
    for _, bb := range bbs { ret = append(ret, bb.Id) }
    return ret
}
