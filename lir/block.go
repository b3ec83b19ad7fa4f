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

package lir

import (
    `fmt`
    `strings`
)

// BasicBlock is a node of the control flow graph. Probability is the
// expected relative execution frequency of the block.
type BasicBlock struct {
    Id          int
    Probability float64
    Ins         []IrNode
    Pred        []*BasicBlock
    Term        IrTerminator
}

// Instr returns the instruction at index i, or the terminator for PosTerm.
func (self *BasicBlock) Instr(i int) IrNode {
    if i == PosTerm {
        return self.Term
    } else {
        return self.Ins[i]
    }
}

// Slot maps a loop counter running over 0..len(Ins) to an instruction index,
// the value right after the last instruction becomes PosTerm.
func (self *BasicBlock) Slot(i int) int {
    if i == len(self.Ins) {
        return PosTerm
    } else {
        return i
    }
}

func (self *BasicBlock) String() string {
    buf := make([]string, 0, len(self.Ins) + 2)
    buf = append(buf, fmt.Sprintf("bb_%d: # p = %g", self.Id, self.Probability))

    /* dump every instruction */
    for _, v := range self.Ins {
        if v != nil {
            buf = append(buf, "    " + v.String())
        }
    }

    /* the terminator, if any */
    if self.Term != nil {
        buf = append(buf, "    " + self.Term.String())
    }

    /* join them together */
    return strings.Join(buf, "\n")
}

func blockreverse(s []*BasicBlock) {
    for i, j := 0, len(s) - 1; i < j; i, j = i + 1, j - 1 {
        s[i], s[j] = s[j], s[i]
    }
}
