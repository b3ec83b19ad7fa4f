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
    `sort`
)

type _Insertion struct {
    i int
    p IrNode
}

// InsertionBuffer batches instruction insertions into one basic block. The
// indices passed to Append refer to the instruction list as it was when the
// buffer was initialized, nothing is moved until Finish.
type InsertionBuffer struct {
    bb  *BasicBlock
    ins []_Insertion
}

// NewInsertionBuffer creates an insertion buffer for bb.
func NewInsertionBuffer(bb *BasicBlock) *InsertionBuffer {
    return &InsertionBuffer { bb: bb }
}

func (self *InsertionBuffer) Block() *BasicBlock {
    return self.bb
}

// Len returns the number of pending insertions.
func (self *InsertionBuffer) Len() int {
    return len(self.ins)
}

// Append inserts p before the instruction at position i. Instructions
// appended to the same position keep their relative order.
func (self *InsertionBuffer) Append(i int, p IrNode) {
    if i < 0 || i > len(self.bb.Ins) {
        panic(fmt.Sprintf("insertion: position %d out of range for bb_%d", i, self.bb.Id))
    } else {
        self.ins = append(self.ins, _Insertion { i, p })
    }
}

// Finish applies every pending insertion and removes deleted (nil)
// instructions, in one linear pass over the block.
func (self *InsertionBuffer) Finish() {
    j := 0
    n := len(self.bb.Ins)
    buf := make([]IrNode, 0, n + len(self.ins))

    /* sort by position, preserving the order of insertions at the same position */
    sort.SliceStable(self.ins, func(a int, b int) bool {
        return self.ins[a].i < self.ins[b].i
    })

    /* merge the two lists */
    for i, v := range self.bb.Ins {
        for ; j < len(self.ins) && self.ins[j].i == i; j++ {
            buf = append(buf, self.ins[j].p)
        }
        if v != nil {
            buf = append(buf, v)
        }
    }

    /* insertions at the end of the block */
    for ; j < len(self.ins); j++ {
        buf = append(buf, self.ins[j].p)
    }

    /* replace the instructions */
    self.ins = self.ins[:0]
    self.bb.Ins = buf
}
