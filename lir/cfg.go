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
    `sort`
    `strings`
)

// CFG is the control flow graph of one compilation unit.
type CFG struct {
    DominatorTree
    regno int
}

// NewCFG creates a CFG rooted at the entry block, computing predecessors and
// the dominator tree of every reachable block. Blocks unreachable from root
// are not part of the CFG, and must not use variables defined within it.
func NewCFG(root *BasicBlock) *CFG {
    ret := new(CFG)
    ret.Rebuild(root)
    return ret
}

// Rebuild recomputes predecessors, the dominator tree and the variable allocator state.
func (self *CFG) Rebuild(root *BasicBlock) {
    self.DominatorTree = BuildDominatorTree(root)
    self.regno = 0

    /* reset the predecessors */
    for _, bb := range self.Blocks() {
        bb.Pred = bb.Pred[:0]
    }

    /* rebuild the predecessors, and find the largest variable index */
    for _, bb := range self.Blocks() {
        if bb.Term != nil {
            for _, v := range bb.Term.Successors() {
                v.Pred = append(v.Pred, bb)
            }
        }
        self.scanRegisters(bb)
    }
}

func (self *CFG) scanRegisters(bb *BasicBlock) {
    for i := 0; i <= len(bb.Ins); i++ {
        if p, ok := bb.Instr(bb.Slot(i)).(IrOperands); ok {
            for _, v := range p.Operands() {
                if v.R.Valid() && v.R.Index() >= self.regno {
                    self.regno = v.R.Index() + 1
                }
            }
        }
    }
}

// CreateRegister allocates a fresh variable of the given kind.
func (self *CFG) CreateRegister(kind ValueKind) Reg {
    r := mkreg(kind, self.regno)
    self.regno++
    return r
}

// MaxBlock returns the largest block ID within the CFG.
func (self *CFG) MaxBlock() int {
    ret := 0
    for id := range self.Depth {
        if id > ret {
            ret = id
        }
    }
    return ret
}

// PostOrder iterates over the dominator tree in post-order.
func (self *CFG) PostOrder() *BasicBlockIter {
    return newBasicBlockIter(self)
}

// Blocks returns every reachable block, each block comes after its dominator.
func (self *CFG) Blocks() []*BasicBlock {
    return self.PostOrder().Reversed()
}

func (self *CFG) String() string {
    bbs := self.Blocks()
    buf := make([]string, 0, len(bbs))

    /* sort by block ID */
    sort.Slice(bbs, func(i int, j int) bool {
        return bbs[i].Id < bbs[j].Id
    })

    /* dump every block */
    for _, bb := range bbs {
        buf = append(buf, bb.String())
    }

    /* join them together */
    return strings.Join(buf, "\n")
}
