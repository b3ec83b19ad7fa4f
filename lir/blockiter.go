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
    `github.com/oleiade/lane`
)

type _IterFrame struct {
    bb   *BasicBlock
    next int
}

// BasicBlockIter walks the dominator tree in post-order, children in the
// order of DominatorOf. Each frame keeps a cursor into the children of its
// block, so every tree edge is followed once.
type BasicBlockIter struct {
    g *CFG
    b *BasicBlock
    s *lane.Stack
}

func newBasicBlockIter(cfg *CFG) *BasicBlockIter {
    s := lane.NewStack()
    s.Push(&_IterFrame { bb: cfg.Root })
    return &BasicBlockIter { g: cfg, s: s }
}

func (self *BasicBlockIter) Next() bool {
    for !self.s.Empty() {
        fp := self.s.Head().(*_IterFrame)
        ch := self.g.DominatorOf[fp.bb.Id]

        /* descend into the next child */
        if fp.next < len(ch) {
            fp.next++
            self.s.Push(&_IterFrame { bb: ch[fp.next - 1] })
            continue
        }

        /* every child is done */
        self.s.Pop()
        self.b = fp.bb
        return true
    }

    /* exhausted */
    self.b = nil
    return false
}

// Block returns the current block, or nil once the iteration is over.
func (self *BasicBlockIter) Block() *BasicBlock {
    return self.b
}

func (self *BasicBlockIter) ForEach(action func(bb *BasicBlock)) {
    for self.Next() {
        action(self.b)
    }
}

// Reversed drains the iterator, parents come before their children in the result.
func (self *BasicBlockIter) Reversed() []*BasicBlock {
    ret := make([]*BasicBlock, 0, len(self.g.Depth))
    self.ForEach(func(bb *BasicBlock) { ret = append(ret, bb) })
    blockreverse(ret)
    return ret
}
