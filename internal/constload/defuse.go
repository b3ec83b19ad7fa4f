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

    `github.com/cloudwego/remat/lir`
)

// UseEntry is one use of a constant variable: the operand Pos of the
// instruction at position Index of Block.
type UseEntry struct {
    Id    int
    Pos   int
    Index int
    Ins   lir.IrOperands
    Block *lir.BasicBlock
}

func (self *UseEntry) operand() lir.Operand {
    if ops := self.Ins.Operands(); self.Pos >= len(ops) {
        panic(fmt.Sprintf("constload: operand %d out of range: %s", self.Pos, self.Ins))
    } else {
        return ops[self.Pos]
    }
}

// Value returns the variable currently referenced by the use.
func (self *UseEntry) Value() lir.Reg {
    return *self.operand().R
}

// SetValue repoints the use to another variable.
func (self *UseEntry) SetValue(r lir.Reg) {
    *self.operand().R = r
}

func (self *UseEntry) String() string {
    return fmt.Sprintf("%s@%d", lir.Pos { B: self.Block, I: self.Index }, self.Pos)
}

// DefUseTree is a constant-producing move together with every use of its result.
type DefUseTree struct {
    Var   lir.Reg
    Const lir.Constant
    Index int
    Ins   lir.IrNode
    Block *lir.BasicBlock
    Uses  []*UseEntry
}

func (self *DefUseTree) Pos() lir.Pos {
    return lir.Pos { B: self.Block, I: self.Index }
}

func (self *DefUseTree) addUsage(bb *lir.BasicBlock, i int, p lir.IrOperands, pos int) {
    self.Uses = append(self.Uses, &UseEntry {
        Id    : len(self.Uses),
        Pos   : pos,
        Index : i,
        Ins   : p,
        Block : bb,
    })
}

func (self *DefUseTree) String() string {
    return fmt.Sprintf("%s = %s @ %s, %d uses", self.Var, self.Const, self.Pos(), len(self.Uses))
}

type _DefUseCollector struct {
    trees     map[lir.Reg]*DefUseTree
    order     []*DefUseTree
    defined   map[lir.Reg]struct{}
    redefined map[lir.Reg]struct{}
}

func newDefUseCollector() *_DefUseCollector {
    return &_DefUseCollector {
        trees     : make(map[lir.Reg]*DefUseTree),
        defined   : make(map[lir.Reg]struct{}),
        redefined : make(map[lir.Reg]struct{}),
    }
}

func (self *_DefUseCollector) define(bb *lir.BasicBlock, i int, p lir.IrNode, r lir.Reg) {
    if _, ok := self.redefined[r]; ok {
        return
    }

    /* a second definition excludes the variable for good, it was produced by
     * resolving a control-flow merge and does not hold a single value */
    if _, ok := self.defined[r]; ok {
        delete(self.trees, r)
        self.redefined[r] = struct{}{}
        return
    }

    /* first definition */
    self.defined[r] = struct{}{}
    v, cc, ok := lir.ConstantOf(p)

    /* only constant moves are candidates */
    if ok && v == r {
        tr := &DefUseTree {
            Var   : r,
            Const : cc,
            Index : i,
            Ins   : p,
            Block : bb,
        }
        self.trees[r] = tr
        self.order = append(self.order, tr)
    }
}

func (self *_DefUseCollector) use(bb *lir.BasicBlock, i int, p lir.IrOperands, pos int, r lir.Reg) {
    if tr, ok := self.trees[r]; ok {
        tr.addUsage(bb, i, p, pos)
    }
}

func (self *_DefUseCollector) scan(bb *lir.BasicBlock) {
    for n := 0; n <= len(bb.Ins); n++ {
        i := bb.Slot(n)
        p, ok := bb.Instr(i).(lir.IrOperands)
        if !ok {
            continue
        }

        /* inputs are read before the outputs are written */
        ops := p.Operands()
        for j, v := range ops {
            if v.Mode == lir.Use || v.Mode == lir.Alive {
                self.use(bb, i, p, j, *v.R)
            }
        }

        /* outputs */
        for _, v := range ops {
            if v.Mode == lir.Def {
                self.define(bb, i, p, *v.R)
            }
        }
    }
}

// Trees returns the surviving def-use trees in the order of their definitions.
func (self *_DefUseCollector) Trees() []*DefUseTree {
    ret := make([]*DefUseTree, 0, len(self.trees))
    for _, tr := range self.order {
        if self.trees[tr.Var] == tr {
            ret = append(ret, tr)
        }
    }
    return ret
}

// collectDefUse scans every block of the CFG once, dominators first, so the
// definition of a variable is always seen before its uses.
func collectDefUse(cfg *lir.CFG) *_DefUseCollector {
    ret := newDefUseCollector()
    for _, bb := range cfg.Blocks() {
        ret.scan(bb)
    }
    return ret
}
