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
)

// Builder constructs a CFG block by block. The first block created is the entry.
type Builder struct {
    bbs []*BasicBlock
    cur *BasicBlock
}

func CreateBuilder() *Builder {
    return new(Builder)
}

// Block creates a new empty block with the given execution probability.
func (self *Builder) Block(prob float64) *BasicBlock {
    if prob < 0 {
        panic(fmt.Sprintf("builder: negative block probability: %g", prob))
    }

    /* create the block */
    bb := &BasicBlock {
        Id          : len(self.bbs),
        Probability : prob,
    }

    /* add to block list */
    self.bbs = append(self.bbs, bb)
    return bb
}

// At selects the block that subsequent instructions are appended to.
func (self *Builder) At(bb *BasicBlock) *Builder {
    self.cur = bb
    return self
}

func (self *Builder) Emit(p IrNode) *Builder {
    if self.cur == nil {
        panic("builder: no current block")
    } else if self.cur.Term != nil {
        panic(fmt.Sprintf("builder: bb_%d is already terminated", self.cur.Id))
    } else {
        self.cur.Ins = append(self.cur.Ins, p)
        return self
    }
}

func (self *Builder) Const(r Reg, c Constant) *Builder {
    return self.Emit(MoveConst(r, c))
}

func (self *Builder) Move(r Reg, v Reg) *Builder {
    return self.Emit(&IrMove { R: r, V: v })
}

func (self *Builder) Binary(op IrBinaryOp, x Reg, y Reg, r Reg) *Builder {
    return self.Emit(&IrBinaryExpr { R: r, X: x, Y: y, Op: op })
}

func (self *Builder) Load(mem Reg, r Reg, size uint8) *Builder {
    return self.Emit(&IrLoad { R: r, Mem: mem, Size: size })
}

func (self *Builder) Store(r Reg, mem Reg, size uint8) *Builder {
    return self.Emit(&IrStore { R: r, Mem: mem, Size: size })
}

func (self *Builder) Call(fn string, in []Reg, out []Reg) *Builder {
    return self.Emit(&IrCall { Fn: fn, In: in, Out: out })
}

func (self *Builder) KeepAlive(r ...Reg) *Builder {
    return self.Emit(&IrKeepAlive { R: r })
}

func (self *Builder) terminate(p IrTerminator) {
    if self.cur == nil {
        panic("builder: no current block")
    } else if self.cur.Term != nil {
        panic(fmt.Sprintf("builder: bb_%d is already terminated", self.cur.Id))
    } else {
        self.cur.Term = p
    }
}

func (self *Builder) Jump(to *BasicBlock, v ...Reg) {
    self.terminate(&IrJump { To: to, V: v })
}

func (self *Builder) Branch(v Reg, t *BasicBlock, f *BasicBlock) {
    self.terminate(&IrBranch { V: v, T: t, F: f })
}

func (self *Builder) Return(r ...Reg) {
    self.terminate(&IrReturn { R: r })
}

// Build finishes the CFG, every block must be terminated and reachable from the entry.
func (self *Builder) Build() *CFG {
    if len(self.bbs) == 0 {
        panic("builder: empty CFG")
    }

    /* check for terminators */
    for _, bb := range self.bbs {
        if bb.Term == nil {
            panic(fmt.Sprintf("builder: bb_%d is not terminated", bb.Id))
        }
    }

    /* build the graph */
    cfg := NewCFG(self.bbs[0])

    /* blocks outside the dominator tree are never seen by any pass */
    for _, bb := range self.bbs {
        if _, ok := cfg.Depth[bb.Id]; !ok {
            panic(fmt.Sprintf("builder: bb_%d is unreachable from the entry", bb.Id))
        }
    }

    /* all done */
    return cfg
}
