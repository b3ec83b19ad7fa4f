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
    `github.com/cloudwego/remat/lir`
    `github.com/oleiade/lane`
)

// _Rewriter moves constant definitions to the blocks chosen by the analyzer.
// Deleted definitions leave a nil slot and new loads go into per-block
// insertion buffers, so instruction indices stay valid until finish.
type _Rewriter struct {
    cfg  *lir.CFG
    bufs map[int]*lir.InsertionBuffer
    list []*lir.InsertionBuffer
}

func newRewriter(cfg *lir.CFG) *_Rewriter {
    return &_Rewriter {
        cfg  : cfg,
        bufs : make(map[int]*lir.InsertionBuffer),
    }
}

func (self *_Rewriter) buffer(bb *lir.BasicBlock) *lir.InsertionBuffer {
    if buf, ok := self.bufs[bb.Id]; ok {
        return buf
    } else {
        buf = lir.NewInsertionBuffer(bb)
        self.bufs[bb.Id] = buf
        self.list = append(self.list, buf)
        return buf
    }
}

// reconcile checks that the definition recorded by the collector is still
// the instruction living in its slot, holding the very same constant.
func (self *_Rewriter) reconcile(def *DefUseTree) {
    bb := def.Block
    at := def.Pos().String()

    /* the slot must still exist */
    if def.Index >= len(bb.Ins) || bb.Ins[def.Index] == nil {
        efatal(def.Var, eblocks(bb), []string { def.Const.String() }, "definition at %s is no longer present", at)
    }

    /* it must still be the recorded instruction */
    p := bb.Ins[def.Index]
    r, cc, ok := lir.ConstantOf(p)

    /* the instruction must still be a constant move */
    if !ok {
        efatal(def.Var, eblocks(bb), []string { def.Const.String(), p.String() }, "definition at %s is not a constant move", at)
    }

    /* different variables, or different values for the same definition */
    if r != def.Var || cc != def.Const || p != def.Ins {
        efatal(
            def.Var,
            eblocks(bb),
            []string { def.Const.String(), cc.String() },
            "conflicting definitions of %s and %s at %s",
            def.Var,
            r,
            at,
        )
    }
}

// rewrite applies the solution of tr, returning the number of new loads.
func (self *_Rewriter) rewrite(tr *ConstantTree) int {
    n := 0
    def := tr.def
    root := tr.Root()

    /* delete the original definition */
    self.reconcile(def)
    self.buffer(def.Block)
    def.Block.Ins[def.Index] = nil

    /* walk down the marked subtree, stop at the first candidate of each path */
    st := lane.NewStack()
    st.Push(root)

    /* process the worklist */
    for !st.Empty() {
        bb := st.Pop().(*lir.BasicBlock)

        /* not a materialization point, try the children */
        if !tr.Get(FlagCandidate, bb) {
            for _, p := range tr.Children(bb) {
                st.Push(p)
            }
            continue
        }

        /* materialize the constant at the start of this block */
        n++
        tr.Set(FlagMaterialize, bb)
        self.materialize(tr, bb)
    }

    /* all done */
    return n
}

func (self *_Rewriter) materialize(tr *ConstantTree, bb *lir.BasicBlock) {
    def := tr.def
    cost := tr.Cost(bb)
    r := self.cfg.CreateRegister(def.Var.Kind())

    /* insert the new load */
    self.buffer(bb).Append(0, lir.MoveConst(r, def.Const))

    /* repoint every use governed by this block */
    cost.Uses.ForEach(func(_ int, u *UseEntry) {
        if !self.cfg.Dominates(bb, u.Block) {
            efatal(def.Var, eblocks(bb, u.Block), []string { u.String() }, "materialization does not dominate its use")
        }

        /* the use must still be in place */
        if (u.Index != lir.PosTerm && u.Index >= len(u.Block.Ins)) || u.Block.Instr(u.Index) != lir.IrNode(u.Ins) {
            efatal(def.Var, eblocks(u.Block), []string { u.String() }, "use instruction is no longer present")
        }

        /* and still read the original variable */
        if v := u.Value(); v != def.Var {
            efatal(def.Var, eblocks(u.Block), []string { u.String(), v.String() }, "use no longer references the variable")
        }

        /* update the operand */
        u.SetValue(r)
    })
}

// finish flushes every touched block once, compacting out deleted definitions.
func (self *_Rewriter) finish() {
    for _, buf := range self.list {
        buf.Finish()
    }
}
