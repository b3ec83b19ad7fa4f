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
    `math`

    `github.com/cloudwego/remat/internal/sparse`
    `github.com/cloudwego/remat/lir`
    `github.com/oleiade/lane`
)

const (
    _V_queued    = 1 << iota
    _V_processed
)

// _Analyzer computes the node cost of every marked block bottom-up, deciding
// at each block whether one materialization there beats the children's solution.
type _Analyzer struct {
    tree   *ConstantTree
    decay  float64
    offset int
    state  sparse.IndexMap[uint8]
}

func newAnalyzer(tree *ConstantTree, decay float64, offset int) *_Analyzer {
    return &_Analyzer {
        tree   : tree,
        decay  : decay,
        offset : offset,
    }
}

func (self *_Analyzer) is(bb *lir.BasicBlock, v uint8) bool {
    s, _ := self.state.Get(bb.Id)
    return s & v != 0
}

func (self *_Analyzer) mark(bb *lir.BasicBlock, v uint8) {
    s, _ := self.state.Get(bb.Id)
    self.state.Put(bb.Id, s | v)
}

// analyze visits the marked subtree in post-order. A block is pushed
// again right before its children, so it is popped after all of them.
func (self *_Analyzer) analyze(root *lir.BasicBlock) *NodeCost {
    st := lane.NewStack()
    st.Push(root)

    /* process the worklist */
    for !st.Empty() {
        bb := st.Pop().(*lir.BasicBlock)

        /* first visit, queue the children after the block itself */
        if !self.is(bb, _V_queued) {
            self.mark(bb, _V_queued)
            st.Push(bb)
            for _, p := range self.tree.Children(bb) {
                st.Push(p)
            }
            continue
        }

        /* the dominator tree is a tree, each block is processed once */
        if self.is(bb, _V_processed) {
            efatal(self.tree.def.Var, eblocks(bb), nil, "block processed twice")
        }

        /* all the children are done */
        self.process(bb)
        self.mark(bb, _V_processed)
    }

    /* cost of the whole tree */
    return self.tree.Cost(root)
}

func (self *_Analyzer) process(bb *lir.BasicBlock) {
    tr := self.tree
    here := tr.Usages(bb)
    children := tr.Children(bb)

    /* leaf blocks always hold a use, and materialize for themselves */
    if len(children) == 0 {
        if len(here) == 0 {
            efatal(tr.def.Var, eblocks(bb), nil, "leaf block without usages")
        }
        tr.Set(FlagCandidate, bb)
        tr.setCost(bb, self.leafCost(bb, here))
        return
    }

    var uses UseSet
    var count int
    var cost float64

    /* aggregate the children */
    for i, p := range children {
        cc := tr.Cost(p)

        /* children must have been processed */
        if cc == nil {
            efatal(tr.def.Var, eblocks(bb, p), nil, "child block has no cost")
        }

        /* the first child set is shared until written */
        if cost += cc.Cost; i == 0 {
            uses = cc.Uses.Copy()
        } else {
            mergeuses(tr, &uses, &cc.Uses)
        }

        /* count the materializations */
        count += cc.Count
    }

    /* keep the children's solution, if it's cheaper */
    if len(here) == 0 && !self.shouldMaterialize(bb.Probability, cost, count) {
        tr.setCost(bb, &NodeCost {
            Cost  : cost,
            Uses  : uses,
            Count : count,
        })
        return
    }

    /* materialize in this block */
    for _, u := range here {
        adduse(tr, &uses, u)
    }

    /* collapse the whole subtree into this block */
    tr.Set(FlagCandidate, bb)
    tr.setCost(bb, &NodeCost {
        Cost  : bb.Probability,
        Uses  : uses,
        Count : 1,
    })
}

func (self *_Analyzer) leafCost(bb *lir.BasicBlock, here []*UseEntry) *NodeCost {
    ret := &NodeCost {
        Cost  : bb.Probability,
        Count : 1,
    }
    for _, u := range here {
        adduse(self.tree, &ret.Uses, u)
    }
    return ret
}

// shouldMaterialize checks if one load in a block of probability prob beats
// count loads of the given total cost, the former scaled by decay^(count-offset).
func (self *_Analyzer) shouldMaterialize(prob float64, cost float64, count int) bool {
    return prob * math.Pow(self.decay, float64(count - self.offset)) < cost
}
