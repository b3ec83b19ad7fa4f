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
    `strings`

    `github.com/cloudwego/remat/internal/sparse`
    `github.com/cloudwego/remat/lir`
)

type Flags uint8

const (
    // FlagSubtree marks blocks on the dominator path from the definition to a use.
    FlagSubtree Flags = 1 << iota

    // FlagUsage marks blocks containing at least one use.
    FlagUsage

    // FlagCandidate marks blocks that would materialize the constant for their whole subtree.
    FlagCandidate

    // FlagMaterialize marks blocks that actually received a new constant load.
    FlagMaterialize
)

func (self Flags) String() string {
    var buf []string
    if self & FlagSubtree     != 0 { buf = append(buf, "subtree") }
    if self & FlagUsage       != 0 { buf = append(buf, "usage") }
    if self & FlagCandidate   != 0 { buf = append(buf, "candidate") }
    if self & FlagMaterialize != 0 { buf = append(buf, "materialize") }
    return strings.Join(buf, "|")
}

type _TreeNode struct {
    bb    *lir.BasicBlock
    flags Flags
    uses  []*UseEntry
    cost  *NodeCost
}

// ConstantTree annotates the dominator subtree rooted at the defining block
// of a def-use tree. Only blocks on a path to some use carry a node.
type ConstantTree struct {
    cfg   *lir.CFG
    def   *DefUseTree
    nodes sparse.IndexMap[*_TreeNode]
}

// newConstantTree flags every use block with FlagUsage, and every block on the
// dominator chain between a use and the definition with FlagSubtree.
func newConstantTree(cfg *lir.CFG, def *DefUseTree) *ConstantTree {
    ret := &ConstantTree {
        cfg: cfg,
        def: def,
    }

    /* mark every use */
    for _, u := range def.Uses {
        p := ret.node(u.Block)
        p.uses = append(p.uses, u)
        p.flags |= FlagUsage
        ret.markPath(u)
    }

    /* all done */
    return ret
}

func (self *ConstantTree) markPath(u *UseEntry) {
    bb := u.Block
    root := self.def.Block

    /* climb up the dominator tree until an already marked block */
    for !self.Get(FlagSubtree, bb) {
        self.Set(FlagSubtree, bb)

        /* reached the definition */
        if bb == root {
            return
        }

        /* the use must be dominated by the definition */
        if bb = self.cfg.DominatedBy[bb.Id]; bb == nil {
            efatal(
                self.def.Var,
                eblocks(u.Block, root),
                []string { u.String(), self.def.Pos().String() },
                "use is not dominated by the definition",
            )
        }
    }
}

func (self *ConstantTree) node(bb *lir.BasicBlock) *_TreeNode {
    if p, ok := self.nodes.Get(bb.Id); ok {
        return p
    } else {
        p = &_TreeNode { bb: bb }
        self.nodes.Put(bb.Id, p)
        return p
    }
}

// Root returns the block of the definition.
func (self *ConstantTree) Root() *lir.BasicBlock {
    return self.def.Block
}

func (self *ConstantTree) Def() *DefUseTree {
    return self.def
}

func (self *ConstantTree) Flags(bb *lir.BasicBlock) Flags {
    if p, ok := self.nodes.Get(bb.Id); ok {
        return p.flags
    } else {
        return 0
    }
}

func (self *ConstantTree) Get(f Flags, bb *lir.BasicBlock) bool {
    return self.Flags(bb) & f == f
}

func (self *ConstantTree) Set(f Flags, bb *lir.BasicBlock) {
    self.node(bb).flags |= f
}

// IsMarked checks if bb leads to some use of the constant.
func (self *ConstantTree) IsMarked(bb *lir.BasicBlock) bool {
    return self.Get(FlagSubtree, bb)
}

// Usages returns the uses located directly in bb.
func (self *ConstantTree) Usages(bb *lir.BasicBlock) []*UseEntry {
    if p, ok := self.nodes.Get(bb.Id); ok {
        return p.uses
    } else {
        return nil
    }
}

func (self *ConstantTree) Cost(bb *lir.BasicBlock) *NodeCost {
    if p, ok := self.nodes.Get(bb.Id); ok {
        return p.cost
    } else {
        return nil
    }
}

func (self *ConstantTree) setCost(bb *lir.BasicBlock, cost *NodeCost) {
    self.node(bb).cost = cost
}

// Children returns the marked children of bb in the dominator tree.
func (self *ConstantTree) Children(bb *lir.BasicBlock) []*lir.BasicBlock {
    var ret []*lir.BasicBlock
    for _, p := range self.cfg.DominatorOf[bb.Id] {
        if self.IsMarked(p) {
            ret = append(ret, p)
        }
    }
    return ret
}

// Blocks returns every block carrying the given flags, ordered by block ID.
func (self *ConstantTree) Blocks(f Flags) []*lir.BasicBlock {
    var ret []*lir.BasicBlock
    self.nodes.ForEach(func(_ int, p *_TreeNode) {
        if p.flags & f == f {
            ret = append(ret, p.bb)
        }
    })
    return ret
}
