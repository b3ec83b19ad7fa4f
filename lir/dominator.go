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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 *
 *  Both the DFS and the path compression are iterative, CFGs coming from
 *  real programs can be deep enough to exhaust the stack otherwise.
 */

package lir

import (
    `github.com/oleiade/lane`
)

type _LtNode struct {
    semi     int
    node     *BasicBlock
    dom      *_LtNode
    label    *_LtNode
    parent   *_LtNode
    ancestor *_LtNode
    pred     []*_LtNode
    bucket   map[*_LtNode]struct{}
}

type _LtEdge struct {
    from *_LtNode
    to   *BasicBlock
}

type _LengauerTarjan struct {
    nodes  []*_LtNode
    vertex map[int]int
}

func newLengauerTarjan() *_LengauerTarjan {
    return &_LengauerTarjan {
        vertex: make(map[int]int),
    }
}

func (self *_LengauerTarjan) dfs(bb *BasicBlock) {
    st := lane.NewStack()
    st.Push(_LtEdge { to: bb })

    /* visit nodes as their edges are popped, this keeps the DFS order */
    for !st.Empty() {
        e := st.Pop().(_LtEdge)
        idx, ok := self.vertex[e.to.Id]

        /* already visited, only add the predecessor */
        if ok {
            q := self.nodes[idx]
            q.pred = append(q.pred, e.from)
            continue
        }

        /* create a new node */
        i := len(self.nodes)
        p := &_LtNode {
            semi   : i,
            node   : e.to,
            parent : e.from,
            bucket : make(map[*_LtNode]struct{}),
        }

        /* add to node list */
        p.label = p
        self.vertex[e.to.Id] = i
        self.nodes = append(self.nodes, p)

        /* tree edges also count as predecessors */
        if e.from != nil {
            p.pred = append(p.pred, e.from)
        }

        /* push the successors in reverse order, so the first successor is visited first */
        if e.to.Term != nil {
            succ := e.to.Term.Successors()
            for j := len(succ) - 1; j >= 0; j-- {
                st.Push(_LtEdge { from: p, to: succ[j] })
            }
        }
    }
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
    if p.ancestor == nil {
        return p
    } else {
        self.compress(p)
        return p.label
    }
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
    q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
    var path []*_LtNode
    for q := p; q.ancestor.ancestor != nil; q = q.ancestor {
        path = append(path, q)
    }

    /* compress from the node closest to the forest root */
    for i := len(path) - 1; i >= 0; i-- {
        q := path[i]
        if q.label.semi > q.ancestor.label.semi { q.label = q.ancestor.label }
        q.ancestor = q.ancestor.ancestor
    }
}

// DominatorTree records the immediate dominator of every block reachable from Root.
type DominatorTree struct {
    Root        *BasicBlock
    Depth       map[int]int
    DominatedBy map[int]*BasicBlock
    DominatorOf map[int][]*BasicBlock
}

// Dominates checks if a dominates b, every block dominates itself.
func (self DominatorTree) Dominates(a *BasicBlock, b *BasicBlock) bool {
    da, ok1 := self.Depth[a.Id]
    db, ok2 := self.Depth[b.Id]

    /* unreachable blocks are never dominated */
    if !ok1 || !ok2 || db < da {
        return false
    }

    /* climb up to the depth of a */
    for ; db > da; db-- {
        b = self.DominatedBy[b.Id]
    }

    /* a dominates b iff they meet */
    return a == b
}

func BuildDominatorTree(bb *BasicBlock) DominatorTree {
    depth := make(map[int]int)
    domby := make(map[int]*BasicBlock)
    domof := make(map[int][]*BasicBlock)

    /* Step 1: Carry out a depth-first search of the problem graph. Number the vertices
     * from 1 to n as they are reached during the search. Initialize the variables used
     * in succeeding steps. */
    lt := newLengauerTarjan()
    lt.dfs(bb)

    /* perform Step 2 and Step 3 simultaneously */
    for i := len(lt.nodes) - 1; i > 0; i-- {
        p := lt.nodes[i]
        q := (*_LtNode)(nil)

        /* Step 2: Compute the semidominators of all vertices by applying Theorem 4.
         * Carry out the computation vertex by vertex in decreasing order by number. */
        for _, v := range p.pred {
            q = lt.eval(v)
            p.semi = minint(p.semi, q.semi)
        }

        /* link the ancestor */
        lt.link(p.parent, p)
        lt.nodes[p.semi].bucket[p] = struct{}{}

        /* Step 3: Implicitly define the immediate dominator of each vertex by applying Corollary 1 */
        for v := range p.parent.bucket {
            if q = lt.eval(v); q.semi < v.semi {
                v.dom = q
            } else {
                v.dom = p.parent
            }
        }

        /* clear the bucket */
        for v := range p.parent.bucket {
            delete(p.parent.bucket, v)
        }
    }

    /* Step 4: Explicitly define the immediate dominator of each vertex, carrying out the
     * computation vertex by vertex in increasing order by number. */
    for _, p := range lt.nodes[1:] {
        if p.dom.node.Id != lt.nodes[p.semi].node.Id {
            p.dom = p.dom.dom
        }
    }

    /* map the dominator relations, parents are numbered before their children */
    depth[bb.Id] = 0
    for _, p := range lt.nodes[1:] {
        domby[p.node.Id] = p.dom.node
        domof[p.dom.node.Id] = append(domof[p.dom.node.Id], p.node)
    }

    /* compute the depth of each node */
    for _, p := range lt.nodes[1:] {
        depth[p.node.Id] = depthof(depth, domby, p.node)
    }

    /* construct the dominator tree */
    return DominatorTree {
        Root        : bb,
        Depth       : depth,
        DominatorOf : domof,
        DominatedBy : domby,
    }
}

func depthof(depth map[int]int, domby map[int]*BasicBlock, bb *BasicBlock) int {
    var n int
    var path []*BasicBlock

    /* walk up until a node with known depth */
    for {
        if d, ok := depth[bb.Id]; ok {
            n = d
            break
        } else {
            path = append(path, bb)
            bb = domby[bb.Id]
        }
    }

    /* fill in the depths along the path */
    for i := len(path) - 1; i >= 0; i-- {
        n++
        depth[path[i].Id] = n
    }

    /* depth of the original node */
    return n
}

func minint(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}
