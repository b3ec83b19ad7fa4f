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

    `github.com/cloudwego/remat/internal/sparse`
)

// UseSet is a set of use entries of one def-use tree, keyed by UseEntry.Id.
type UseSet = sparse.IndexMap[*UseEntry]

// NodeCost is the best known way to materialize the constant for every use
// within the dominator subtree of a block.
type NodeCost struct {
    Cost  float64
    Uses  UseSet
    Count int
}

func (self *NodeCost) String() string {
    return fmt.Sprintf("NodeCost { cost: %g, uses: %d, materializations: %d }", self.Cost, self.Uses.Len(), self.Count)
}

// adduse adds u into s, a use can only be covered once.
func adduse(tr *ConstantTree, s *UseSet, u *UseEntry) {
    if !s.Put(u.Id, u) {
        efatal(tr.def.Var, eblocks(u.Block), []string { u.String() }, "use counted twice")
    }
}

// mergeuses adds every use of src into dst.
func mergeuses(tr *ConstantTree, dst *UseSet, src *UseSet) {
    src.ForEach(func(_ int, u *UseEntry) {
        adduse(tr, dst, u)
    })
}
