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
    `math`
)

// PosTerm is the instruction index of the block terminator. It stays valid
// whatever happens to the instruction slice of the block.
const PosTerm = math.MaxInt32

// Pos is the position of an instruction within the CFG.
type Pos struct {
    B *BasicBlock
    I int
}

func (self Pos) IsTerm() bool {
    return self.I == PosTerm
}

func (self Pos) String() string {
    if self.IsTerm() {
        return fmt.Sprintf("bb_%d.term", self.B.Id)
    } else {
        return fmt.Sprintf("bb_%d.ins[%d]", self.B.Id, self.I)
    }
}
