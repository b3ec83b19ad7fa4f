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
    `testing`

    `github.com/cloudwego/remat/internal/opts`
    `github.com/cloudwego/remat/lir`
    `github.com/stretchr/testify/require`
    `go.uber.org/zap`
)

func i64(i int) lir.Reg {
    return lir.Rv(lir.KindInt64, i)
}

func testOptions() opts.Options {
    return opts.Options {
        Decay       : 0.9,
        DecayOffset : 1,
        Logger      : zap.NewNop(),
    }
}

func catchInternal(t *testing.T, fn func()) (ret *InternalError) {
    defer func() {
        v := recover()
        require.NotNil(t, v, "expected an internal error")
        e, ok := v.(*InternalError)
        require.True(t, ok, "unexpected panic: %v", v)
        ret = e
    }()
    fn()
    return
}

// buildCheapBranch defines %v0 in the entry and uses it twice in a cold branch.
//
//     bb_0 (1.0) -> bb_1 (0.01) -> bb_3 (1.0)
//                -> bb_2 (0.99) -> bb_3
func buildCheapBranch() (*lir.CFG, []*lir.BasicBlock) {
    p := lir.CreateBuilder()
    c := i64(1)
    bbs := []*lir.BasicBlock {
        p.Block(1.0),
        p.Block(0.01),
        p.Block(0.99),
        p.Block(1.0),
    }
    p.At(bbs[0]).Const(i64(0), lir.ConstInt64(42)).Call("cond", nil, []lir.Reg { c }).Branch(c, bbs[1], bbs[2])
    p.At(bbs[1]).Binary(lir.IrOpAdd, i64(0), i64(0), i64(2)).Jump(bbs[3])
    p.At(bbs[2]).Jump(bbs[3])
    p.At(bbs[3]).Return()
    return p.Build(), bbs
}

// buildBalanced uses %v0 once in each of two branches of probability 0.1 and 0.9.
func buildBalanced() (*lir.CFG, []*lir.BasicBlock) {
    p := lir.CreateBuilder()
    c := i64(1)
    bbs := []*lir.BasicBlock {
        p.Block(1.0),
        p.Block(0.1),
        p.Block(0.9),
    }
    p.At(bbs[0]).Const(i64(0), lir.ConstInt64(42)).Call("cond", nil, []lir.Reg { c }).Branch(c, bbs[1], bbs[2])
    p.At(bbs[1]).KeepAlive(i64(0)).Return()
    p.At(bbs[2]).KeepAlive(i64(0)).Return()
    return p.Build(), bbs
}

// buildNested has two uses under bb_1, which is cheaper than covering them separately.
//
//     bb_0 (1.0) -> bb_1 (0.5)  -> bb_2 (0.3)  -> bb_5
//                               -> bb_3 (0.25) -> bb_5
//                -> bb_4 (0.5)  -> bb_5 (1.0)
func buildNested() (*lir.CFG, []*lir.BasicBlock) {
    p := lir.CreateBuilder()
    c := i64(1)
    bbs := []*lir.BasicBlock {
        p.Block(1.0),
        p.Block(0.5),
        p.Block(0.3),
        p.Block(0.25),
        p.Block(0.5),
        p.Block(1.0),
    }
    p.At(bbs[0]).Const(i64(0), lir.ConstInt64(42)).Call("cond", nil, []lir.Reg { c }).Branch(c, bbs[1], bbs[4])
    p.At(bbs[1]).Branch(c, bbs[2], bbs[3])
    p.At(bbs[2]).Binary(lir.IrOpAdd, i64(0), c, i64(2)).Jump(bbs[5])
    p.At(bbs[3]).KeepAlive(i64(0)).Jump(bbs[5])
    p.At(bbs[4]).Jump(bbs[5])
    p.At(bbs[5]).Return()
    return p.Build(), bbs
}

// buildSplit has two cold uses in different subtrees of the entry.
//
//     bb_0 (1.0) -> bb_1 (0.1)
//                -> bb_2 (0.9) -> bb_3 (0.1)
//                              -> bb_4 (0.8)
func buildSplit() (*lir.CFG, []*lir.BasicBlock) {
    p := lir.CreateBuilder()
    c := i64(1)
    bbs := []*lir.BasicBlock {
        p.Block(1.0),
        p.Block(0.1),
        p.Block(0.9),
        p.Block(0.1),
        p.Block(0.8),
    }
    p.At(bbs[0]).Const(lir.Rv(lir.KindInt32, 0), lir.ConstInt32(7)).Call("cond", nil, []lir.Reg { c }).Branch(c, bbs[1], bbs[2])
    p.At(bbs[1]).KeepAlive(lir.Rv(lir.KindInt32, 0)).Return()
    p.At(bbs[2]).Branch(c, bbs[3], bbs[4])
    p.At(bbs[3]).Store(lir.Rv(lir.KindInt32, 0), c, 4).Return()
    p.At(bbs[4]).Return()
    return p.Build(), bbs
}

func analyzeOnly(t *testing.T, cfg *lir.CFG, decay float64, offset int) (*ConstantTree, *NodeCost) {
    trees := collectDefUse(cfg).Trees()
    require.Len(t, trees, 1)
    ct := newConstantTree(cfg, trees[0])
    return ct, newAnalyzer(ct, decay, offset).analyze(trees[0].Block)
}
