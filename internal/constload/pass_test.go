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
    `math/rand`
    `os`
    `path/filepath`
    `testing`

    `github.com/cloudwego/remat/lir`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
    `go.uber.org/zap`
    `go.uber.org/zap/zapcore`
    `go.uber.org/zap/zaptest/observer`
)

func TestConstLoad_CheapBranch(t *testing.T) {
    cfg, bbs := buildCheapBranch()
    st := New(testOptions()).Run(cfg)
    require.Equal(t, Stats { Candidates: 1, Relocated: 1, Materializations: 1 }, st)

    /* the definition moved into bb_1 */
    require.Len(t, bbs[0].Ins, 1)
    require.False(t, lir.IsConstantMove(bbs[0].Ins[0]))
    require.Len(t, bbs[1].Ins, 2)
    r, c, ok := lir.ConstantOf(bbs[1].Ins[0])
    require.True(t, ok)
    require.Equal(t, lir.ConstInt64(42), c)
    require.Equal(t, i64(3), r)

    /* both uses read the new variable */
    add := bbs[1].Ins[1].(*lir.IrBinaryExpr)
    require.Equal(t, r, add.X)
    require.Equal(t, r, add.Y)
    require.Equal(t, i64(2), add.R)
}

func TestConstLoad_Unchanged(t *testing.T) {
    build := map[string]func() (*lir.CFG, []*lir.BasicBlock) {
        "balanced": buildBalanced,
        "single-use": func() (*lir.CFG, []*lir.BasicBlock) {
            cfg, bbs := buildCheapBranch()
            bbs[1].Ins[0].(*lir.IrBinaryExpr).Y = i64(1)
            return cfg, bbs
        },
        "unused": func() (*lir.CFG, []*lir.BasicBlock) {
            cfg, bbs := buildCheapBranch()
            bbs[1].Ins = nil
            return cfg, bbs
        },
        "use-at-def": func() (*lir.CFG, []*lir.BasicBlock) {
            cfg, bbs := buildCheapBranch()
            bbs[0].Ins = append(bbs[0].Ins, &lir.IrKeepAlive { R: []lir.Reg { i64(0) } })
            return cfg, bbs
        },
    }
    expect := map[string]Stats {
        "balanced"   : { Candidates: 1, Kept: 1 },
        "single-use" : { Candidates: 1, SingleUse: 1 },
        "unused"     : { Candidates: 1, SingleUse: 1 },
        "use-at-def" : { Candidates: 1, UseAtDef: 1 },
    }
    for name, fn := range build {
        t.Run(name, func(t *testing.T) {
            cfg, _ := fn()
            old := cfg.String()
            st := New(testOptions()).Run(cfg)
            require.Equal(t, expect[name], st)
            require.Equal(t, old, cfg.String())
        })
    }
}

func TestConstLoad_Redefined(t *testing.T) {
    p := lir.CreateBuilder()
    c := i64(1)
    bbs := []*lir.BasicBlock {
        p.Block(1.0),
        p.Block(0.01),
        p.Block(0.01),
        p.Block(0.02),
    }
    p.At(bbs[0]).Call("cond", nil, []lir.Reg { c }).Branch(c, bbs[1], bbs[2])
    p.At(bbs[1]).Const(i64(0), lir.ConstInt64(1)).Jump(bbs[3])
    p.At(bbs[2]).Const(i64(0), lir.ConstInt64(2)).Jump(bbs[3])
    p.At(bbs[3]).KeepAlive(i64(0)).Return(i64(0))
    cfg := p.Build()
    old := cfg.String()
    st := New(testOptions()).Run(cfg)
    require.Equal(t, Stats { Redefined: 1 }, st)
    require.Equal(t, old, cfg.String())
}

func TestConstLoad_Nested(t *testing.T) {
    cfg, bbs := buildNested()
    st := New(testOptions()).Run(cfg)
    require.Equal(t, 1, st.Relocated)
    require.Equal(t, 1, st.Materializations)

    /* one load in bb_1 serves both uses */
    r, _, ok := lir.ConstantOf(bbs[1].Ins[0])
    require.True(t, ok)
    require.Len(t, bbs[1].Ins, 1)
    require.Equal(t, r, bbs[2].Ins[0].(*lir.IrBinaryExpr).X)
    require.Equal(t, []lir.Reg { r }, bbs[3].Ins[0].(*lir.IrKeepAlive).R)
    require.Len(t, bbs[2].Ins, 1)
    require.Len(t, bbs[3].Ins, 1)
}

func TestConstLoad_DeepChain(t *testing.T) {
    const N = 200000
    p := lir.CreateBuilder()
    bbs := make([]*lir.BasicBlock, N)
    for i := range bbs {
        bbs[i] = p.Block(1.0)
    }

    /* defined in the entry, used twice by a cold tail */
    bbs[N - 1].Probability = 0.01
    p.At(bbs[0]).Const(i64(0), lir.ConstInt64(42))
    for i := 0; i < N - 1; i++ {
        p.At(bbs[i]).Jump(bbs[i + 1])
    }
    p.At(bbs[N - 1]).KeepAlive(i64(0), i64(0)).Return()

    /* one load moves all the way down */
    st := New(testOptions()).Run(p.Build())
    require.Equal(t, Stats { Candidates: 1, Relocated: 1, Materializations: 1 }, st)
    require.Empty(t, bbs[0].Ins)
    r, c, ok := lir.ConstantOf(bbs[N - 1].Ins[0])
    require.True(t, ok)
    require.Equal(t, lir.ConstInt64(42), c)
    require.Equal(t, []lir.Reg { r, r }, bbs[N - 1].Ins[1].(*lir.IrKeepAlive).R)
}

func TestConstLoad_DecayOffset(t *testing.T) {
    o := testOptions()
    o.DecayOffset = 3

    /* both loads are exempt from the decay, so the equal-cost split wins */
    cfg, bbs := buildBalanced()
    st := New(o).Run(cfg)
    require.Equal(t, Stats { Candidates: 1, Relocated: 1, Materializations: 2 }, st)
    require.Len(t, bbs[0].Ins, 1)
    require.True(t, lir.IsConstantMove(bbs[1].Ins[0]))
    require.True(t, lir.IsConstantMove(bbs[2].Ins[0]))
}

func TestConstLoad_Idempotent(t *testing.T) {
    for _, fn := range []func() (*lir.CFG, []*lir.BasicBlock) { buildCheapBranch, buildNested, buildSplit, buildBalanced } {
        cfg, _ := fn()
        New(testOptions()).Run(cfg)
        out := cfg.String()
        st := New(testOptions()).Run(cfg)
        require.Equal(t, 0, st.Relocated, spew.Sdump(st))
        require.Equal(t, out, cfg.String())
    }
}

func TestConstLoad_Disabled(t *testing.T) {
    cfg, _ := buildCheapBranch()
    old := cfg.String()
    o := testOptions()
    o.Disabled = true
    require.Equal(t, Stats{}, New(o).Run(cfg))
    require.Equal(t, old, cfg.String())
}

func TestConstLoad_InvalidOptions(t *testing.T) {
    o := testOptions()
    o.Decay = 0
    require.Panics(t, func() { New(o) })
    require.Panics(t, func() { ConstLoad { Options: o }.Run(new(lir.CFG)) })
}

func TestConstLoad_Totals(t *testing.T) {
    cfg, _ := buildSplit()
    old := Totals()
    New(testOptions()).Apply(cfg)
    now := Totals()
    require.Equal(t, old.Candidates + 1, now.Candidates)
    require.Equal(t, old.Relocated + 1, now.Relocated)
    require.Equal(t, old.Materializations + 2, now.Materializations)
}

func TestConstLoad_Logging(t *testing.T) {
    core, logs := observer.New(zapcore.DebugLevel)
    o := testOptions()
    o.Logger = zap.New(core)
    cfg, _ := buildSplit()
    New(o).Run(cfg)

    /* one entry per candidate */
    ent := logs.FilterMessage("constload: candidate").AllUntimed()
    require.Len(t, ent, 1)
    ctx := ent[0].ContextMap()
    require.Equal(t, "relocate", ctx["decision"])
    require.Equal(t, "%v0:i32", ctx["var"])
    require.EqualValues(t, 0, ctx["block"])
    require.EqualValues(t, 2, ctx["uses"])
    require.EqualValues(t, 2, ctx["materializations"])
    require.InDelta(t, 0.2, ctx["cost"], 1e-12)

    /* and the summary */
    done := logs.FilterMessage("constload: done").AllUntimed()
    require.Len(t, done, 1)
    stats, ok := done[0].ContextMap()["stats"].(map[string]interface{})
    require.True(t, ok)
    require.Len(t, stats, 7)
    require.EqualValues(t, 1, stats["candidates"])
    require.EqualValues(t, 1, stats["relocated"])
    require.EqualValues(t, 2, stats["materializations"])
    require.EqualValues(t, 0, stats["single_use"])

    /* nothing is computed for disabled levels */
    core, logs = observer.New(zapcore.InfoLevel)
    o.Logger = zap.New(core)
    cfg, _ = buildSplit()
    New(o).Run(cfg)
    require.Equal(t, 0, logs.Len())
}

func TestConstLoad_Draw(t *testing.T) {
    dir := t.TempDir()
    o := testOptions()
    o.DrawDir = dir
    cfg, _ := buildNested()
    New(o).Run(cfg)

    /* one drawing per relocated constant */
    buf, err := os.ReadFile(filepath.Join(dir, "constload_v0_bb0.svg"))
    require.NoError(t, err)
    require.Contains(t, string(buf), "<svg")
    require.Contains(t, string(buf), "bb_1 p=0.5")
    require.Contains(t, string(buf), "candidate|materialize")

    /* failures are only logged */
    core, logs := observer.New(zapcore.WarnLevel)
    o.Logger = zap.New(core)
    o.DrawDir = filepath.Join(dir, "missing")
    cfg, _ = buildNested()
    st := New(o).Run(cfg)
    require.Equal(t, 1, st.Relocated)
    require.Equal(t, 1, logs.FilterMessage("constload: cannot draw constant tree").Len())
}

func TestConstLoad_NotDominated(t *testing.T) {
    p := lir.CreateBuilder()
    c := i64(1)
    bbs := []*lir.BasicBlock {
        p.Block(1.0),
        p.Block(0.5),
        p.Block(0.5),
        p.Block(1.0),
    }
    p.At(bbs[0]).Call("cond", nil, []lir.Reg { c }).Branch(c, bbs[1], bbs[2])
    p.At(bbs[1]).Jump(bbs[3])
    p.At(bbs[2]).Const(i64(0), lir.ConstInt64(42)).Jump(bbs[3])
    p.At(bbs[3]).KeepAlive(i64(0)).Return(i64(0))
    cfg := p.Build()
    e := catchInternal(t, func() { New(testOptions()).Run(cfg) })
    require.Equal(t, "use is not dominated by the definition", e.Reason)
    require.Equal(t, i64(0), e.Var)
}

type _RandomUse struct {
    bb *lir.BasicBlock
    p  lir.IrOperands
    i  int
    cc lir.Constant
}

func buildRandom(rnd *rand.Rand) (*lir.CFG, []_RandomUse) {
    p := lir.CreateBuilder()
    c := i64(0)
    nb := rnd.Intn(24) + 2
    bbs := make([]*lir.BasicBlock, nb)

    /* random blocks, every block reachable from its predecessor */
    for i := range bbs {
        if i == 0 {
            bbs[i] = p.Block(1.0)
        } else {
            bbs[i] = p.Block(rnd.Float64())
        }
    }

    /* random edges, including loops */
    for i, bb := range bbs {
        p.At(bb)
        if i == 0 {
            p.Call("cond", nil, []lir.Reg { c })
        }
        switch {
            case i == nb - 1      : p.Return()
            case rnd.Intn(3) == 0 : p.Jump(bbs[i + 1])
            default               : p.Branch(c, bbs[i + 1], bbs[rnd.Intn(nb)])
        }
    }

    /* constants are placed once the dominator tree is known */
    var uses []_RandomUse
    cfg := p.Build()
    reg := 1
    all := cfg.Blocks()
    kinds := []lir.ValueKind { lir.KindInt32, lir.KindInt64, lir.KindFloat64 }

    /* define each constant, then use it in blocks it dominates */
    for k := rnd.Intn(8) + 1; k > 0; k-- {
        var dom []*lir.BasicBlock
        var cc lir.Constant
        def := all[rnd.Intn(len(all))]
        kind := kinds[rnd.Intn(len(kinds))]
        r := lir.Rv(kind, reg)
        reg++

        /* pick the constant */
        switch kind {
            case lir.KindInt32 : cc = lir.ConstInt32(rnd.Int31())
            case lir.KindInt64 : cc = lir.ConstInt64(rnd.Int63())
            default            : cc = lir.ConstFloat64(rnd.Float64())
        }

        /* emit the definition */
        def.Ins = append(def.Ins, lir.MoveConst(r, cc))
        for _, bb := range all {
            if cfg.Dominates(def, bb) {
                dom = append(dom, bb)
            }
        }

        /* emit the uses */
        for n := rnd.Intn(6); n > 0; n-- {
            var ins lir.IrOperands
            bb := dom[rnd.Intn(len(dom))]

            /* either a plain use, or an alive operand */
            if rnd.Intn(2) == 0 {
                ins = &lir.IrKeepAlive { R: []lir.Reg { r } }
            } else {
                ins = &lir.IrStore { R: r, Mem: c, Size: 8 }
            }

            /* add to block */
            bb.Ins = append(bb.Ins, ins)
            uses = append(uses, _RandomUse { bb: bb, p: ins, i: 0, cc: cc })
        }
    }

    /* rescan the variables */
    cfg.Rebuild(cfg.Root)
    return cfg, uses
}

type _RandomDef struct {
    bb *lir.BasicBlock
    i  int
    cc lir.Constant
}

func checkRandom(t *testing.T, cfg *lir.CFG, uses []_RandomUse) {
    defs := make(map[lir.Reg]_RandomDef)
    index := make(map[lir.IrNode]int)

    /* every constant is defined exactly once, and no slot is left empty */
    for _, bb := range cfg.Blocks() {
        for i, p := range bb.Ins {
            require.NotNil(t, p, "empty slot in bb_%d", bb.Id)
            index[p] = i
            if r, cc, ok := lir.ConstantOf(p); ok {
                _, dup := defs[r]
                require.False(t, dup, "%s is defined twice", r)
                defs[r] = _RandomDef { bb: bb, i: i, cc: cc }
            }
        }
    }

    /* every use still sees the same value, from a dominating definition */
    for _, u := range uses {
        r := *u.p.Operands()[u.i].R
        d, ok := defs[r]
        require.True(t, ok, "%s has no definition", r)
        require.Equal(t, u.cc, d.cc)
        require.True(t, cfg.Dominates(d.bb, u.bb), "bb_%d does not dominate bb_%d", d.bb.Id, u.bb.Id)
        require.Equal(t, r.Kind(), u.cc.K)
        if d.bb == u.bb {
            require.Less(t, d.i, index[u.p])
        }
    }
}

func TestConstLoad_Random(t *testing.T) {
    rnd := rand.New(rand.NewSource(1014))
    for n := 0; n < 300; n++ {
        cfg, uses := buildRandom(rnd)
        defs := 0
        for _, bb := range cfg.Blocks() {
            for _, p := range bb.Ins {
                if lir.IsConstantMove(p) {
                    defs++
                }
            }
        }

        /* first run */
        st := New(testOptions()).Run(cfg)
        checkRandom(t, cfg, uses)
        require.Equal(t, st.Candidates, st.SingleUse + st.UseAtDef + st.Kept + st.Relocated, spew.Sdump(st))
        require.GreaterOrEqual(t, st.Materializations, st.Relocated)

        /* count the definitions again */
        now := 0
        for _, bb := range cfg.Blocks() {
            for _, p := range bb.Ins {
                if lir.IsConstantMove(p) {
                    now++
                }
            }
        }
        require.Equal(t, defs - st.Relocated + st.Materializations, now)

        /* the second run changes nothing */
        out := cfg.String()
        st = New(testOptions()).Run(cfg)
        require.Equal(t, 0, st.Relocated, "%s\n%s", out, spew.Sdump(st))
        require.Equal(t, out, cfg.String())
        checkRandom(t, cfg, uses)
    }
}
