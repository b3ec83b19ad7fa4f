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

    `github.com/cloudwego/remat/internal/opts`
    `github.com/cloudwego/remat/lir`
    `go.uber.org/zap`
)

const (
    _D_single   = "single-use"
    _D_useatdef = "use-at-def"
    _D_keep     = "keep"
    _D_relocate = "relocate"
)

// ConstLoad moves constant loads towards less frequently executed blocks,
// splitting one definition into several when that is cheaper overall.
type ConstLoad struct {
    Options opts.Options
}

// New creates the pass with the given options, panics if they are invalid.
func New(o opts.Options) ConstLoad {
    if err := o.Validate(); err != nil {
        panic("constload: invalid options: " + err.Error())
    } else {
        return ConstLoad { Options: o }
    }
}

func (self ConstLoad) Apply(cfg *lir.CFG) {
    self.Run(cfg)
}

// Run optimizes every constant of the CFG in place. Invariant violations
// are raised as *InternalError panics.
func (self ConstLoad) Run(cfg *lir.CFG) (st Stats) {
    o := self.Options
    if o.Disabled {
        return
    }

    /* default to a no-op logger */
    if o.Logger == nil {
        o.Logger = zap.NewNop()
    }

    /* check the tunables */
    if err := o.Validate(); err != nil {
        panic("constload: invalid options: " + err.Error())
    }

    /* Phase 1: Collect the definition and uses of every constant */
    col := collectDefUse(cfg)
    rw := newRewriter(cfg)
    st.Redefined = len(col.redefined)

    /* Phase 2: Find the best placement of each constant, and rewrite if it's better */
    for _, tr := range col.Trees() {
        st.Candidates++
        self.optimize(&o, cfg, rw, tr, &st)
    }

    /* Phase 3: Flush all the insertions */
    rw.finish()
    record(st)
    o.Logger.Debug("constload: done", st.field())
    return
}

func (self ConstLoad) optimize(o *opts.Options, cfg *lir.CFG, rw *_Rewriter, tr *DefUseTree, st *Stats) {
    if len(tr.Uses) <= 1 {
        st.SingleUse++
        logDecision(o.Logger, tr, _D_single, nil)
        return
    }

    /* the definition has to stay if it's used in its own block */
    ct := newConstantTree(cfg, tr)
    if ct.Get(FlagUsage, tr.Block) {
        st.UseAtDef++
        logDecision(o.Logger, tr, _D_useatdef, nil)
        return
    }

    /* compute the cost of the whole tree */
    cost := newAnalyzer(ct, o.Decay, o.DecayOffset).analyze(tr.Block)
    self.verify(tr, cost)

    /* leave it unchanged if it's not strictly better */
    if cost.Count <= 1 && !(cost.Cost < tr.Block.Probability) {
        st.Kept++
        logDecision(o.Logger, tr, _D_keep, cost)
        return
    }

    /* rewrite the definition */
    if n := rw.rewrite(ct); n != cost.Count {
        efatal(tr.Var, eblocks(tr.Block), nil, "expected %d materializations, got %d", cost.Count, n)
    } else {
        st.Relocated++
        st.Materializations += n
        logDecision(o.Logger, tr, _D_relocate, cost)
    }

    /* dump the tree for debugging */
    if o.DrawDir != "" {
        if err := drawConstantTree(o.DrawDir, ct); err != nil {
            o.Logger.Warn("constload: cannot draw constant tree", zap.Stringer("var", tr.Var), zap.Error(err))
        }
    }
}

// verify checks that the root cost accounts for every use exactly once.
func (self ConstLoad) verify(tr *DefUseTree, cost *NodeCost) {
    if cost == nil {
        efatal(tr.Var, eblocks(tr.Block), nil, "root block has no cost")
    }

    /* duplicates are rejected while merging, so the count is enough */
    if cost.Uses.Len() != len(tr.Uses) {
        efatal(
            tr.Var,
            eblocks(tr.Block),
            []string { fmt.Sprint(cost.Uses.Len()), fmt.Sprint(len(tr.Uses)) },
            "root cost covers %d uses out of %d",
            cost.Uses.Len(),
            len(tr.Uses),
        )
    }
}

func logDecision(log *zap.Logger, tr *DefUseTree, decision string, cost *NodeCost) {
    ce := log.Check(zap.DebugLevel, "constload: candidate")
    if ce == nil {
        return
    }

    /* basic fields */
    fields := []zap.Field {
        zap.Stringer("var", tr.Var),
        zap.Stringer("const", tr.Const),
        zap.Int("block", tr.Block.Id),
        zap.Int("uses", len(tr.Uses)),
        zap.String("decision", decision),
    }

    /* cost fields, if analyzed */
    if cost != nil {
        fields = append(fields, zap.Float64("cost", cost.Cost), zap.Int("materializations", cost.Count))
    }

    /* write the log entry */
    ce.Write(fields...)
}
