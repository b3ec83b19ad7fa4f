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
    `io`
    `os`
    `path/filepath`

    `github.com/ajstarks/svgo`
    `github.com/cloudwego/remat/lir`
    `github.com/oleiade/lane`
)

const (
    _W_node = 180
    _H_node = 56
    _W_gap  = 24
    _H_gap  = 48
    _W_pad  = 40
)

type _DrawNode struct {
    x  int
    y  int
    bb *lir.BasicBlock
}

func drawFileName(tr *ConstantTree) string {
    return fmt.Sprintf("constload_v%d_bb%d.svg", tr.def.Var.Index(), tr.Root().Id)
}

// drawConstantTree writes an SVG rendering of the marked subtree into dir.
func drawConstantTree(dir string, tr *ConstantTree) error {
    fp, err := os.OpenFile(filepath.Join(dir, drawFileName(tr)), os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644)
    if err != nil {
        return err
    }

    /* render the tree */
    renderConstantTree(fp, tr)
    return fp.Close()
}

func layoutConstantTree(tr *ConstantTree) ([]*_DrawNode, map[int]*_DrawNode) {
    var col int
    var ret []*_DrawNode

    /* preorder over the marked subtree */
    st := lane.NewStack()
    pos := make(map[int]*_DrawNode)
    st.Push(&_DrawNode { bb: tr.Root() })

    /* leaves take the next free column */
    for !st.Empty() {
        p := st.Pop().(*_DrawNode)
        ch := tr.Children(p.bb)
        ret = append(ret, p)
        pos[p.bb.Id] = p

        /* assign the column */
        if len(ch) == 0 {
            p.x = col
            col++
        }

        /* visit the children from left to right */
        for i := len(ch) - 1; i >= 0; i-- {
            st.Push(&_DrawNode { y: p.y + 1, bb: ch[i] })
        }
    }

    /* parents are centered above their children, children come later in preorder */
    for i := len(ret) - 1; i >= 0; i-- {
        if ch := tr.Children(ret[i].bb); len(ch) != 0 {
            ret[i].x = (pos[ch[0].Id].x + pos[ch[len(ch) - 1].Id].x) / 2
        }
    }

    /* all done */
    return ret, pos
}

func drawStyle(f Flags) string {
    switch {
        case f & FlagMaterialize != 0 : return "fill:#c8e6c9;stroke:#2e7d32;stroke-width:2"
        case f & FlagCandidate   != 0 : return "fill:#fff9c4;stroke:#f9a825;stroke-width:1"
        default                       : return "fill:white;stroke:gray;stroke-width:1"
    }
}

func renderConstantTree(w io.Writer, tr *ConstantTree) {
    maxx := 0
    maxy := 0
    nodes, pos := layoutConstantTree(tr)

    /* find the canvas size */
    for _, p := range nodes {
        if p.x > maxx { maxx = p.x }
        if p.y > maxy { maxy = p.y }
    }

    /* pixel coordinates */
    px := func(p *_DrawNode) int { return _W_pad + p.x * (_W_node + _W_gap) }
    py := func(p *_DrawNode) int { return _W_pad * 2 + p.y * (_H_node + _H_gap) }

    /* start the canvas */
    g := svg.New(w)
    g.Start((maxx + 1) * (_W_node + _W_gap) + _W_pad * 2, (maxy + 1) * (_H_node + _H_gap) + _W_pad * 3)
    g.Rect(0, 0, (maxx + 1) * (_W_node + _W_gap) + _W_pad * 2, (maxy + 1) * (_H_node + _H_gap) + _W_pad * 3, "fill:white")
    g.Text(_W_pad, _W_pad, tr.def.String(), "fill:black;font-size:14px;font-family:monospace")

    /* dominator edges */
    for _, p := range nodes {
        for _, c := range tr.Children(p.bb) {
            q := pos[c.Id]
            g.Line(px(p) + _W_node / 2, py(p) + _H_node, px(q) + _W_node / 2, py(q), "stroke:gray;stroke-width:1")
        }
    }

    /* every block */
    for _, p := range nodes {
        f := tr.Flags(p.bb)
        x, y := px(p), py(p)
        g.Rect(x, y, _W_node, _H_node, drawStyle(f))
        g.Text(x + 8, y + 18, fmt.Sprintf("bb_%d p=%g", p.bb.Id, p.bb.Probability), "fill:black;font-size:13px;font-family:monospace")
        g.Text(x + 8, y + 34, f.String(), "fill:dimgray;font-size:11px;font-family:monospace")

        /* node costs */
        if cc := tr.Cost(p.bb); cc != nil {
            g.Text(x + 8, y + 48, fmt.Sprintf("cost=%.4g uses=%d mat=%d", cc.Cost, cc.Uses.Len(), cc.Count), "fill:dimgray;font-size:11px;font-family:monospace")
        }
    }

    /* finish the canvas */
    g.End()
}
