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
    `html`
    `os`
    `strings`

    `github.com/oleiade/lane`
)

func dotrow(ss string, w *int) string {
    if len(ss) > *w {
        *w = len(ss)
    }
    return fmt.Sprintf(
        "<tr><td align=\"left\">%s</td></tr>\n",
        strings.ReplaceAll(html.EscapeString(ss), " ", "&nbsp;"),
    )
}

func (self *CFG) dotblock(bb *BasicBlock) string {
    var w int
    var ins []string
    var pred []string
    var idomof []string

    /* instructions */
    for _, v := range bb.Ins {
        if v != nil {
            ins = append(ins, dotrow(v.String(), &w))
        }
    }

    /* predecessors */
    for _, d := range bb.Pred {
        pred = append(pred, fmt.Sprintf("bb_%d", d.Id))
    }

    /* immediate dominator */
    idomby := "∅"
    if d := self.DominatedBy[bb.Id]; d != nil {
        idomby = fmt.Sprintf("bb_%d", d.Id)
    }

    /* dominated blocks */
    for _, d := range self.DominatorOf[bb.Id] {
        idomof = append(idomof, fmt.Sprintf("bb_%d", d.Id))
    }

    /* block metadata */
    meta := []string {
        dotrow(fmt.Sprintf("# prob = %g", bb.Probability), &w),
        dotrow(fmt.Sprintf("# pred = {%s}", strings.Join(pred, ", ")), &w),
        dotrow(fmt.Sprintf("# idom_by = %s", idomby), &w),
        dotrow(fmt.Sprintf("# idom_of = {%s}", strings.Join(idomof, ", ")), &w),
    }

    /* terminator */
    term := dotrow(bb.Term.String(), &w)
    buf := []string {
        "<table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n",
        fmt.Sprintf("<tr><td width=\"%d\">bb_%d</td></tr>\n", w * 10 + 5, bb.Id),
        "<hr/>\n",
    }

    /* add every section */
    buf = append(buf, meta...)
    if len(ins) != 0 {
        buf = append(buf, "<hr/>\n")
        buf = append(buf, ins...)
    }

    /* terminator goes last */
    buf = append(buf, "<hr/>\n", term, "</table>")
    return strings.Join(buf, "")
}

// Dot renders the CFG in the Graphviz DOT language.
func (self *CFG) Dot() string {
    q := lane.NewQueue()
    n := make(map[int]bool)
    e := make(map[[2]int]bool)
    buf := []string {
        "digraph CFG {",
        `    xdotversion = "15"`,
        `    graph [ fontname = "Fira Code" ]`,
        `    node [ fontname = "Fira Code" fontsize="16" shape = "plaintext" ]`,
        `    edge [ fontname = "Fira Code" ]`,
        `    START [ shape = "circle" ]`,
        fmt.Sprintf(`    START -> bb_%d`, self.Root.Id),
    }

    /* breadth-first over the CFG */
    n[self.Root.Id] = true
    q.Enqueue(self.Root)

    /* visit every reachable block */
    for !q.Empty() {
        p := q.Dequeue().(*BasicBlock)
        buf = append(buf, fmt.Sprintf(`    bb_%d [ label = < %s > ]`, p.Id, self.dotblock(p)))

        /* add every edge */
        for i, ln := range p.Term.Successors() {
            edge := [2]int { p.Id, ln.Id }
            label := "goto"

            /* branch edges are labeled */
            if _, ok := p.Term.(*IrBranch); ok {
                if i == 0 { label = "true" } else { label = "false" }
            }

            /* add the edge only once */
            if !e[edge] {
                e[edge] = true
                buf = append(buf, fmt.Sprintf(`    bb_%d -> bb_%d [ label = "%s" ]`, p.Id, ln.Id, label))
            }

            /* visit the successor */
            if !n[ln.Id] {
                n[ln.Id] = true
                q.Enqueue(ln)
            }
        }
    }

    /* join them together */
    buf = append(buf, "}")
    return strings.Join(buf, "\n")
}

// WriteDot writes the DOT rendering of the CFG into a file.
func (self *CFG) WriteDot(fn string) error {
    return os.WriteFile(fn, []byte(self.Dot()), 0644)
}
