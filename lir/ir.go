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
    `strings`
)

// OperandMode classifies how an instruction accesses one of its operands.
type OperandMode uint8

const (
    // Use is a plain input operand.
    Use OperandMode = iota

    // Alive is an operand that must stay live until the instruction completes,
    // it is read but never redefined.
    Alive

    // Temp is a scratch operand, it carries no value across the instruction.
    Temp

    // Def is an output operand.
    Def
)

func (self OperandMode) String() string {
    switch self {
        case Use   : return "use"
        case Alive : return "alive"
        case Temp  : return "temp"
        case Def   : return "def"
        default    : return "???"
    }
}

// Operand is one operand slot of an instruction. R points into the
// instruction itself, so writing through it rewrites the instruction.
type Operand struct {
    R    *Reg
    Mode OperandMode
}

type IrNode interface {
    fmt.Stringer
    irnode()
}

func (*IrMoveConst)  irnode() {}
func (*IrMove)       irnode() {}
func (*IrBinaryExpr) irnode() {}
func (*IrLoad)       irnode() {}
func (*IrStore)      irnode() {}
func (*IrCall)       irnode() {}
func (*IrKeepAlive)  irnode() {}
func (*IrJump)       irnode() {}
func (*IrBranch)     irnode() {}
func (*IrReturn)     irnode() {}

// IrOperands is implemented by every instruction that has operands. The
// position of an operand is its index in the returned slice, which is stable
// for the lifetime of the instruction.
type IrOperands interface {
    IrNode
    Operands() []Operand
}

// IrConstantMove is implemented by instructions that load a constant into a variable.
type IrConstantMove interface {
    IrNode
    Result() Reg
    Constant() Constant
}

// IsConstantMove checks if an instruction is a constant-producing move.
func IsConstantMove(p IrNode) bool {
    _, ok := p.(IrConstantMove)
    return ok
}

// ConstantOf extracts the constant and the target variable of a constant move.
func ConstantOf(p IrNode) (Reg, Constant, bool) {
    if v, ok := p.(IrConstantMove); !ok {
        return 0, Constant{}, false
    } else {
        return v.Result(), v.Constant(), true
    }
}

type IrMoveConst struct {
    R Reg
    C Constant
}

// MoveConst creates a constant-producing move into r.
func MoveConst(r Reg, c Constant) *IrMoveConst {
    return &IrMoveConst { R: r, C: c }
}

func (self *IrMoveConst) String() string {
    return fmt.Sprintf("%s = const %s", self.R, self.C)
}

func (self *IrMoveConst) Operands() []Operand {
    return []Operand { { &self.R, Def } }
}

func (self *IrMoveConst) Result() Reg {
    return self.R
}

func (self *IrMoveConst) Constant() Constant {
    return self.C
}

type IrMove struct {
    R Reg
    V Reg
}

func (self *IrMove) String() string {
    return fmt.Sprintf("%s = move %s", self.R, self.V)
}

func (self *IrMove) Operands() []Operand {
    return []Operand { { &self.R, Def }, { &self.V, Use } }
}

type IrBinaryOp uint8

const (
    IrOpAdd IrBinaryOp = iota
    IrOpSub
    IrOpMul
    IrOpAnd
    IrOpOr
    IrOpXor
    IrCmpEq
    IrCmpNe
    IrCmpLt
)

func (self IrBinaryOp) String() string {
    switch self {
        case IrOpAdd : return "+"
        case IrOpSub : return "-"
        case IrOpMul : return "*"
        case IrOpAnd : return "&"
        case IrOpOr  : return "|"
        case IrOpXor : return "^"
        case IrCmpEq : return "=="
        case IrCmpNe : return "!="
        case IrCmpLt : return "<"
        default      : panic("unreachable")
    }
}

type IrBinaryExpr struct {
    R  Reg
    X  Reg
    Y  Reg
    Op IrBinaryOp
}

func (self *IrBinaryExpr) String() string {
    return fmt.Sprintf("%s = %s %s %s", self.R, self.X, self.Op, self.Y)
}

func (self *IrBinaryExpr) Operands() []Operand {
    return []Operand { { &self.R, Def }, { &self.X, Use }, { &self.Y, Use } }
}

type IrLoad struct {
    R    Reg
    Mem  Reg
    Size uint8
}

func (self *IrLoad) String() string {
    return fmt.Sprintf("%s = load.u%d %s", self.R, self.Size * 8, self.Mem)
}

func (self *IrLoad) Operands() []Operand {
    return []Operand { { &self.R, Def }, { &self.Mem, Use } }
}

type IrStore struct {
    R    Reg
    Mem  Reg
    Size uint8
}

func (self *IrStore) String() string {
    return fmt.Sprintf("store.u%d(%s -> *%s)", self.Size * 8, self.R, self.Mem)
}

func (self *IrStore) Operands() []Operand {
    return []Operand { { &self.R, Use }, { &self.Mem, Use } }
}

// IrCall calls an external function, T holds the scratch registers clobbered by the call.
type IrCall struct {
    Fn  string
    In  []Reg
    Out []Reg
    T   []Reg
}

func (self *IrCall) String() string {
    return fmt.Sprintf(
        "{%s} = call %s, {%s}",
        regslicerepr(self.Out),
        self.Fn,
        regslicerepr(self.In),
    )
}

func (self *IrCall) Operands() []Operand {
    ret := make([]Operand, 0, len(self.In) + len(self.Out) + len(self.T))
    ret = appendoperands(ret, self.Out, Def)
    ret = appendoperands(ret, self.In, Use)
    ret = appendoperands(ret, self.T, Temp)
    return ret
}

// IrKeepAlive keeps variables alive up to this point, e.g. for safepoints.
type IrKeepAlive struct {
    R []Reg
}

func (self *IrKeepAlive) String() string {
    return fmt.Sprintf("keepalive {%s}", regslicerepr(self.R))
}

func (self *IrKeepAlive) Operands() []Operand {
    return appendoperands(nil, self.R, Alive)
}

type IrTerminator interface {
    IrOperands
    Successors() []*BasicBlock
    irterminator()
}

func (*IrJump)   irterminator() {}
func (*IrBranch) irterminator() {}
func (*IrReturn) irterminator() {}

// IrJump jumps to To, passing V as the outgoing values of the edge.
type IrJump struct {
    To *BasicBlock
    V  []Reg
}

func (self *IrJump) String() string {
    if len(self.V) == 0 {
        return fmt.Sprintf("goto bb_%d", self.To.Id)
    } else {
        return fmt.Sprintf("goto bb_%d {%s}", self.To.Id, regslicerepr(self.V))
    }
}

func (self *IrJump) Operands() []Operand {
    return appendoperands(nil, self.V, Use)
}

func (self *IrJump) Successors() []*BasicBlock {
    return []*BasicBlock { self.To }
}

// IrBranch goes to T if V is non-zero, or F otherwise.
type IrBranch struct {
    V Reg
    T *BasicBlock
    F *BasicBlock
}

func (self *IrBranch) String() string {
    return fmt.Sprintf("if %s goto bb_%d else bb_%d", self.V, self.T.Id, self.F.Id)
}

func (self *IrBranch) Operands() []Operand {
    return []Operand { { &self.V, Use } }
}

func (self *IrBranch) Successors() []*BasicBlock {
    return []*BasicBlock { self.T, self.F }
}

type IrReturn struct {
    R []Reg
}

func (self *IrReturn) String() string {
    return fmt.Sprintf("ret {%s}", regslicerepr(self.R))
}

func (self *IrReturn) Operands() []Operand {
    return appendoperands(nil, self.R, Use)
}

func (self *IrReturn) Successors() []*BasicBlock {
    return nil
}

func appendoperands(buf []Operand, rr []Reg, mode OperandMode) []Operand {
    for i := range rr {
        buf = append(buf, Operand { &rr[i], mode })
    }
    return buf
}

func regslicerepr(rr []Reg) string {
    ret := make([]string, 0, len(rr))
    for _, r := range rr { ret = append(ret, r.String()) }
    return strings.Join(ret, ", ")
}
