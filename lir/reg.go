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
)

// ValueKind is the machine-level kind of a value held by a variable.
type ValueKind uint8

const (
    KindIllegal ValueKind = iota
    KindInt32
    KindInt64
    KindFloat32
    KindFloat64
    KindPtr
)

func (self ValueKind) String() string {
    switch self {
        case KindInt32   : return "i32"
        case KindInt64   : return "i64"
        case KindFloat32 : return "f32"
        case KindFloat64 : return "f64"
        case KindPtr     : return "ptr"
        default          : return "illegal"
    }
}

// Reg is a LIR variable, the kind is packed into the top bits.
type Reg uint64

const (
    _B_kind = 56
    _M_kind = 0xff
)

const (
    _R_kind  = _M_kind << _B_kind
    _R_index = (1 << _B_kind) - 1
)

func mkreg(kind ValueKind, i int) Reg {
    if kind == KindIllegal {
        panic("mkreg: invalid value kind")
    } else {
        return (Reg(kind) << _B_kind) | Reg(i & _R_index)
    }
}

// Rv creates a variable of the given kind and index, mostly useful in tests.
func Rv(kind ValueKind, i int) Reg {
    return mkreg(kind, i)
}

func (self Reg) Kind() ValueKind {
    return ValueKind((self & _R_kind) >> _B_kind)
}

func (self Reg) Index() int {
    return int(self & _R_index)
}

func (self Reg) Valid() bool {
    return self.Kind() != KindIllegal
}

func (self Reg) String() string {
    if !self.Valid() {
        return "%invalid"
    } else {
        return fmt.Sprintf("%%v%d:%s", self.Index(), self.Kind())
    }
}
