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
    `unsafe`
)

// Constant is a compile-time constant value. Two constants are the same
// value iff they compare equal with ==.
type Constant struct {
    K ValueKind
    V int64
    P unsafe.Pointer
}

func ConstInt32(v int32) Constant {
    return Constant { K: KindInt32, V: int64(v) }
}

func ConstInt64(v int64) Constant {
    return Constant { K: KindInt64, V: v }
}

func ConstFloat32(v float32) Constant {
    return Constant { K: KindFloat32, V: int64(math.Float32bits(v)) }
}

func ConstFloat64(v float64) Constant {
    return Constant { K: KindFloat64, V: int64(math.Float64bits(v)) }
}

func ConstPtr(p unsafe.Pointer) Constant {
    return Constant { K: KindPtr, P: p }
}

func (self Constant) String() string {
    switch self.K {
        case KindInt32   : return fmt.Sprintf("(i32) %d", int32(self.V))
        case KindInt64   : return fmt.Sprintf("(i64) %d", self.V)
        case KindFloat32 : return fmt.Sprintf("(f32) %g", math.Float32frombits(uint32(self.V)))
        case KindFloat64 : return fmt.Sprintf("(f64) %g", math.Float64frombits(uint64(self.V)))
        case KindPtr     : return fmt.Sprintf("(ptr) %p", self.P)
        default          : return "(illegal)"
    }
}
