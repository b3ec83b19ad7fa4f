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

package sparse

import (
    `fmt`
    `sort`
    `strings`
)

// Threshold bounds the dense representation, keys below it are stored in a slice.
const Threshold = 64

type _Store[T any] struct {
    vals []T
    used []bool
    maps map[int]T
    refs int
}

func (self *_Store[T]) clone() *_Store[T] {
    ret := &_Store[T] { refs: 1 }

    /* dense part */
    if self.vals != nil {
        ret.vals = append(make([]T, 0, cap(self.vals)), self.vals...)
        ret.used = append(make([]bool, 0, cap(self.used)), self.used...)
    }

    /* sparse part */
    if self.maps != nil {
        ret.maps = make(map[int]T, len(self.maps))
        for k, v := range self.maps { ret.maps[k] = v }
    }

    /* all done */
    return ret
}

// IndexMap maps small non-negative integers to values. Keys below Threshold
// live in a growable slice, the first key at or above it moves every entry
// into a Go map. Copies share the backing store until either side writes.
type IndexMap[T any] struct {
    n int
    s *_Store[T]
}

func (self *IndexMap[T]) Len() int {
    return self.n
}

func (self *IndexMap[T]) Get(k int) (v T, ok bool) {
    if self.s == nil || k < 0 {
        return
    } else if self.s.maps != nil {
        v, ok = self.s.maps[k]
        return
    } else if k < len(self.s.vals) && self.s.used[k] {
        return self.s.vals[k], true
    } else {
        return
    }
}

func (self *IndexMap[T]) Has(k int) bool {
    _, ok := self.Get(k)
    return ok
}

// Put stores v at key k, reporting whether the key was newly added.
func (self *IndexMap[T]) Put(k int, v T) bool {
    if k < 0 {
        panic(fmt.Sprintf("sparse: negative key: %d", k))
    }

    /* take ownership of the backing store before writing */
    self.own()
    st := self.s

    /* switch to the sparse representation when the key is too large */
    if st.maps == nil && k >= Threshold {
        self.spill()
    }

    /* sparse representation */
    if st.maps != nil {
        _, ok := st.maps[k]
        st.maps[k] = v
        if !ok { self.n++ }
        return !ok
    }

    /* grow the dense part */
    for len(st.vals) <= k {
        var z T
        st.vals = append(st.vals, z)
        st.used = append(st.used, false)
    }

    /* dense representation */
    ok := st.used[k]
    st.vals[k] = v
    st.used[k] = true
    if !ok { self.n++ }
    return !ok
}

func (self *IndexMap[T]) Delete(k int) bool {
    if !self.Has(k) {
        return false
    }

    /* take ownership of the backing store before writing */
    self.own()
    st := self.s
    self.n--

    /* remove the key */
    if st.maps != nil {
        delete(st.maps, k)
    } else {
        var z T
        st.vals[k] = z
        st.used[k] = false
    }
    return true
}

// Copy returns a map observing the same entries. The backing store is
// shared, and both owners copy it on their next write.
func (self *IndexMap[T]) Copy() IndexMap[T] {
    if self.s != nil {
        self.s.refs++
    }
    return IndexMap[T] {
        n: self.n,
        s: self.s,
    }
}

// Keys returns all the keys in increasing order.
func (self *IndexMap[T]) Keys() []int {
    ret := make([]int, 0, self.n)
    self.ForEach(func(k int, _ T) { ret = append(ret, k) })
    return ret
}

// ForEach calls fn for every entry in increasing key order.
func (self *IndexMap[T]) ForEach(fn func(k int, v T)) {
    if self.s == nil {
        return
    }

    /* dense representation is already sorted */
    if self.s.maps == nil {
        for k, ok := range self.s.used {
            if ok {
                fn(k, self.s.vals[k])
            }
        }
        return
    }

    /* sort the keys of the sparse representation */
    keys := make([]int, 0, len(self.s.maps))
    for k := range self.s.maps { keys = append(keys, k) }
    sort.Ints(keys)

    /* visit in order */
    for _, k := range keys {
        fn(k, self.s.maps[k])
    }
}

func (self *IndexMap[T]) String() string {
    buf := make([]string, 0, self.n)
    self.ForEach(func(k int, v T) { buf = append(buf, fmt.Sprintf("%d: %v", k, v)) })
    return fmt.Sprintf("{%s}", strings.Join(buf, ", "))
}

func (self *IndexMap[T]) own() {
    if self.s == nil {
        self.s = &_Store[T] { refs: 1 }
    } else if self.s.refs > 1 {
        self.s.refs--
        self.s = self.s.clone()
    }
}

func (self *IndexMap[T]) spill() {
    st := self.s
    st.maps = make(map[int]T, len(st.vals))

    /* move every dense entry into the map */
    for k, ok := range st.used {
        if ok {
            st.maps[k] = st.vals[k]
        }
    }

    /* drop the dense part */
    st.vals = nil
    st.used = nil
}
