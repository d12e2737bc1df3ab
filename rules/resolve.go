// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"slices"

	"github.com/zintix-labs/fruitslot/symbol"
)

// Resolve 將每個 seed 元素映射為一個圖標。
//
// 依儲存順序走訪機率空間：randVal <= weight 即選中，否則 randVal -= weight；
// 走完仍未選中（僅可能發生於權重總和小於 seed 時）則選第一格。
// 純函數：不讀時鐘、不用全域亂數。
func Resolve(space ProbSpace, seed []uint16) []symbol.Symbol {
	return ResolveInto(space, seed, make([]symbol.Symbol, 0, len(seed)))
}

// ResolveInto 與 Resolve 相同，結果附加到 dst。
func ResolveInto(space ProbSpace, seed []uint16, dst []symbol.Symbol) []symbol.Symbol {
	for _, v := range seed {
		dst = append(dst, pick(space, v))
	}
	return dst
}

func pick(space ProbSpace, randVal uint16) symbol.Symbol {
	for _, w := range space {
		if randVal <= w.Weight {
			return w.Symbol
		}
		randVal -= w.Weight
	}
	if len(space) == 0 {
		return 0
	}
	return space[0].Symbol
}

type hit struct {
	sym   symbol.Symbol
	count int
}

func (h hit) amount(table RewardTable) uint32 {
	if h.count > 255 {
		return 0
	}
	return uint32(table.Lookup(h.sym, uint8(h.count)))
}

// tally 依首次出現順序統計各圖標次數
func tally(syms []symbol.Symbol, dst []hit) []hit {
	for _, s := range syms {
		found := false
		for i := range dst {
			if dst[i].sym == s {
				dst[i].count++
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, hit{sym: s, count: 1})
		}
	}
	return dst
}

// Total 計算一組圖標的總獎勵：各圖標依出現次數查表加總（uint32），飽和至 MaxReward。
func Total(syms []symbol.Symbol, table RewardTable) uint16 {
	var buf [8]hit
	var sum uint32
	for _, h := range tally(syms, buf[:0]) {
		sum += h.amount(table)
	}
	return ClampReward(sum)
}

// Aggregate 計算總獎勵並將圖標依命中次數遞減重排，同次數以列舉值遞增排序。
// 不修改輸入切片。
func Aggregate(syms []symbol.Symbol, table RewardTable) ([]symbol.Symbol, uint16) {
	var buf [8]hit
	hits := tally(syms, buf[:0])
	var sum uint32
	for _, h := range hits {
		sum += h.amount(table)
	}
	slices.SortFunc(hits, func(a, b hit) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return int(a.sym) - int(b.sym)
	})
	out := make([]symbol.Symbol, 0, len(syms))
	for _, h := range hits {
		for range h.count {
			out = append(out, h.sym)
		}
	}
	return out, ClampReward(sum)
}
