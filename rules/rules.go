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

// Package rules 是水果機的最小執行期（runtime）。
//
// 內容只有：機率空間（ProbSpace）、獎勵表（RewardTable）、RuleSet 以及
// 由外部 entropy 決定單局結果的 Resolve / Aggregate。
// 本包不含任何亂數來源、浮點校準或統計依賴；同一份規則檔在帳本程式、伺服器與瀏覽器端
// 必須得到完全相同的結果，因此所有運算都是整數且決定性的。
package rules

import (
	"slices"

	"github.com/zintix-labs/fruitslot/symbol"
)

const (
	// TotalWeight 機率空間權重總和（16-bit 量化）
	TotalWeight = 65535
	// MaxReward 單一獎項與單局總獎勵的上限（飽和值）
	MaxReward = 55666
)

// Weight 機率空間中的一格：圖標與其 16-bit 權重
type Weight struct {
	Symbol symbol.Symbol `yaml:"symbol" json:"symbol"`
	Weight uint16        `yaml:"weight" json:"weight"`
}

// ProbSpace 有序的權重表，儲存順序即 Resolve 的走訪順序。
type ProbSpace []Weight

// Sum 以 uint32 累加，避免 uint16 溢位
func (ps ProbSpace) Sum() uint32 {
	var s uint32
	for _, w := range ps {
		s += uint32(w.Weight)
	}
	return s
}

// WeightOf 回傳圖標權重，不存在回傳 (0,false)
func (ps ProbSpace) WeightOf(s symbol.Symbol) (uint16, bool) {
	for _, w := range ps {
		if w.Symbol == s {
			return w.Weight, true
		}
	}
	return 0, false
}

// Symbols 依儲存順序列出圖標
func (ps ProbSpace) Symbols() []symbol.Symbol {
	out := make([]symbol.Symbol, len(ps))
	for i, w := range ps {
		out[i] = w.Symbol
	}
	return out
}

// Rarest 回傳權重最小的圖標；同權重取儲存順序較後者（設計端以遞減順序儲存）。
func (ps ProbSpace) Rarest() (symbol.Symbol, bool) {
	if len(ps) == 0 {
		return 0, false
	}
	best := 0
	for i, w := range ps {
		if w.Weight <= ps[best].Weight {
			best = i
		}
	}
	return ps[best].Symbol, true
}

func (ps ProbSpace) Clone() ProbSpace {
	return slices.Clone(ps)
}

// Reward 獎勵表的一筆：Symbol 出現 Count 次時給予 Amount
type Reward struct {
	Symbol symbol.Symbol `yaml:"symbol" json:"symbol"`
	Count  uint8         `yaml:"count"  json:"count"`
	Amount uint16        `yaml:"amount" json:"amount"`
}

// RewardTable 稀疏獎勵表，依 (Symbol, Count) 遞增排序、鍵唯一；Amount 為 0 的項目不存在。
type RewardTable []Reward

func compareKey(a, b Reward) int {
	if a.Symbol != b.Symbol {
		return int(a.Symbol) - int(b.Symbol)
	}
	return int(a.Count) - int(b.Count)
}

// Lookup 查詢 (sym, count) 的獎勵，不存在視為 0
func (rt RewardTable) Lookup(sym symbol.Symbol, count uint8) uint16 {
	i, ok := slices.BinarySearchFunc(rt, Reward{Symbol: sym, Count: count}, compareKey)
	if !ok {
		return 0
	}
	return rt[i].Amount
}

// Normalize 回傳排序後、移除 0 值並將同鍵以後者覆蓋的新表。
// 設計端在組表時使用；執行期只接受已正規化的表。
func (rt RewardTable) Normalize() RewardTable {
	out := slices.Clone(rt)
	slices.SortStableFunc(out, compareKey)
	// 同鍵保留最後寫入者
	dedup := out[:0]
	for i, r := range out {
		if i+1 < len(out) && compareKey(r, out[i+1]) == 0 {
			continue
		}
		if r.Amount == 0 {
			continue
		}
		dedup = append(dedup, r)
	}
	return slices.Clip(dedup)
}

// Set 寫入或覆蓋 (sym,count) 的獎勵，amount 超過 MaxReward 時飽和；回傳新表。
func (rt RewardTable) Set(sym symbol.Symbol, count uint8, amount uint32) RewardTable {
	out := slices.Clone(rt)
	out = append(out, Reward{Symbol: sym, Count: count, Amount: ClampReward(amount)})
	return out.Normalize()
}

func (rt RewardTable) Clone() RewardTable {
	return slices.Clone(rt)
}

// ClampReward 將獎勵飽和到 [0, MaxReward]
func ClampReward(v uint32) uint16 {
	if v > MaxReward {
		return MaxReward
	}
	return uint16(v)
}
