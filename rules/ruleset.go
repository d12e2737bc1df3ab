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
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/symbol"
)

// DefaultReels 設計端預設的輪數
const DefaultReels = 3

// RuleSet 一份完整、已驗證的規則：機率空間 + 獎勵表 + 輪數。
//
// 建立後不可變；存取器一律回傳副本，因此可在任意數量的 goroutine 間共享而不需鎖。
type RuleSet struct {
	space   ProbSpace
	rewards RewardTable
	reels   uint8
}

// Outcome 單局結果。Symbols 長度恆等於輪數，已依命中次數排序。
type Outcome struct {
	Symbols []symbol.Symbol `json:"symbols"`
	Reward  uint16          `json:"reward"`
}

// New 驗證並建立 RuleSet。輸入會被複製，呼叫端之後修改不影響 RuleSet。
func New(space ProbSpace, rewards RewardTable, reels uint8) (*RuleSet, error) {
	rs := &RuleSet{
		space:   space.Clone(),
		rewards: rewards.Clone(),
		reels:   reels,
	}
	if err := rs.validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (rs *RuleSet) validate() error {
	if rs.reels < 2 {
		return errs.Fatalf("reels must be >= 2, got %d", rs.reels)
	}
	if len(rs.space) == 0 {
		return errs.NewFatal("probability space is empty")
	}
	var inSpace [256]bool
	for _, w := range rs.space {
		if !w.Symbol.Valid() {
			return errs.Fatalf("probability space: unknown symbol %d", uint8(w.Symbol))
		}
		if inSpace[w.Symbol] {
			return errs.Fatalf("probability space: duplicate symbol %s", w.Symbol)
		}
		inSpace[w.Symbol] = true
	}
	if sum := rs.space.Sum(); sum != TotalWeight {
		return errs.Fatalf("probability space: weight sum %d != %d", sum, TotalWeight)
	}
	for i, r := range rs.rewards {
		if !r.Symbol.Valid() || !inSpace[r.Symbol] {
			return errs.Fatalf("reward table: symbol %s not in probability space", r.Symbol)
		}
		if r.Count < 1 || r.Count > rs.reels {
			return errs.Fatalf("reward table: %s count %d out of [1,%d]", r.Symbol, r.Count, rs.reels)
		}
		if r.Amount == 0 || r.Amount > MaxReward {
			return errs.Fatalf("reward table: %s x%d amount %d out of [1,%d]", r.Symbol, r.Count, r.Amount, MaxReward)
		}
		if i > 0 && compareKey(rs.rewards[i-1], r) >= 0 {
			return errs.Fatalf("reward table: keys not strictly ascending at %s x%d", r.Symbol, r.Count)
		}
	}
	return nil
}

// Space 回傳機率空間副本
func (rs *RuleSet) Space() ProbSpace { return rs.space.Clone() }

// Rewards 回傳獎勵表副本
func (rs *RuleSet) Rewards() RewardTable { return rs.rewards.Clone() }

func (rs *RuleSet) Reels() uint8 { return rs.reels }

// Lookup 查詢單一獎項，不存在為 0
func (rs *RuleSet) Lookup(sym symbol.Symbol, count uint8) uint16 {
	return rs.rewards.Lookup(sym, count)
}

// Play 以外部 seed 決定單局結果（Resolve + Aggregate）。
//
// seed 長於輪數時截斷、短於輪數時補 0，因此 Play 是全函數，永遠回傳 reels 個圖標。
func (rs *RuleSet) Play(seed []uint16) Outcome {
	s := make([]uint16, rs.reels)
	copy(s, seed)
	syms, reward := Aggregate(Resolve(rs.space, s), rs.rewards)
	return Outcome{Symbols: syms, Reward: reward}
}

// PlayInto 為熱路徑版本：重用 buf 作為 Resolve 輸出，回傳總獎勵與排序前的圖標。
// 模擬器用它避免每局配置；len(seed) 必須等於輪數。
func (rs *RuleSet) PlayInto(seed []uint16, buf []symbol.Symbol) ([]symbol.Symbol, uint16) {
	buf = ResolveInto(rs.space, seed, buf[:0])
	return buf, Total(buf, rs.rewards)
}

// Equal 比對鍵、值與順序
func (rs *RuleSet) Equal(o *RuleSet) bool {
	if rs == nil || o == nil {
		return rs == o
	}
	if rs.reels != o.reels || len(rs.space) != len(o.space) || len(rs.rewards) != len(o.rewards) {
		return false
	}
	for i := range rs.space {
		if rs.space[i] != o.space[i] {
			return false
		}
	}
	for i := range rs.rewards {
		if rs.rewards[i] != o.rewards[i] {
			return false
		}
	}
	return true
}
