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

package designer

import (
	"math"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/symbol"
)

// entry 校準中的獎項（uint32 暫存，寫回時飽和）
type entry struct {
	sym    symbol.Symbol
	count  uint8
	prob   float64
	amount uint32
	pinned bool
}

// Calibrate 校準獎勵表，使期望返還收斂到 target。
//
//  1. 起始值：每個 (圖標, 次數) 給 floor(target / 命中機率 / 圖標數)，飽和到 [0,MaxReward]；
//     命中機率不在 (0,1) 的項目（零權重圖標）起始為 0。
//  2. 套用 Override：固定獎項寫入後不再縮放，但參與每一輪的期望值計算。
//  3. 重複 Rounds 輪：coef = target / 目前期望值；大於 Floor 的獎項乘上 coef 與 [JitterLo,1) 抖動後取整。
//  4. 移除 0 值。
//
// 回傳的 history 為每一輪縮放前的期望值。
func Calibrate(c *core.Core, space rules.ProbSpace, reels uint8, target float64, cfg Config) (rules.RewardTable, []float64, error) {
	if !(target >= MinTarget && target <= MaxTarget) {
		return nil, nil, errs.Fatalf("designer: target %v out of [%v,%v]", target, MinTarget, MaxTarget)
	}
	if reels < 2 {
		return nil, nil, errs.Fatalf("designer: reels must be >= 2, got %d", reels)
	}
	if err := symbol.ValidateSet(space.Symbols(), symbol.MinSetSize); err != nil {
		return nil, nil, errs.Wrap(err, "designer: calibrate")
	}
	cfg.Reels = reels
	if err := cfg.Valid(); err != nil {
		return nil, nil, err
	}
	log := cfg.logger()

	n := float64(len(space))
	entries := make([]entry, 0, len(space)*int(reels))
	for _, w := range space {
		for k := uint8(1); k <= reels; k++ {
			e := entry{sym: w.Symbol, count: k, prob: HitProbability(space, w.Symbol, k, reels)}
			if e.prob > 0 && e.prob < 1 {
				e.amount = clamp(math.Floor(target / e.prob / n))
			}
			entries = append(entries, e)
		}
	}

	if o := cfg.Override; o != nil {
		sym := o.Symbol
		if o.Rarest {
			sym, _ = space.Rarest()
		}
		found := false
		for i := range entries {
			if entries[i].sym == sym && entries[i].count == o.Count {
				entries[i].amount = uint32(o.Amount)
				entries[i].pinned = true
				found = true
				break
			}
		}
		if !found {
			return nil, nil, errs.Fatalf("designer: override symbol %s not in probability space", sym)
		}
	}

	history := make([]float64, 0, cfg.Rounds)
	for round := range cfg.Rounds {
		projected := project(entries)
		history = append(history, projected)
		if projected <= 0 {
			return nil, history, errs.Fatalf("designer: projected return is zero at round %d", round)
		}
		coef := target / projected
		log.Debug("calibrate.round", "round", round, "projected", projected, "coef", coef)
		for i := range entries {
			e := &entries[i]
			if e.pinned || e.amount <= uint32(cfg.Floor) {
				continue
			}
			jitter := c.Uniform(cfg.JitterLo, 1.0)
			e.amount = clamp(math.Floor(float64(e.amount) * coef * jitter))
		}
	}

	table := make(rules.RewardTable, 0, len(entries))
	for _, e := range entries {
		if e.amount == 0 {
			continue
		}
		table = append(table, rules.Reward{Symbol: e.sym, Count: e.count, Amount: uint16(e.amount)})
	}
	table = table.Normalize()
	log.Debug("calibrate.done", "target", target, "entries", len(table), "expected", ExpectedOf(space, table, reels))
	return table, history, nil
}

func project(entries []entry) float64 {
	var ev float64
	for _, e := range entries {
		ev += e.prob * float64(e.amount)
	}
	return ev
}

func clamp(v float64) uint32 {
	switch {
	case !(v > 0):
		return 0
	case v > rules.MaxReward:
		return rules.MaxReward
	default:
		return uint32(v)
	}
}

// NewRuleSet 建立機率空間、校準並回傳驗證過的 RuleSet。
func NewRuleSet(c *core.Core, symbols []symbol.Symbol, target float64, cfg Config) (*rules.RuleSet, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	if !(target >= MinTarget && target <= MaxTarget) {
		return nil, errs.Fatalf("designer: target %v out of [%v,%v]", target, MinTarget, MaxTarget)
	}
	space, err := BuildProbSpace(c, symbols, ProbOptions{ProbVar: cfg.ProbVar})
	if err != nil {
		return nil, err
	}
	table, _, err := Calibrate(c, space, cfg.Reels, target, cfg)
	if err != nil {
		return nil, err
	}
	rs, err := rules.New(space, table, cfg.Reels)
	if err != nil {
		return nil, errs.Wrap(err, "designer: calibrated rule set invalid")
	}
	return rs, nil
}
