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

	"gonum.org/v1/gonum/stat/combin"

	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/symbol"
)

// HitProbability 單局中 sym 恰好出現 count 次的機率（各輪獨立）：
//
//	C(reels,count) · p^count · (1-p)^(reels-count),  p = weight/65535
//
// sym 不在機率空間或 count 超出 [0,reels] 時回傳 0。
func HitProbability(space rules.ProbSpace, sym symbol.Symbol, count, reels uint8) float64 {
	w, ok := space.WeightOf(sym)
	if !ok || count > reels {
		return 0
	}
	return hitProb(float64(w)/rules.TotalWeight, int(count), int(reels))
}

func hitProb(p float64, k, n int) float64 {
	return float64(combin.Binomial(n, k)) * math.Pow(p, float64(k)) * math.Pow(1-p, float64(n-k))
}

// ExpectedReturn 以封閉解計算 RuleSet 的長期期望返還（每局押注 1）。
func ExpectedReturn(rs *rules.RuleSet) float64 {
	return ExpectedOf(rs.Space(), rs.Rewards(), rs.Reels())
}

// ExpectedOf 同 ExpectedReturn，直接接受尚未組成 RuleSet 的空間與獎勵表。
func ExpectedOf(space rules.ProbSpace, table rules.RewardTable, reels uint8) float64 {
	var ev float64
	for _, r := range table {
		ev += HitProbability(space, r.Symbol, r.Count, reels) * float64(r.Amount)
	}
	return ev
}
