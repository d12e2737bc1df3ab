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

// Package designer 是離線設計端：建立機率空間、計算精確期望返還、校準獎勵表與蒙地卡羅驗證。
//
// 設計端允許浮點與亂數；產出的 rules.RuleSet 則是純整數、可攜的執行期規則。
// 同一個 seed 的 core.Core 會得到同一份規則（校準可重現）。
package designer

import (
	"slices"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/symbol"
)

// ProbOptions 機率空間形狀參數
type ProbOptions struct {
	// ProbVar 一般圖標比值取樣範圍 [1,ProbVar)；最常見圖標固定為 ProbVar*MaxInflate。
	ProbVar float64
}

// maxInflate 最常見圖標的額外放大倍率
const maxInflate = 1.2

// BuildProbSpace 建立 16-bit 量化的機率空間。
//
// n 個圖標：n-2 個比值於 [1,ProbVar) 均勻取樣，再加上最小值 1 與最大值 ProbVar*1.2；
// 正規化後以 uint16(x*65535) 截斷量化，餘數逐一隨機補到各格，最後遞減排序並依列舉順序配對圖標。
// 因此列舉值越小的圖標權重越大，Resolve 的走訪順序也就是權重遞減順序。
func BuildProbSpace(c *core.Core, symbols []symbol.Symbol, opt ProbOptions) (rules.ProbSpace, error) {
	if err := symbol.ValidateSet(symbols, symbol.MinSetSize); err != nil {
		return nil, errs.Wrap(err, "designer: build probability space")
	}
	if opt.ProbVar <= 1 {
		return nil, errs.Fatalf("designer: prob_var must be > 1, got %v", opt.ProbVar)
	}
	n := len(symbols)

	ratios := make([]float64, 0, n)
	for range n - 2 {
		ratios = append(ratios, c.Uniform(1, opt.ProbVar))
	}
	ratios = append(ratios, 1.0, opt.ProbVar*maxInflate)

	var total float64
	for _, r := range ratios {
		total += r
	}
	weights := make([]uint32, n)
	var sum uint32
	for i, r := range ratios {
		x := r / total
		if !(x > 0 && x < 1) {
			return nil, errs.Fatalf("designer: normalized ratio %v out of (0,1)", x)
		}
		weights[i] = uint32(x * rules.TotalWeight)
		sum += weights[i]
	}
	for ; sum < rules.TotalWeight; sum++ {
		weights[c.IntN(n)]++
	}
	if sum != rules.TotalWeight {
		return nil, errs.Fatalf("designer: quantized weight sum %d != %d", sum, rules.TotalWeight)
	}
	slices.SortFunc(weights, func(a, b uint32) int { return int(b) - int(a) })

	ordered := slices.Clone(symbols)
	slices.Sort(ordered)
	space := make(rules.ProbSpace, n)
	for i, s := range ordered {
		space[i] = rules.Weight{Symbol: s, Weight: uint16(weights[i])}
	}
	if got := space.Sum(); got != rules.TotalWeight {
		return nil, errs.Fatalf("designer: probability space sum %d != %d", got, rules.TotalWeight)
	}
	return space, nil
}
