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
	"gonum.org/v1/gonum/stat"

	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/symbol"
)

// Simulate 以 c 產生 trials 組均勻 uint16 seed，回傳平均獎勵（每局押注 1）。
func Simulate(c *core.Core, rs *rules.RuleSet, trials uint64) float64 {
	if trials == 0 {
		return 0
	}
	seed := make([]uint16, rs.Reels())
	buf := make([]symbol.Symbol, 0, rs.Reels())
	var total uint64
	for range trials {
		c.FillUint16(seed)
		_, r := rs.PlayInto(seed, buf)
		total += uint64(r)
	}
	return float64(total) / float64(trials)
}

// SampleMoments 收集 trials 局獎勵，回傳樣本平均與標準差。
// 會配置 trials 個 float64，適用於中小樣本（容忍帶、報表）。
func SampleMoments(c *core.Core, rs *rules.RuleSet, trials int) (mean, std float64) {
	if trials < 2 {
		return Simulate(c, rs, uint64(max(trials, 0))), 0
	}
	seed := make([]uint16, rs.Reels())
	buf := make([]symbol.Symbol, 0, rs.Reels())
	x := make([]float64, trials)
	for i := range x {
		c.FillUint16(seed)
		_, r := rs.PlayInto(seed, buf)
		x[i] = float64(r)
	}
	return stat.MeanStdDev(x, nil)
}
