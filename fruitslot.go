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

// Package fruitslot 提供三輪水果機獎勵引擎的對外入口。
//
// 引擎分成兩半：
//   - 設計端（designer）：建立機率空間、校準獎勵表、驗證期望返還。允許浮點與亂數。
//   - 執行期（rules）：序列化後的 RuleSet 加上外部 entropy，決定性地算出單局圖標與獎勵。
//
// 同一份規則檔會在帳本程式、伺服器與瀏覽器端分別解析，三者執行期間互不溝通，
// 因此執行期只做整數運算，且單局結果只由 (RuleSet, seed) 決定。
//
// 典型流程：
//
//	rs, err := fruitslot.Calibrate(core.NewSeeded(seed), symbol.All(), 0.96)
//	blob := fruitslot.Serialize(rs)
//	...
//	rs, err = fruitslot.Deserialize(blob)
//	out := fruitslot.Resolve(rs, []uint16{a, b, c})
package fruitslot

import (
	"github.com/zintix-labs/fruitslot/designer"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/symbol"
)

// Calibrate 建立機率空間並校準獎勵表，使期望返還收斂到 target（[0.5,2.0]）。
// 前置條件不成立時回傳 Fatal 錯誤，不會回傳半成品。
func Calibrate(c *core.Core, symbols []symbol.Symbol, target float64, opts ...designer.Option) (*rules.RuleSet, error) {
	if c == nil {
		return nil, errs.NewFatal("fruitslot: nil core")
	}
	return designer.NewRuleSet(c, symbols, target, designer.NewConfig(opts...))
}

// Resolve 以外部 seed 決定單局結果；全函數，不會失敗。
func Resolve(rs *rules.RuleSet, seed []uint16) rules.Outcome {
	return rs.Play(seed)
}

// ExpectedReturn 封閉解期望返還
func ExpectedReturn(rs *rules.RuleSet) float64 {
	return designer.ExpectedReturn(rs)
}

// Simulate 以 seed 建立亂數核心跑 trials 局，回傳平均獎勵。
func Simulate(rs *rules.RuleSet, trials uint32, seed int64) float64 {
	return designer.Simulate(core.NewSeeded(seed), rs, uint64(trials))
}

// Serialize 輸出 blake3 封存的二進位規則檔
func Serialize(rs *rules.RuleSet) []byte {
	return rules.Encode(rs)
}

// Deserialize 解析並完整驗證二進位規則檔
func Deserialize(b []byte) (*rules.RuleSet, error) {
	return rules.Decode(b)
}
