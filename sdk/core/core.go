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

// Package core 提供設計端（校準、模擬、伺服器自行出 seed）使用的亂數核心。
//
// 執行期規則（rules 套件）不依賴本包：單局結果只由外部提供的 seed 決定。
package core

// PRNG 設計端用到的取樣能力：
//   - Uint64 供 FillUint16 切出外部 seed
//   - Float64 供 Uniform（比例抽樣、校準抖動）
//   - IntN 供權重餘數分配，n <= 0 回傳 -1
type PRNG interface {
	Uint64() uint64
	Float64() float64
	IntN(n int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：同一實作、同一版本下 New(seed) 必須是決定性的；
	// 校準結果與模擬報表的可重現性都建立在這一點上。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewSeeded 以預設 PRNG 與指定 seed 建立 Core。
func NewSeeded(seed int64) *Core {
	return New(Default().New(seed))
}

// FillUint16 以均勻 uint16 填滿 dst，作為一局的外部 seed。
func (c *Core) FillUint16(dst []uint16) {
	// 一次 Uint64 供 4 個 uint16
	var x uint64
	for i := range dst {
		if i&3 == 0 {
			x = c.Uint64()
		}
		dst[i] = uint16(x)
		x >>= 16
	}
}

// Uniform 回傳 [lo,hi) 的浮點亂數；hi <= lo 時回傳 lo。
func (c *Core) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*c.Float64()
}
