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

// Package symbol 定義水果機使用的圖標集合。
//
// Symbol 是固定順序的列舉，列舉值即全序；Aggregate 的同分排序與 RewardTable 的鍵排序都依賴它。
// 二進位規則檔以單一 byte 編碼 Symbol，因此集合上限為 255。
package symbol

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/fruitslot/errs"
)

type Symbol uint8

const (
	Cherry Symbol = iota
	Lemon
	Orange
	Plum
	Grape
	Watermelon
	Banana
	Apple
	Pear
	Peach
	Strawberry
	Kiwi
	Pineapple
	Coconut
	Mango
	Blueberry

	count // 哨兵，必須保持在最後
)

// MinSetSize 校準所需的最少圖標數
const MinSetSize = 3

var names = [count]string{
	Cherry:     "cherry",
	Lemon:      "lemon",
	Orange:     "orange",
	Plum:       "plum",
	Grape:      "grape",
	Watermelon: "watermelon",
	Banana:     "banana",
	Apple:      "apple",
	Pear:       "pear",
	Peach:      "peach",
	Strawberry: "strawberry",
	Kiwi:       "kiwi",
	Pineapple:  "pineapple",
	Coconut:    "coconut",
	Mango:      "mango",
	Blueberry:  "blueberry",
}

var symbolMap = func() map[string]Symbol {
	m := make(map[string]Symbol, len(names))
	for i, n := range names {
		m[n] = Symbol(i)
	}
	return m
}()

// Valid 回傳是否為已定義的圖標
func (s Symbol) Valid() bool { return s < count }

func (s Symbol) String() string {
	if !s.Valid() {
		return fmt.Sprintf("symbol(%d)", uint8(s))
	}
	return names[s]
}

// ParseSymbol 以名稱解析圖標（不分大小寫）。
func ParseSymbol(s string) (Symbol, bool) {
	sym, ok := symbolMap[strings.ToLower(strings.TrimSpace(s))]
	return sym, ok
}

// All 回傳完整圖標集合（列舉順序），每次回傳新切片。
func All() []Symbol {
	out := make([]Symbol, count)
	for i := range out {
		out[i] = Symbol(i)
	}
	return out
}

// Count 已定義的圖標數量
func Count() int { return int(count) }

// Names 依序轉為名稱
func Names(syms []Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.String()
	}
	return out
}

// ValidateSet 檢查一組圖標：全部已定義、不可重複、數量不少於 minSize。
func ValidateSet(syms []Symbol, minSize int) error {
	if len(syms) < minSize {
		return errs.Fatalf("symbol set too small: %d < %d", len(syms), minSize)
	}
	var seen [256]bool
	for _, s := range syms {
		if !s.Valid() {
			return errs.Fatalf("unknown symbol %d", uint8(s))
		}
		if seen[s] {
			return errs.Fatalf("duplicate symbol %s", s)
		}
		seen[s] = true
	}
	return nil
}

// MarshalText 讓 yaml/json 以名稱輸出
func (s Symbol) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errs.Fatalf("unknown symbol %d", uint8(s))
	}
	return []byte(names[s]), nil
}

func (s *Symbol) UnmarshalText(b []byte) error {
	v, ok := ParseSymbol(string(b))
	if !ok {
		return errs.Fatalf("unknown symbol %q", string(b))
	}
	*s = v
	return nil
}
