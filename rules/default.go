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
	_ "embed"
	"sync"
)

// DefaultName 內嵌預設規則表名稱：完整水果集合、目標返還 0.96
const DefaultName = "p96"

//go:embed p96.yaml
var defaultSheet []byte

var loadDefault = sync.OnceValues(func() (*RuleSet, error) {
	return LoadSheet(defaultSheet)
})

// Default 回傳內嵌的預設規則表（首次呼叫時載入，之後共享同一個不可變實例）。
// 載入失敗會回傳錯誤，不會退回任何替代規則。
func Default() (*RuleSet, error) {
	return loadDefault()
}

// DefaultSheet 回傳內嵌 YAML 原文副本
func DefaultSheet() []byte {
	out := make([]byte, len(defaultSheet))
	copy(out, defaultSheet)
	return out
}
