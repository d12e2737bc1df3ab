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
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/zintix-labs/fruitslot/errs"
)

// Sheet 規則表的 YAML 形式：全整數、圖標以名稱表示，可人工審閱與版本控管。
//
//	name: p96
//	reels: 3
//	space:
//	  - {symbol: cherry, weight: 8309}
//	rewards:
//	  - {symbol: cherry, count: 2, amount: 1}
type Sheet struct {
	Name    string      `yaml:"name"    json:"name"`
	Reels   uint8       `yaml:"reels"   json:"reels"`
	Space   ProbSpace   `yaml:"space"   json:"space"`
	Rewards RewardTable `yaml:"rewards" json:"rewards"`
}

// ParseSheet 嚴格解析（未知欄位報錯），不做 RuleSet 驗證。
func ParseSheet(b []byte) (*Sheet, error) {
	sh := &Sheet{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(sh); err != nil {
		return nil, errs.Wrap(err, "rules.sheet : decode failed")
	}
	return sh, nil
}

// Build 以與 Decode 相同的規則驗證並建立 RuleSet
func (sh *Sheet) Build() (*RuleSet, error) {
	rs, err := New(sh.Space, sh.Rewards, sh.Reels)
	if err != nil {
		return nil, errs.Wrapf(err, "rules.sheet : %q invalid", sh.Name)
	}
	return rs, nil
}

// LoadSheet = ParseSheet + Build
func LoadSheet(b []byte) (*RuleSet, error) {
	sh, err := ParseSheet(b)
	if err != nil {
		return nil, err
	}
	return sh.Build()
}

// NewSheet 由 RuleSet 建立 Sheet（內容為副本）
func NewSheet(name string, rs *RuleSet) *Sheet {
	return &Sheet{Name: name, Reels: rs.reels, Space: rs.Space(), Rewards: rs.Rewards()}
}

// MarshalSheet 輸出 YAML；清單外層展開，每一筆以 flow mapping 呈現。
func MarshalSheet(name string, rs *RuleSet) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(NewSheet(name, rs)); err != nil {
		return nil, errs.Wrap(err, "rules.sheet : encode failed")
	}
	flowItems(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, errs.Wrap(err, "rules.sheet : encode failed")
	}
	if err := enc.Close(); err != nil {
		return nil, errs.Wrap(err, "rules.sheet : encode failed")
	}
	return buf.Bytes(), nil
}

func flowItems(n *yaml.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Content {
		if n.Kind == yaml.SequenceNode && c.Kind == yaml.MappingNode {
			c.Style = yaml.FlowStyle
			continue
		}
		flowItems(c)
	}
}
