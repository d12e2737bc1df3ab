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

package symbol

import (
	"encoding/json"
	"testing"

	"github.com/zintix-labs/fruitslot/errs"
)

func TestParseSymbol(t *testing.T) {
	for _, s := range All() {
		got, ok := ParseSymbol(s.String())
		if !ok || got != s {
			t.Fatalf("parse %s: got %v ok=%v", s, got, ok)
		}
	}
	if s, ok := ParseSymbol(" Kiwi "); !ok || s != Kiwi {
		t.Fatalf("expected case-insensitive parse")
	}
	if _, ok := ParseSymbol("durian"); ok {
		t.Fatalf("durian should not parse")
	}
}

func TestAllOrder(t *testing.T) {
	all := All()
	if len(all) != Count() || Count() != 16 {
		t.Fatalf("unexpected set size %d", len(all))
	}
	if all[0] != Cherry || all[len(all)-1] != Blueberry {
		t.Fatalf("enum order changed: %v", Names(all))
	}
	all[0] = Mango
	if All()[0] != Cherry {
		t.Fatalf("All must return a fresh slice")
	}
}

func TestValidateSet(t *testing.T) {
	cases := []struct {
		name string
		syms []Symbol
		ok   bool
	}{
		{"full", All(), true},
		{"three", []Symbol{Cherry, Lemon, Orange}, true},
		{"two", []Symbol{Cherry, Lemon}, false},
		{"dup", []Symbol{Cherry, Lemon, Cherry}, false},
		{"unknown", []Symbol{Cherry, Lemon, Symbol(200)}, false},
	}
	for _, tc := range cases {
		err := ValidateSet(tc.syms, MinSetSize)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected err %v", tc.name, err)
		}
		if !tc.ok && !errs.IsFatal(err) {
			t.Errorf("%s: expected fatal, got %v", tc.name, err)
		}
	}
}

func TestTextMarshal(t *testing.T) {
	b, err := json.Marshal([]Symbol{Pear, Peach})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `["pear","peach"]` {
		t.Fatalf("got %s", b)
	}
	var back []Symbol
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back[0] != Pear || back[1] != Peach {
		t.Fatalf("got %v", back)
	}
	if Symbol(99).String() != "symbol(99)" {
		t.Fatalf("unexpected invalid name %s", Symbol(99))
	}
}
