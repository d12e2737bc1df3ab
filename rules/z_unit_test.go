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
	"encoding/binary"
	"errors"
	"slices"
	"strings"
	"testing"

	"lukechampine.com/blake3"
	"pgregory.net/rapid"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/symbol"
)

const (
	A = symbol.Cherry
	B = symbol.Lemon
	C = symbol.Orange
)

func mustNew(t testing.TB, space ProbSpace, rewards RewardTable, reels uint8) *RuleSet {
	t.Helper()
	rs, err := New(space, rewards, reels)
	if err != nil {
		t.Fatalf("new rule set: %v", err)
	}
	return rs
}

func mustDefault(t testing.TB) *RuleSet {
	t.Helper()
	rs, err := Default()
	if err != nil {
		t.Fatalf("default rule set: %v", err)
	}
	return rs
}

func abcSpace() ProbSpace {
	return ProbSpace{{A, 60000}, {B, 5000}, {C, 535}}
}

func TestResolveScenario(t *testing.T) {
	got := Resolve(abcSpace(), []uint16{0, 0, 0})
	if !slices.Equal(got, []symbol.Symbol{A, A, A}) {
		t.Fatalf("got %v", got)
	}
	got = Resolve(abcSpace(), []uint16{60000, 60001, 65535})
	if !slices.Equal(got, []symbol.Symbol{A, B, C}) {
		t.Fatalf("boundaries: got %v", got)
	}
}

func TestResolveFallback(t *testing.T) {
	short := ProbSpace{{B, 10}, {C, 10}}
	got := Resolve(short, []uint16{21, 65535})
	if !slices.Equal(got, []symbol.Symbol{B, B}) {
		t.Fatalf("exhausted walk must pick the first entry, got %v", got)
	}
	if len(Resolve(short, nil)) != 0 {
		t.Fatalf("empty seed yields no symbols")
	}
}

func TestResolveDefaultBoundaries(t *testing.T) {
	rs := mustDefault(t)
	cases := []struct {
		seed uint16
		want symbol.Symbol
	}{
		{0, symbol.Cherry},
		{8309, symbol.Cherry},
		{8310, symbol.Lemon},
		{63803, symbol.Mango},
		{63804, symbol.Blueberry},
		{65534, symbol.Blueberry},
		{65535, symbol.Blueberry},
	}
	for _, tc := range cases {
		got := Resolve(rs.space, []uint16{tc.seed})
		if got[0] != tc.want {
			t.Errorf("seed %d: want %s got %s", tc.seed, tc.want, got[0])
		}
	}
}

func TestAggregateScenario(t *testing.T) {
	table := RewardTable{{Symbol: A, Count: 3, Amount: 10}}
	syms, reward := Aggregate([]symbol.Symbol{A, A, A}, table)
	if !slices.Equal(syms, []symbol.Symbol{A, A, A}) || reward != 10 {
		t.Fatalf("AAA: got %v %d", syms, reward)
	}
	syms, reward = Aggregate([]symbol.Symbol{A, A, B}, table)
	if !slices.Equal(syms, []symbol.Symbol{A, A, B}) || reward != 0 {
		t.Fatalf("AAB: got %v %d", syms, reward)
	}
}

func TestAggregateOrdering(t *testing.T) {
	in := []symbol.Symbol{C, B, C}
	syms, _ := Aggregate(in, nil)
	if !slices.Equal(syms, []symbol.Symbol{C, C, B}) {
		t.Fatalf("by count: got %v", syms)
	}
	if !slices.Equal(in, []symbol.Symbol{C, B, C}) {
		t.Fatalf("input mutated: %v", in)
	}
	syms, _ = Aggregate([]symbol.Symbol{C, A, B}, nil)
	if !slices.Equal(syms, []symbol.Symbol{A, B, C}) {
		t.Fatalf("ties by enum: got %v", syms)
	}
}

func TestAggregateClamp(t *testing.T) {
	table := RewardTable{
		{Symbol: A, Count: 2, Amount: 50000},
		{Symbol: B, Count: 2, Amount: 50000},
	}
	_, reward := Aggregate([]symbol.Symbol{A, B, A, B}, table)
	if reward != MaxReward {
		t.Fatalf("want clamp to %d, got %d", MaxReward, reward)
	}
	if Total([]symbol.Symbol{A, B, A, B}, table) != MaxReward {
		t.Fatalf("Total must clamp as Aggregate")
	}
}

func TestPlayDefault(t *testing.T) {
	rs := mustDefault(t)
	out := rs.Play([]uint16{0, 0, 0})
	if !slices.Equal(out.Symbols, []symbol.Symbol{symbol.Cherry, symbol.Cherry, symbol.Cherry}) || out.Reward != 11 {
		t.Fatalf("got %+v", out)
	}
	// 補 0 與截斷
	if got := rs.Play([]uint16{0}); !slices.Equal(got.Symbols, out.Symbols) {
		t.Fatalf("short seed not padded: %+v", got)
	}
	if got := rs.Play([]uint16{0, 0, 0, 65535}); !slices.Equal(got.Symbols, out.Symbols) {
		t.Fatalf("long seed not truncated: %+v", got)
	}
	// 單一 blueberry 命中 override 獎項
	got := rs.Play([]uint16{65535, 0, 8310})
	if !slices.Equal(got.Symbols, []symbol.Symbol{symbol.Cherry, symbol.Lemon, symbol.Blueberry}) || got.Reward != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestPlayIntoMatchesPlay(t *testing.T) {
	rs := mustDefault(t)
	buf := make([]symbol.Symbol, 0, 3)
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOfN(rapid.Uint16(), 3, 3).Draw(t, "seed")
		_, reward := rs.PlayInto(seed, buf)
		if want := rs.Play(seed).Reward; reward != want {
			t.Fatalf("seed %v: PlayInto %d Play %d", seed, reward, want)
		}
	})
}

// genRuleSet 以 rapid 產生任意合法的 RuleSet
func genRuleSet(t *rapid.T) *RuleSet {
	perm := rapid.Permutation(symbol.All()).Draw(t, "perm")
	n := rapid.IntRange(2, len(perm)).Draw(t, "n")
	reels := uint8(rapid.IntRange(2, 5).Draw(t, "reels"))
	cuts := rapid.SliceOfN(rapid.IntRange(0, TotalWeight), n-1, n-1).Draw(t, "cuts")
	slices.Sort(cuts)
	space := make(ProbSpace, n)
	prev := 0
	for i := range n {
		next := TotalWeight
		if i < n-1 {
			next = cuts[i]
		}
		space[i] = Weight{Symbol: perm[i], Weight: uint16(next - prev)}
		prev = next
	}
	var table RewardTable
	for _, w := range space {
		for c := uint8(1); c <= reels; c++ {
			amt := rapid.IntRange(0, MaxReward).Draw(t, "amount")
			table = append(table, Reward{Symbol: w.Symbol, Count: c, Amount: uint16(amt)})
		}
	}
	rs, err := New(space, table.Normalize(), reels)
	if err != nil {
		t.Fatalf("generated rule set invalid: %v", err)
	}
	return rs
}

func TestPlayPureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rs := genRuleSet(t)
		seed := rapid.SliceOf(rapid.Uint16()).Draw(t, "seed")
		a, b := rs.Play(seed), rs.Play(seed)
		if len(a.Symbols) != int(rs.Reels()) {
			t.Fatalf("want %d symbols, got %d", rs.Reels(), len(a.Symbols))
		}
		if !slices.Equal(a.Symbols, b.Symbols) || a.Reward != b.Reward {
			t.Fatalf("not deterministic: %+v vs %+v", a, b)
		}
		for _, r := range rs.Rewards() {
			if r.Count > rs.Reels() {
				t.Fatalf("reward key %s x%d exceeds reels", r.Symbol, r.Count)
			}
		}
	})
}

func TestCodecRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rs := genRuleSet(t)
		b := Encode(rs)
		back, err := Decode(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !back.Equal(rs) {
			t.Fatalf("round trip mismatch")
		}
		if string(Encode(back)) != string(b) {
			t.Fatalf("encode not byte-identical")
		}
	})
}

func TestAccessorsReturnCopies(t *testing.T) {
	rs := mustDefault(t)
	sp := rs.Space()
	sp[0].Weight = 1
	rw := rs.Rewards()
	rw[0].Amount = 9999
	if rs.Space()[0].Weight == 1 || rs.Rewards()[0].Amount == 9999 {
		t.Fatalf("rule set mutated through accessor")
	}
}

func TestNewRejects(t *testing.T) {
	ok := RewardTable{{Symbol: A, Count: 3, Amount: 10}}
	cases := []struct {
		name    string
		space   ProbSpace
		rewards RewardTable
		reels   uint8
	}{
		{"reels", abcSpace(), ok, 1},
		{"sum", ProbSpace{{A, 60000}, {B, 5000}, {C, 534}}, ok, 3},
		{"dup", ProbSpace{{A, 60000}, {A, 5000}, {C, 535}}, ok, 3},
		{"unknown", ProbSpace{{A, 60000}, {symbol.Symbol(99), 5000}, {C, 535}}, ok, 3},
		{"count0", abcSpace(), RewardTable{{Symbol: A, Count: 0, Amount: 1}}, 3},
		{"count>reels", abcSpace(), RewardTable{{Symbol: A, Count: 4, Amount: 1}}, 3},
		{"amount0", abcSpace(), RewardTable{{Symbol: A, Count: 3, Amount: 0}}, 3},
		{"amount>max", abcSpace(), RewardTable{{Symbol: A, Count: 3, Amount: MaxReward + 1}}, 3},
		{"order", abcSpace(), RewardTable{{Symbol: B, Count: 3, Amount: 1}, {Symbol: A, Count: 3, Amount: 1}}, 3},
		{"absent", abcSpace(), RewardTable{{Symbol: symbol.Kiwi, Count: 3, Amount: 1}}, 3},
	}
	for _, tc := range cases {
		if _, err := New(tc.space, tc.rewards, tc.reels); !errs.IsFatal(err) {
			t.Errorf("%s: expected fatal error, got %v", tc.name, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	rt := RewardTable{
		{Symbol: B, Count: 3, Amount: 5},
		{Symbol: A, Count: 2, Amount: 0},
		{Symbol: A, Count: 3, Amount: 7},
		{Symbol: A, Count: 3, Amount: 8},
	}
	got := rt.Normalize()
	want := RewardTable{{Symbol: A, Count: 3, Amount: 8}, {Symbol: B, Count: 3, Amount: 5}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v", got)
	}
	got = got.Set(A, 1, 100000)
	if got.Lookup(A, 1) != MaxReward || got.Lookup(C, 1) != 0 {
		t.Fatalf("Set must clamp and keep order: %v", got)
	}
}

// reseal 重算摘要，用於構造「摘要正確但內容違規」的輸入
func reseal(b []byte) []byte {
	body := slices.Clone(b[:len(b)-DigestSize])
	sum := blake3.Sum256(body)
	return append(body, sum[:]...)
}

func TestDecodeRejects(t *testing.T) {
	rs := mustDefault(t)
	good := Encode(rs)
	const rewardOff = headerSize + 16*weightSize + 2

	mutate := func(f func(b []byte)) []byte {
		b := slices.Clone(good)
		f(b)
		return b
	}
	sentinel := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"magic", mutate(func(b []byte) { b[0] = 'X' }), ErrMagic},
		{"version", mutate(func(b []byte) { b[4] = 2 }), ErrVersion},
		{"digest", mutate(func(b []byte) { b[len(b)-1] ^= 0xff }), ErrDigest},
		{"body flip", mutate(func(b []byte) { b[rewardOff+3] ^= 0x01 }), ErrDigest},
		{"short", good[:len(good)-1], ErrTruncated},
	}
	for _, tc := range sentinel {
		if _, err := Decode(tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}
	for n := range len(good) {
		if _, err := Decode(good[:n]); !errs.IsFatal(err) {
			t.Fatalf("prefix %d accepted", n)
		}
	}

	invalid := map[string][]byte{
		"trailing": append(slices.Clone(good), 0),
		"reels":    reseal(mutate(func(b []byte) { b[5] = 1 })),
		"sum":      reseal(mutate(func(b []byte) { b[8]++ })),
		"unknown":  reseal(mutate(func(b []byte) { b[7] = 200 })),
		"dup":      reseal(mutate(func(b []byte) { b[10] = b[7] })),
		"count0":   reseal(mutate(func(b []byte) { b[rewardOff+1] = 0 })),
		"count4":   reseal(mutate(func(b []byte) { b[rewardOff+1] = 4 })),
		"amount0":  reseal(mutate(func(b []byte) { binary.LittleEndian.PutUint16(b[rewardOff+2:], 0) })),
		"amountHi": reseal(mutate(func(b []byte) { binary.LittleEndian.PutUint16(b[rewardOff+2:], MaxReward+1) })),
		"order": reseal(mutate(func(b []byte) {
			first := slices.Clone(b[rewardOff : rewardOff+rewardSize])
			copy(b[rewardOff:], b[rewardOff+rewardSize:rewardOff+2*rewardSize])
			copy(b[rewardOff+rewardSize:], first)
		})),
	}
	for name, in := range invalid {
		if _, err := Decode(in); !errs.IsFatal(err) {
			t.Errorf("%s: expected fatal, got %v", name, err)
		}
	}

	small := mustNew(t, abcSpace(), RewardTable{{Symbol: C, Count: 3, Amount: 1}}, 3)
	b := Encode(small)
	b[headerSize+3*weightSize+2] = uint8(symbol.Kiwi)
	if _, err := Decode(reseal(b)); err == nil || !strings.Contains(err.Error(), "not in probability space") {
		t.Errorf("absent reward symbol: got %v", err)
	}
}

func TestUnmarshalBinaryKeepsReceiverOnError(t *testing.T) {
	rs := mustDefault(t)
	var dst RuleSet
	if err := dst.UnmarshalBinary([]byte("FRSL")); err == nil {
		t.Fatalf("expected error")
	}
	if dst.reels != 0 {
		t.Fatalf("receiver written on failure")
	}
	b, _ := rs.MarshalBinary()
	if err := dst.UnmarshalBinary(b); err != nil || !dst.Equal(rs) {
		t.Fatalf("unmarshal: %v", err)
	}
}

func TestZstdRoundTrip(t *testing.T) {
	rs := mustDefault(t)
	back, err := DecodeZstd(EncodeZstd(rs))
	if err != nil || !back.Equal(rs) {
		t.Fatalf("zstd round trip: %v", err)
	}
	if _, err := DecodeZstd(Encode(rs)); err == nil {
		t.Fatalf("raw artifact is not a zstd frame")
	}
	if Digest(rs) != Digest(back) {
		t.Fatalf("digest differs")
	}
}

func TestSheetRoundTrip(t *testing.T) {
	rs := mustDefault(t)
	b, err := MarshalSheet(DefaultName, rs)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "{symbol: cherry, weight: 8309}") {
		t.Fatalf("unexpected sheet layout:\n%s", b)
	}
	back, err := LoadSheet(b)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(rs) {
		t.Fatalf("sheet round trip mismatch")
	}
}

func TestSheetStrict(t *testing.T) {
	bad := []string{
		"name: x\nreels: 3\nodds: 1\n",
		"name: x\nreels: 3\nspace:\n  - {symbol: durian, weight: 65535}\n",
		"name: x\nreels: 3\nspace:\n  - {symbol: cherry, weight: 65534}\n",
	}
	for _, in := range bad {
		if _, err := LoadSheet([]byte(in)); !errs.IsFatal(err) {
			t.Errorf("accepted %q: %v", in, err)
		}
	}
}

func TestDefaultSingleton(t *testing.T) {
	a := mustDefault(t)
	b := mustDefault(t)
	if a != b {
		t.Fatalf("default must be loaded once")
	}
	if a.space.Sum() != TotalWeight || a.Reels() != DefaultReels {
		t.Fatalf("unexpected default: sum %d reels %d", a.space.Sum(), a.Reels())
	}
	if r, _ := a.space.Rarest(); r != symbol.Blueberry {
		t.Fatalf("rarest = %s", r)
	}
	if a.Lookup(symbol.Blueberry, 1) != 1 {
		t.Fatalf("override entry missing")
	}
}
