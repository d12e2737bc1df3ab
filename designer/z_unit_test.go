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
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
	"pgregory.net/rapid"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/symbol"
)

// defaultExpected 內嵌 p96 規則表的封閉解期望返還
const defaultExpected = 0.9577639

func defaultRules(t testing.TB) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	return rs
}

func relErr(got, want float64) float64 {
	return math.Abs(got-want) / want
}

func TestBuildProbSpaceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		n := rapid.IntRange(symbol.MinSetSize, symbol.Count()).Draw(t, "n")
		syms := rapid.Permutation(symbol.All()).Draw(t, "perm")[:n]

		space, err := BuildProbSpace(core.NewSeeded(seed), syms, ProbOptions{ProbVar: 4.0})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if space.Sum() != rules.TotalWeight {
			t.Fatalf("sum %d", space.Sum())
		}
		for i, w := range space {
			if w.Weight == 0 {
				t.Fatalf("zero weight at %d", i)
			}
			if i > 0 && (space[i-1].Weight < w.Weight || space[i-1].Symbol >= w.Symbol) {
				t.Fatalf("space not descending by weight in enum order: %v", space)
			}
		}
	})
}

func TestBuildProbSpaceDeterministic(t *testing.T) {
	a, err := BuildProbSpace(core.NewSeeded(42), symbol.All(), ProbOptions{ProbVar: 4.0})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := BuildProbSpace(core.NewSeeded(42), symbol.All(), ProbOptions{ProbVar: 4.0})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed, different space at %d", i)
		}
	}
	// 最常見與最罕見圖標的比值約為 ProbVar*1.2
	ratio := float64(a[0].Weight) / float64(a[len(a)-1].Weight)
	if ratio < 4.0 || ratio > 5.0 {
		t.Fatalf("unexpected max/min ratio %v", ratio)
	}
}

func TestBuildProbSpaceRejects(t *testing.T) {
	c := core.NewSeeded(1)
	bad := [][]symbol.Symbol{
		{symbol.Cherry, symbol.Lemon},
		{symbol.Cherry, symbol.Lemon, symbol.Lemon},
		{symbol.Cherry, symbol.Lemon, symbol.Symbol(77)},
	}
	for _, syms := range bad {
		if _, err := BuildProbSpace(c, syms, ProbOptions{ProbVar: 4.0}); !errs.IsFatal(err) {
			t.Errorf("%v: expected fatal, got %v", syms, err)
		}
	}
	if _, err := BuildProbSpace(c, symbol.All(), ProbOptions{ProbVar: 1}); !errs.IsFatal(err) {
		t.Errorf("prob_var 1 accepted")
	}
}

func TestHitProbabilityMatchesBinomial(t *testing.T) {
	space := defaultRules(t).Space()
	for _, w := range space {
		p := float64(w.Weight) / rules.TotalWeight
		dist := distuv.Binomial{N: 3, P: p}
		var total float64
		for k := uint8(0); k <= 3; k++ {
			got := HitProbability(space, w.Symbol, k, 3)
			if want := dist.Prob(float64(k)); math.Abs(got-want) > 1e-12 {
				t.Fatalf("%s x%d: got %v want %v", w.Symbol, k, got, want)
			}
			total += got
		}
		if math.Abs(total-1) > 1e-12 {
			t.Fatalf("%s: probabilities sum to %v", w.Symbol, total)
		}
	}
	if HitProbability(space, symbol.Cherry, 4, 3) != 0 {
		t.Fatalf("count > reels must be 0")
	}
	small := rules.ProbSpace{{Symbol: symbol.Cherry, Weight: rules.TotalWeight}}
	if HitProbability(small, symbol.Kiwi, 1, 3) != 0 {
		t.Fatalf("absent symbol must be 0")
	}
}

func TestExpectedReturnDefault(t *testing.T) {
	ev := ExpectedReturn(defaultRules(t))
	if math.Abs(ev-defaultExpected) > 1e-6 {
		t.Fatalf("expected return %v, want %v", ev, defaultExpected)
	}
}

func TestCalibrateConverges(t *testing.T) {
	for _, target := range []float64{0.6, 0.8, 0.96, 1.2} {
		for seed := int64(1); seed <= 4; seed++ {
			cfg := DefaultConfig()
			rs, err := NewRuleSet(core.NewSeeded(seed), symbol.All(), target, cfg)
			if err != nil {
				t.Fatalf("target %v seed %d: %v", target, seed, err)
			}
			ev := ExpectedReturn(rs)
			if relErr(ev, target) > 0.05 {
				t.Errorf("target %v seed %d: expected return %v", target, seed, ev)
			}
			for _, r := range rs.Rewards() {
				if r.Count > rs.Reels() || r.Amount == 0 || r.Amount > rules.MaxReward {
					t.Fatalf("invalid reward %+v", r)
				}
			}
		}
	}
}

func TestCalibrateHistoryAndLogging(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := NewConfig(WithLogger(l))
	space := defaultRules(t).Space()
	table, history, err := Calibrate(core.NewSeeded(9), space, 3, 0.96, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != cfg.Rounds {
		t.Fatalf("history length %d", len(history))
	}
	if got := strings.Count(buf.String(), "calibrate.round"); got != cfg.Rounds {
		t.Fatalf("logged %d rounds", got)
	}
	last := history[len(history)-1]
	if relErr(last, 0.96) > 0.05 {
		t.Fatalf("last projection %v", last)
	}
	if table.Lookup(symbol.Blueberry, 1) != 1 {
		t.Fatalf("override on rarest symbol missing")
	}
}

func TestCalibrateOverride(t *testing.T) {
	space := defaultRules(t).Space()

	table, _, err := Calibrate(core.NewSeeded(3), space, 3, 0.96, NewConfig(WithOverride(nil)))
	if err != nil {
		t.Fatal(err)
	}
	if table.Lookup(symbol.Blueberry, 1) != 0 {
		t.Fatalf("override disabled but entry present")
	}

	o := &Override{Symbol: symbol.Kiwi, Count: 1, Amount: 2}
	table, _, err = Calibrate(core.NewSeeded(3), space, 3, 0.96, NewConfig(WithOverride(o)))
	if err != nil {
		t.Fatal(err)
	}
	if table.Lookup(symbol.Kiwi, 1) != 2 {
		t.Fatalf("explicit override missing")
	}

	o = &Override{Symbol: symbol.Kiwi, Count: 4, Amount: 2}
	if _, _, err := Calibrate(core.NewSeeded(3), space, 3, 0.96, NewConfig(WithOverride(o))); !errs.IsFatal(err) {
		t.Fatalf("override count > reels accepted")
	}
}

func TestCalibrateZeroWeightSymbol(t *testing.T) {
	space := rules.ProbSpace{
		{Symbol: symbol.Cherry, Weight: 30000},
		{Symbol: symbol.Lemon, Weight: 20000},
		{Symbol: symbol.Orange, Weight: 15535},
		{Symbol: symbol.Plum, Weight: 0},
	}
	table, _, err := Calibrate(core.NewSeeded(5), space, 3, 0.96, NewConfig(WithOverride(nil)))
	if err != nil {
		t.Fatal(err)
	}
	for k := uint8(1); k <= 3; k++ {
		if table.Lookup(symbol.Plum, k) != 0 {
			t.Fatalf("zero-weight symbol got a reward at count %d", k)
		}
	}
}

func TestCalibratePreconditions(t *testing.T) {
	space := defaultRules(t).Space()
	cfg := DefaultConfig()
	cases := []struct {
		name   string
		space  rules.ProbSpace
		reels  uint8
		target float64
	}{
		{"low", space, 3, 0.49},
		{"high", space, 3, 2.01},
		{"nan", space, 3, math.NaN()},
		{"reels", space, 1, 0.96},
		{"small", space[:2], 3, 0.96},
	}
	for _, tc := range cases {
		table, _, err := Calibrate(core.NewSeeded(1), tc.space, tc.reels, tc.target, cfg)
		if !errs.IsFatal(err) || table != nil {
			t.Errorf("%s: expected fatal and no table, got %v", tc.name, err)
		}
	}
	if _, err := NewRuleSet(core.NewSeeded(1), symbol.All()[:2], 0.96, cfg); !errs.IsFatal(err) {
		t.Errorf("two symbols accepted")
	}
}

func TestNewRuleSetDeterministic(t *testing.T) {
	a, err := NewRuleSet(core.NewSeeded(77), symbol.All(), 0.96, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRuleSet(core.NewSeeded(77), symbol.All(), 0.96, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fatalf("same seed must calibrate to the same rule set")
	}
}

func TestSimulateWithinBand(t *testing.T) {
	rs := defaultRules(t)
	const n = 200_000
	mean, std := SampleMoments(core.NewSeeded(2024), rs, n)
	ev := ExpectedReturn(rs)
	band := 4 * std / math.Sqrt(n)
	if math.Abs(mean-ev) > band {
		t.Fatalf("sample mean %v outside %v ± %v", mean, ev, band)
	}
	if got := Simulate(core.NewSeeded(2024), rs, n); math.Abs(got-mean) > 1e-12 {
		t.Fatalf("Simulate %v != SampleMoments mean %v", got, mean)
	}
	if Simulate(core.NewSeeded(1), rs, 0) != 0 {
		t.Fatalf("zero trials must return 0")
	}
}

func TestSimulateTenMillion(t *testing.T) {
	if testing.Short() {
		t.Skip("long monte carlo run")
	}
	rs := defaultRules(t)
	got := Simulate(core.NewSeeded(7), rs, 10_000_000)
	if e := relErr(got, ExpectedReturn(rs)); e > 0.01 {
		t.Fatalf("monte carlo %v deviates %.3f%% from exact", got, 100*e)
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil || cfg.Rounds != 10 || cfg.Override == nil || !cfg.Override.Rarest {
		t.Fatalf("empty config should yield defaults: %+v %v", cfg, err)
	}
	cfg, err = ParseConfig([]byte("rounds: 12\njitter_lo: 0.99\noverride: null\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rounds != 12 || cfg.JitterLo != 0.99 || cfg.Override != nil || cfg.Floor != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	cfg, err = ParseConfig([]byte("override: {symbol: mango, count: 2, amount: 5}\n"))
	if err != nil || cfg.Override.Symbol != symbol.Mango || cfg.Override.Rarest {
		t.Fatalf("override parse: %+v %v", cfg.Override, err)
	}
	bad := []string{
		"round: 3\n",
		"reels: 1\n",
		"jitter_lo: 1.5\n",
		"override: {symbol: durian, count: 1, amount: 1}\n",
	}
	for _, in := range bad {
		if _, err := ParseConfig([]byte(in)); !errs.IsFatal(err) {
			t.Errorf("accepted %q", in)
		}
	}
}
