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

// 規則設計工具：建立機率空間、校準獎勵表、輸出規則檔與規則表。
//
//	go run ./cmd/gen -target 0.96 -seed 42 -out build/p96.frsl -sheet build/p96.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zintix-labs/fruitslot/designer"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/server/logger"
	"github.com/zintix-labs/fruitslot/symbol"
)

type symbolsFlag struct{ p *[]symbol.Symbol }

func (f symbolsFlag) String() string {
	if f.p == nil {
		return ""
	}
	return strings.Join(symbol.Names(*f.p), ",")
}

func (f symbolsFlag) Set(s string) error {
	out := make([]symbol.Symbol, 0, symbol.Count())
	for _, n := range strings.Split(s, ",") {
		sym, ok := symbol.ParseSymbol(n)
		if !ok {
			return fmt.Errorf("unknown symbol %q", n)
		}
		out = append(out, sym)
	}
	*f.p = out
	return nil
}

const seedUsage = "int64 seed for the designer PRNG; negative = crypto-random"

// seedOrRandom 負值改由 crypto/rand 產生；0 是合法 seed
func seedOrRandom(seed int64) (int64, error) {
	if seed >= 0 {
		return seed, nil
	}
	return core.RandomSeed()
}

type genCfg struct {
	name    string
	target  float64
	seed    int64
	symbols []symbol.Symbol
	config  string
	rounds  int
	out     string
	zst     bool
	sheet   string
	mc      int
	verbose bool
}

func main() {
	g := &genCfg{symbols: symbol.All()}
	flag.StringVar(&g.name, "name", "custom", "rule set name written to the sheet")
	flag.Float64Var(&g.target, "target", 0.96, "target expected return in [0.5, 2.0]")
	flag.Int64Var(&g.seed, "seed", -1, seedUsage)
	flag.Var(symbolsFlag{&g.symbols}, "symbols", "comma separated symbols (default all)")
	flag.StringVar(&g.config, "config", "", "designer config yaml")
	flag.IntVar(&g.rounds, "rounds", 0, "calibration rounds (overrides config)")
	flag.StringVar(&g.out, "out", "", "write binary rule file")
	flag.BoolVar(&g.zst, "zst", false, "zstd-compress the binary rule file")
	flag.StringVar(&g.sheet, "sheet", "", "write yaml rule sheet")
	flag.IntVar(&g.mc, "mc", 1_000_000, "largest Monte Carlo check (10k, 100k, ... up to this)")
	flag.BoolVar(&g.verbose, "v", false, "log calibration rounds")
	flag.Parse()

	if err := g.run(); err != nil {
		log.Fatal(err)
	}
}

func (g *genCfg) run() error {
	dc := designer.DefaultConfig()
	if g.config != "" {
		var err error
		if dc, err = designer.LoadConfig(g.config); err != nil {
			return err
		}
	}
	if g.rounds > 0 {
		dc.Rounds = g.rounds
	}
	if g.verbose {
		dc.Logger = logger.New(logger.ModeDev)
	}
	seed, err := seedOrRandom(g.seed)
	if err != nil {
		return err
	}
	g.seed = seed

	rs, err := designer.NewRuleSet(core.NewSeeded(g.seed), g.symbols, g.target, dc)
	if err != nil {
		return err
	}
	g.print(rs)
	return g.write(rs)
}

func (g *genCfg) print(rs *rules.RuleSet) {
	p := message.NewPrinter(language.English)
	p.Printf("seed %d  target %.4f  reels %d\n\n", g.seed, g.target, rs.Reels())

	p.Printf("%-12s %8s %9s\n", "symbol", "weight", "prob")
	for _, w := range rs.Space() {
		p.Printf("%-12s %8d %8.4f%%\n", w.Symbol, w.Weight, 100*float64(w.Weight)/rules.TotalWeight)
	}
	p.Printf("\n%-12s %5s %8s\n", "symbol", "count", "amount")
	for _, r := range rs.Rewards() {
		p.Printf("%-12s %5d %8d\n", r.Symbol, r.Count, r.Amount)
	}

	zero := rs.Play(make([]uint16, rs.Reels()))
	p.Printf("\nseed [0,0,0] -> %s reward %d\n", strings.Join(symbol.Names(zero.Symbols), ","), zero.Reward)
	p.Printf("expected return %.7f\n\n", designer.ExpectedReturn(rs))

	for n := 10_000; n <= g.mc; n *= 10 {
		mean, std := designer.SampleMoments(core.NewSeeded(g.seed+int64(n)), rs, n)
		p.Printf("monte carlo %12d trials: %.6f (std %.3f)\n", n, mean, std)
	}
}

func (g *genCfg) write(rs *rules.RuleSet) error {
	if g.out != "" {
		blob := rules.Encode(rs)
		if g.zst {
			blob = rules.EncodeZstd(rs)
		}
		if err := os.WriteFile(g.out, blob, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bytes)\n", g.out, len(blob))
	}
	if g.sheet != "" {
		b, err := rules.MarshalSheet(g.name, rs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(g.sheet, b, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", g.sheet)
	}
	return nil
}
