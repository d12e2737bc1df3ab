package main

import (
	"flag"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zintix-labs/fruitslot"
	"github.com/zintix-labs/fruitslot/catalog"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/stats"
)

var cfg *config = new(config)

type config struct {
	rules     string
	worker    int
	player    int
	bets      int
	spins     int
	seed      int64
	format    string
	out       string
	pprofmode string
}

func bindVar() {
	flag.StringVar(&cfg.rules, "rules", "", "rule file (.frsl, .frsl.zst, .yaml); empty uses the embedded default")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "player", 1, "number of players")
	flag.IntVar(&cfg.bets, "bets", 200, "initial bets per player")
	flag.IntVar(&cfg.spins, "spins", 10000000, "spins per worker (or per player)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator; < 1 = crypto-random")
	flag.StringVar(&cfg.format, "format", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.out, "out", "", "write report to file instead of stdout")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// 未給或不合法的 seed -> 隨機 seed
	if cfg.seed < 1 {
		seed, err := core.RandomSeed()
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed
	}
}

func loadRules(path string) (string, *rules.RuleSet, error) {
	if path == "" {
		rs, err := rules.Default()
		return rules.DefaultName, rs, err
	}
	return catalog.LoadFile(path)
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() error {
	cfg.valid()

	name, rs, err := loadRules(cfg.rules)
	if err != nil {
		return err
	}
	s := fruitslot.NewSimulatorWithSeed(name, rs, core.Default(), cfg.seed)

	var w io.Writer = os.Stdout
	if cfg.out != "" {
		f, err := os.Create(cfg.out)
		if err != nil {
			return errs.Wrapf(err, "create %s", cfg.out)
		}
		defer f.Close()
		w = f
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	if cfg.player == 1 { // 純規則表模擬
		p.Fprintf(os.Stderr, "%s[WORKERS:%d] [RULES:%s] [SEED:%d] [SPINS:%d]%s\n", green, cfg.worker, name, cfg.seed, cfg.worker*cfg.spins, reset)
		st, used, err := s.SimMP(cfg.spins, cfg.worker, true)
		if err != nil {
			return err
		}
		return report(w, st, nil, used)
	}
	// 模擬多玩家體驗
	p.Fprintf(os.Stderr, "%s[WORKERS:%d] [RULES:%s] [PLAYERS:%d BALANCE:%d SPINS:%d]%s\n", green, cfg.worker, name, cfg.player, cfg.bets, cfg.spins, reset)
	st, est, used, err := s.SimPlayers(cfg.worker, cfg.player, cfg.bets, cfg.spins, true)
	if err != nil {
		return err
	}
	return report(w, st, est, used)
}

func report(w io.Writer, st *stats.StatReport, est *stats.EstimatorPlayers, used time.Duration) error {
	if cfg.format == "table" {
		st.WriteTable(w, used)
		if est != nil {
			est.Write(w)
		}
		return nil
	}
	if err := st.WriteWith(w, stats.RenderFor(cfg.format)); err != nil {
		return errs.Wrap(err, "render report")
	}
	if est != nil {
		if err := stats.EstimatorRenderFor(cfg.format).Write(w, est); err != nil {
			return errs.Wrap(err, "render estimator")
		}
	}
	return nil
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}
	if cfg.player < 1 {
		log.Fatal("value err : player must > 0")
	}
	if cfg.player > 100000 {
		p.Printf("too much players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	if cfg.player > 1 && cfg.bets < 1 {
		log.Fatal("value err : balance must >= 1")
	}
	if cfg.spins < 1 {
		log.Fatal("value err : spins must > 0")
	}
	// 每位玩家 15000 轉已是長期體驗，更長直接跑規則表模擬即可
	if cfg.player > 1 && cfg.spins > 15000 {
		p.Printf("too much spins for each players : %d resized to 15k spins for each player\n", cfg.spins)
		cfg.spins = 15000
	}
	switch cfg.format {
	case "table", "json", "yaml":
	default:
		log.Fatalf("value err : unknown format %q (table|json|yaml)", cfg.format)
	}
}
