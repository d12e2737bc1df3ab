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

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/fruitslot/server"
	"github.com/zintix-labs/fruitslot/server/logger"
	"github.com/zintix-labs/fruitslot/server/netsvr"
	"github.com/zintix-labs/fruitslot/server/svrcfg"
)

// 執行期伺服器：提供規則檔下載、單局結算與模擬 api
func main() {
	sCfg, ah, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	err = server.Run(sCfg)
	ah.Close()
	if err != nil {
		os.Exit(1)
	}
}

type config struct {
	LogMode   string
	Addr      string
	Rules     string
	Workers   int
	MaxTrials int
	Seed      int64
	WriteTO   time.Duration
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, *logger.AsyncHandler, error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Addr, "addr", netsvr.DefaultAddr, "listen address")
	flag.StringVar(&cfg.Rules, "rules", "", "directory of rule files (.frsl, .frsl.zst, .yaml)")
	flag.IntVar(&cfg.Workers, "worker", 4, "workers per /v1/sim request")
	flag.IntVar(&cfg.MaxTrials, "max-trials", svrcfg.DefaultMaxTrials, "max trials per /v1/sim request")
	flag.Int64Var(&cfg.Seed, "seed", 0, "seed for server-drawn spins; 0 uses crypto/rand")
	flag.DurationVar(&cfg.WriteTO, "write-timeout", netsvr.DefaultTimeouts.Write, "http write timeout")

	flag.Parse()

	mode, err := logger.ParseLogMode(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)
	return &svrcfg.SvrCfg{
		Log:       log,
		Addr:      cfg.Addr,
		Timeouts:  netsvr.Timeouts{Write: cfg.WriteTO},
		Rules:     cfg.Rules,
		Workers:   cfg.Workers,
		MaxTrials: cfg.MaxTrials,
		Seed:      cfg.Seed,
	}, ah, nil
}
