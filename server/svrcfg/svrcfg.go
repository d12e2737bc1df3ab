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

package svrcfg

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/zintix-labs/fruitslot/catalog"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/server/logger"
	"github.com/zintix-labs/fruitslot/server/netsvr"
)

const (
	DefaultMaxTrials  = 1_000_000
	DefaultMaxPlayers = 10_000
)

type SvrCfg struct {
	Log      *slog.Logger
	Addr     string
	Timeouts netsvr.Timeouts

	Rules   string // 規則檔目錄（平面）；空字串時只提供內嵌預設規則集
	Catalog *catalog.Catalog

	MaxTrials  int // 單次 /v1/sim 的局數上限
	MaxPlayers int // 單次 /v1/simplayer 的玩家上限
	Workers    int

	Seed int64 // 伺服器自抽 seed 用的 PRNG 種子；0 代表以 crypto/rand 產生
}

// Valid 補齊預設值並組出目錄；目錄最後會 Freeze。
func (sc *SvrCfg) Valid() error {
	if sc.Log == nil {
		sc.Log = logger.New(logger.ModeSilence)
	}
	if sc.Addr == "" {
		sc.Addr = netsvr.DefaultAddr
	}
	if sc.MaxTrials <= 0 {
		sc.MaxTrials = DefaultMaxTrials
	}
	if sc.MaxPlayers <= 0 {
		sc.MaxPlayers = DefaultMaxPlayers
	}
	sc.Workers = min(max(1, sc.Workers), runtime.NumCPU())
	if sc.Catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return errs.Wrap(err, "svrcfg: default catalog")
		}
		sc.Catalog = c
	}
	if sc.Rules != "" && !sc.Catalog.IsFrozen() {
		st, err := os.Stat(sc.Rules)
		if err != nil {
			return errs.Wrapf(err, "svrcfg: rules dir %q", sc.Rules)
		}
		if !st.IsDir() {
			return errs.Fatalf("svrcfg: rules path %q is not a directory", sc.Rules)
		}
		if err := sc.Catalog.LoadFS(os.DirFS(sc.Rules)); err != nil {
			return errs.Wrap(err, "svrcfg: load rules")
		}
	}
	if sc.Catalog.Len() == 0 {
		return errs.NewFatal("svrcfg: catalog is empty")
	}
	sc.Catalog.Freeze()
	return nil
}
