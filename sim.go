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

package fruitslot

import (
	"encoding/hex"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/zintix-labs/fruitslot/designer"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/stats"
	"github.com/zintix-labs/fruitslot/symbol"
)

const (
	capPrepare int = 100
	// pbBatch 每累積多少局才推進一次進度條
	pbBatch int = 4096
)

// Simulator 以蒙地卡羅驗證一份 RuleSet，可建立多個 worker 平行紀錄統計。
//
// 每個 worker 持有自己的 core.Core（以 seedMaker 由初始 seed 派生），RuleSet 則唯讀共享。
// 同一個初始 seed、同樣的呼叫序列會得到相同報表。
type Simulator struct {
	RuleName  string              // 規則表名稱
	rs        *rules.RuleSet      // 唯讀共享
	digest    string              // 規則檔摘要(hex)
	expected  float64             // 封閉解期望返還
	cf        core.PRNGFactory    // 亂數生成器
	initSeed  int64               // 初始下的種子
	seedmaker *seedMaker          // 種子生成器
	cBuf      []*core.Core        // 併發 worker 亂數核心
	rBuf      []*stats.Recorder   // 併發遊戲紀錄員
	sBuf      []*stats.StatReport // 併發統計結果報表(僅Players需要)
}

// NewSimulator 以加密隨機 seed 建立模擬器
func NewSimulator(name string, rs *rules.RuleSet) (*Simulator, error) {
	seed, err := core.RandomSeed()
	if err != nil {
		return nil, errs.Wrap(err, "simulator: random seed")
	}
	return NewSimulatorWithSeed(name, rs, core.Default(), seed), nil
}

// NewSimulatorWithSeed 以指定 PRNG 工廠與 seed 建立模擬器
func NewSimulatorWithSeed(name string, rs *rules.RuleSet, cf core.PRNGFactory, seed int64) *Simulator {
	d := rules.Digest(rs)
	s := &Simulator{
		RuleName:  name,
		rs:        rs,
		digest:    hex.EncodeToString(d[:]),
		expected:  designer.ExpectedReturn(rs),
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		cBuf:      make([]*core.Core, 1, capPrepare),
		rBuf:      make([]*stats.Recorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	s.cBuf[0] = core.New(cf.New(seed))
	return s
}

// Seed 回傳初始 seed（重現報表用）
func (s *Simulator) Seed() int64 { return s.initSeed }

// Sim 單線模擬器：連續跑指定 rounds 並回傳統計結果與用時
func (s *Simulator) Sim(rounds int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(rounds, 1, showpb)
}

// SimMP 平行執行 mp 個 worker，總計 rounds*mp 局，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	s.prepareCores(mp)
	for len(s.rBuf) < mp {
		r, err := s.newRecorder(0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			s.run(s.cBuf[i], s.rBuf[i], rounds, bar)
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	merged, err := stats.MergeRecorders(s.rBuf[:mp])
	if err != nil {
		return nil, 0, err
	}
	return s.finish(merged), used, nil
}

// SimPlayers 模擬多個玩家各自帶入 initBets 局籌碼（每局押注 1）的遊戲歷程，
// 每位玩家最多 rounds 局，破產或贏到 3 倍本金即離場；產出整體報表與玩家體驗評估。
func (s *Simulator) SimPlayers(mp int, players int, initBets int, rounds int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || initBets < 1 || rounds < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	s.prepareCores(mp)

	// 準備玩家
	s.sBuf = make([]*stats.StatReport, players)
	for len(s.rBuf) < players {
		r, err := s.newRecorder(initBets)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	// 緩衝 channel 使 player 依序處理
	jobs := make(chan *stats.Recorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < mp; w++ {
		go s.play(wg, s.cBuf[w], jobs, rounds, bar)
	}
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs) // 玩家送完，通知所有 worker 不會再有新資料
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	// 整體報表
	merged, err := stats.MergeRecorders(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st := s.finish(merged)

	// 玩家分析報表
	for i, r := range s.rBuf {
		s.sBuf[i] = r.Done()
		s.sBuf[i].Done()
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

func (s *Simulator) run(c *core.Core, r *stats.Recorder, rounds int, bar *pb.ProgressBar) {
	seed := make([]uint16, s.rs.Reels())
	buf := make([]symbol.Symbol, 0, s.rs.Reels())
	pending := 0
	for range rounds {
		c.FillUint16(seed)
		syms, win := s.rs.PlayInto(seed, buf)
		r.Record(syms, int(win))
		if pending++; pending == pbBatch {
			bar.Add(pending)
			pending = 0
		}
	}
	bar.Add(pending)
}

func (s *Simulator) play(wg *sync.WaitGroup, c *core.Core, jobs chan *stats.Recorder, rounds int, bar *pb.ProgressBar) {
	defer wg.Done()
	seed := make([]uint16, s.rs.Reels())
	buf := make([]symbol.Symbol, 0, s.rs.Reels())
	for j := range jobs {
		for range rounds {
			c.FillUint16(seed)
			syms, win := s.rs.PlayInto(seed, buf)
			if j.RecordWithPlayer(syms, int(win)) {
				break
			}
		}
		bar.Increment()
	}
}

func (s *Simulator) prepareCores(mp int) {
	for len(s.cBuf) < mp {
		s.cBuf = append(s.cBuf, core.New(s.cf.New(s.seedmaker.next())))
	}
}

func (s *Simulator) newRecorder(initBets int) (*stats.Recorder, error) {
	return stats.NewRecorder(s.RuleName, s.digest, int(s.rs.Reels()), initBets)
}

func (s *Simulator) finish(r *stats.Recorder) *stats.StatReport {
	result := r.Done()
	result.Summary.Expected = s.expected
	result.Summary.Seed = s.initSeed
	result.Done()
	return result
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG 推進 state，再用可逆 mix63 打散。
//
// 可能被多個 goroutine 同時呼叫，state 以 CAS 迴圈原子推進，每次呼叫取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用可逆的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
