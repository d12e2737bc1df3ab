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

package stats

import (
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/symbol"
)

// Recorder 遊戲紀錄員
//
// Recorder 逐局累加整數計數，並透過 Done 輸出統計報表。
// 非併發安全：每個 worker 持有自己的 Recorder，結束後以 MergeRecorders 合併。
type Recorder struct {
	RuleName string
	Digest   string
	Reels    int
	InitBets int
	Basic    *BasicRecord
	Hits     []int // Hits[sym*(Reels+1)+count]
	Dist     *DistRecord
	Player   *PlayerRecord
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	TotalBet      int
	TotalWin      int
	TotalWinSqSum int // 平方和
	MaxWin        int
	Rounds        int
}

// DistRecord 分數區間落點統計
type DistRecord struct {
	Bucket     *WinBuckets
	WinCollect []int
}

// PlayerRecord 玩家統計（每局押注 1）
type PlayerRecord struct {
	leaveLine   int
	InitBalance int
	Balance     int
	MaxBalance  int
	MinBalance  int
	Bust        bool
	Cashout     bool
}

// NewRecorder 建立紀錄員。initBets > 0 時啟用玩家紀錄（帶入 initBets 局的籌碼）。
func NewRecorder(name, digest string, reels int, initBets int) (*Recorder, error) {
	if reels < 1 {
		return nil, errs.Fatalf("recorder: reels must be > 0, got %d", reels)
	}
	if initBets < 0 {
		return nil, errs.Fatalf("recorder: init bets must not negative integer, got: %d", initBets)
	}
	r := &Recorder{
		RuleName: name,
		Digest:   digest,
		Reels:    reels,
		InitBets: initBets,
		Basic:    new(BasicRecord),
		Hits:     make([]int, symbol.Count()*(reels+1)),
		Dist:     &DistRecord{Bucket: Buckets, WinCollect: make([]int, Buckets.Len())},
	}
	if initBets > 0 {
		r.Player = newPlayerRecord(initBets)
	}
	return r, nil
}

// MergeRecorders 合併多個 worker 的紀錄（玩家紀錄不合併）
func MergeRecorders(rs []*Recorder) (*Recorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge recorder err : empty input")
	}
	r0 := rs[0]
	out, err := NewRecorder(r0.RuleName, r0.Digest, r0.Reels, 0)
	if err != nil {
		return nil, err
	}
	for _, v := range rs {
		if v.RuleName != r0.RuleName || v.Digest != r0.Digest {
			return nil, errs.NewFatal("merge recorder err : different rule set")
		}
		if v.Reels != r0.Reels {
			return nil, errs.NewFatal("merge recorder err : different reels")
		}
		out.Basic.TotalBet += v.Basic.TotalBet
		out.Basic.TotalWin += v.Basic.TotalWin
		out.Basic.TotalWinSqSum += v.Basic.TotalWinSqSum
		out.Basic.MaxWin = max(out.Basic.MaxWin, v.Basic.MaxWin)
		out.Basic.Rounds += v.Basic.Rounds
		for i, c := range v.Hits {
			out.Hits[i] += c
		}
		for i, c := range v.Dist.WinCollect {
			out.Dist.WinCollect[i] += c
		}
	}
	return out, nil
}

// Record 以單局結果更新統計。syms 為該局各輪圖標（順序不拘），win 為總獎勵。
func (r *Recorder) Record(syms []symbol.Symbol, win int) {
	r.recordBasic(win)
	r.recordHits(syms)
	r.Dist.WinCollect[r.Dist.Bucket.Index(win)]++
}

// RecordWithPlayer 在 Record 的基礎上更新玩家餘額，回傳玩家是否停止遊戲。
func (r *Recorder) RecordWithPlayer(syms []symbol.Symbol, win int) bool {
	if r.Player == nil || r.Player.Balance < 1 {
		return true
	}
	r.Record(syms, win)
	return r.recordPlayer(win)
}

func (r *Recorder) Done() *StatReport {
	report := &StatReport{
		Summary: &SummaryReport{
			RuleName:    r.RuleName,
			Digest:      r.Digest,
			Reels:       r.Reels,
			TotalBet:    r.Basic.TotalBet,
			TotalWin:    r.Basic.TotalWin,
			MaxWin:      r.Basic.MaxWin,
			NoWinRounds: r.Dist.WinCollect[0],
			Rounds:      r.Basic.Rounds,
		},
		Mult: &MultReport{
			TotalWinMult:      float64(r.Basic.TotalWin),
			TotalWinMultSqSum: float64(r.Basic.TotalWinSqSum),
		},
		Dist: &DistReport{
			WinBucket:  r.Dist.Bucket.WinBucketStr(),
			WinCollect: append([]int(nil), r.Dist.WinCollect...),
		},
	}
	stride := r.Reels + 1
	for i, c := range r.Hits {
		if c == 0 {
			continue
		}
		report.Hits = append(report.Hits, HitReport{
			Symbol: symbol.Symbol(i / stride),
			Count:  i % stride,
			Hits:   c,
		})
	}
	if p := r.Player; p != nil {
		report.Player = &PlayerReport{
			InitBalance: p.InitBalance,
			Balance:     p.Balance,
			MaxBalance:  p.MaxBalance,
			MinBalance:  p.MinBalance,
			Bust:        p.Bust,
			Cashout:     p.Cashout,
		}
	}
	return report
}

func (r *Recorder) recordBasic(win int) {
	r.Basic.TotalBet++
	r.Basic.TotalWin += win
	r.Basic.TotalWinSqSum += win * win
	if win > r.Basic.MaxWin {
		r.Basic.MaxWin = win
	}
	r.Basic.Rounds++
}

// recordHits 每個不同圖標記錄一次 (圖標, 出現次數)
func (r *Recorder) recordHits(syms []symbol.Symbol) {
	stride := r.Reels + 1
	for i, s := range syms {
		if !s.Valid() {
			continue
		}
		seen := false
		for _, p := range syms[:i] {
			if p == s {
				seen = true
				break
			}
		}
		if seen {
			continue
		}
		n := 0
		for _, q := range syms[i:] {
			if q == s {
				n++
			}
		}
		if n < stride {
			r.Hits[int(s)*stride+n]++
		}
	}
}

func (r *Recorder) recordPlayer(win int) bool {
	p := r.Player

	// 更新資金
	p.Balance += win - 1

	if p.Balance > p.MaxBalance {
		p.MaxBalance = p.Balance
	}
	if p.Balance < p.MinBalance {
		p.MinBalance = p.Balance
	}

	// 更新結局
	leave := false
	if p.Balance < 1 {
		p.Bust = true
		leave = true
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		leave = true
	}
	return leave
}

func newPlayerRecord(initBets int) *PlayerRecord {
	return &PlayerRecord{
		InitBalance: initBets,
		Balance:     initBets,
		MaxBalance:  initBets,
		MinBalance:  initBets,
		leaveLine:   3 * initBets, // 離場條件(3倍本金)
	}
}
