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
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// 用戶體驗評估
type EstimatorPlayers struct {
	Players     int
	RtpStat     RtpStat
	EventStat   EventStat
	SessionStat SessionStat
}

// Rtp敘事
type RtpStat struct {
	ExpMedian PointStat // 描述體驗的中位數
	ExpPerc   ExpPerc   // 描述玩家的分布(對應RTP)
	RtpPerc   RtpPerc   // 描述Rtp的分布(對應多少比例的玩家)
}

// 用玩家體驗分位數視角看: 最差10％玩家的RTP 最差33%玩家的RTP ...
type ExpPerc struct {
	ExpP10 PointStat
	ExpP33 PointStat
	ExpP67 PointStat
	ExpP90 PointStat
}

// 用Rtp分位數視角看玩家: 有多少玩家體驗到了30%RTP 有多少玩家體驗到了50%RTP ...
type RtpPerc struct {
	Rtp30  PointStat
	Rtp50  PointStat
	Rtp70  PointStat
	Rtp100 PointStat
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// 事件敘事：每位玩家在各贏分區間命中 0/1/2/3+ 次的比例
type EventStat struct {
	Bucket BucketEvent
}

// 事件點估計
type EventCount struct {
	Zero PointStat
	One  PointStat
	Two  PointStat
	More PointStat
}

// 對應分桶的統計
type BucketEvent struct {
	BucketLabel []string     // 分桶標籤
	BucketCount []EventCount // 分桶事件點估計
}

// 對應結果敘事
type SessionStat struct {
	Bust    PointStat // 破產
	Cashout PointStat // 贏滿離場
	Alive   PointStat // 玩到最後
}

// ============================================================
// ** 對外 : 用戶體驗評估 **
// ============================================================

// EstimatorPlayerExp 用戶體驗評估（輸入為每位玩家各自 Done 過的報表）
//
// 1. RTP 敘事 : 描述用戶大致的RTP分布
//
// 2. Event 敘事 : 描述用戶在各贏分區間命中次數的機率
//
// 3. Session 敘事 : 描述用戶最終贏滿離場、破產離場、玩到最後的機率
func EstimatorPlayerExp(sts []*StatReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}

	// 1) RTP 敘事
	rtp := make([]float64, n)
	for i, s := range sts {
		rtp[i] = s.Rtp()
	}
	slices.Sort(rtp)

	point := func(q float64) PointStat {
		lo, hi := quantileCI(rtp, q, 0.95)
		return PointStat{Hat: quantilePoint(rtp, q), CI: CI{Lo: lo, Hi: hi}}
	}
	below := func(x0 float64) PointStat {
		hat, ci := percentileCIForValue(rtp, x0, 0.95)
		return PointStat{Hat: hat, CI: ci}
	}
	out.RtpStat = RtpStat{
		ExpMedian: point(0.5),
		ExpPerc: ExpPerc{
			ExpP10: point(0.10),
			ExpP33: point(1.0 / 3.0),
			ExpP67: point(2.0 / 3.0),
			ExpP90: point(0.90),
		},
		RtpPerc: RtpPerc{
			Rtp30:  below(0.30),
			Rtp50:  below(0.50),
			Rtp70:  below(0.70),
			Rtp100: below(1.00),
		},
	}

	// 2) Event 敘事
	labels := Buckets.WinBucketStr()
	out.EventStat.Bucket = BucketEvent{BucketLabel: labels, BucketCount: make([]EventCount, len(labels))}
	for bi := range labels {
		var c [4]int
		for _, s := range sts {
			cnt := 0
			if s.Dist != nil && bi < len(s.Dist.WinCollect) {
				cnt = s.Dist.WinCollect[bi]
			}
			c[min(cnt, 3)]++
		}
		out.EventStat.Bucket.BucketCount[bi] = eventCount(c, n)
	}

	// 3) Session 敘事
	var bustK, cashK, aliveK int
	for _, s := range sts {
		if s.Player == nil {
			continue
		}
		if s.Player.Bust {
			bustK++
		}
		if s.Player.Cashout {
			cashK++
		}
		if s.Player.Alive {
			aliveK++
		}
	}
	out.SessionStat = SessionStat{
		Bust:    pointCP(bustK, n),
		Cashout: pointCP(cashK, n),
		Alive:   pointCP(aliveK, n),
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

func pointCP(k, n int) PointStat {
	hat, ci := proportionCICP(k, n, 0.95)
	return PointStat{Hat: hat, CI: ci}
}

func eventCount(c [4]int, n int) EventCount {
	return EventCount{
		Zero: pointCP(c[0], n),
		One:  pointCP(c[1], n),
		Two:  pointCP(c[2], n),
		More: pointCP(c[3], n),
	}
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 給定已排序樣本 data 與門檻 x0，估計 p = P(X ≤ x0) 的點估計與 CI 區間
func percentileCIForValue(data []float64, x0 float64, confidence float64) (pHat float64, ci CI) {
	n := len(data)
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 0}
	}
	k := 0
	for _, v := range data {
		if v <= x0 {
			k++
		}
	}
	return proportionCICP(k, n, confidence)
}

// 估計第 q 分位的上下界：把 order statistic 的秩視為二項，以 Beta 反推 p 範圍，再轉回樣本索引。
// data 必須已排序。
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return data[0], data[0]
	}
	alpha := 1 - confidence
	k := min(max(int(q*float64(n)), 1), n-1)

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := min(max(int(pLo*float64(n)), 0), n-1)
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	ui = min(max(ui, 0), n-1)
	return data[li], data[ui]
}

// quantilePoint 最近秩法；data 必須已排序
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	idx := min(max(int(q*float64(n)), 0), n-1)
	return data[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

// Write 以文字輸出評估結果
func (est *EstimatorPlayers) Write(w io.Writer) {
	fmt.Fprintf(w, "=== RTP (Player Experience, %d players) ===\n", est.Players)
	rtpKeys := []string{
		"Median RTP",
		"P10 RTP",
		"P33 RTP",
		"P67 RTP",
		"P90 RTP",
		"≤30% RTP (players)",
		"≤50% RTP (players)",
		"≤70% RTP (players)",
		"≤100% RTP (players)",
	}
	rs := est.RtpStat
	rtpMsg := map[string]string{
		"Median RTP":          fmtPoint(rs.ExpMedian),
		"P10 RTP":             fmtPoint(rs.ExpPerc.ExpP10),
		"P33 RTP":             fmtPoint(rs.ExpPerc.ExpP33),
		"P67 RTP":             fmtPoint(rs.ExpPerc.ExpP67),
		"P90 RTP":             fmtPoint(rs.ExpPerc.ExpP90),
		"≤30% RTP (players)":  fmtPoint(rs.RtpPerc.Rtp30),
		"≤50% RTP (players)":  fmtPoint(rs.RtpPerc.Rtp50),
		"≤70% RTP (players)":  fmtPoint(rs.RtpPerc.Rtp70),
		"≤100% RTP (players)": fmtPoint(rs.RtpPerc.Rtp100),
	}
	printTable(w, rtpKeys, rtpMsg)

	fmt.Fprintln(w, "\n=== Events: Buckets (per player hits in bucket) ===")
	for i, label := range est.EventStat.Bucket.BucketLabel {
		fmt.Fprintf(w, "%-14s : %s\n", label, fmtEventCount(est.EventStat.Bucket.BucketCount[i]))
	}

	fmt.Fprintln(w, "\n=== Session Outcome ===")
	ss := est.SessionStat
	printTable(w, []string{"Bust", "Cashout", "Alive"}, map[string]string{
		"Bust":    fmtPoint(ss.Bust),
		"Cashout": fmtPoint(ss.Cashout),
		"Alive":   fmtPoint(ss.Alive),
	})
}

func printTable(w io.Writer, keys []string, msg map[string]string) {
	maxKeyLen := 0
	for _, k := range keys {
		maxKeyLen = max(maxKeyLen, len(k))
	}
	for _, k := range keys {
		fmt.Fprintf(w, "  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtPoint(p PointStat) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(p.Hat), fmtPct01(p.CI.Lo), fmtPct01(p.CI.Hi))
}

func fmtEventCount(ec EventCount) string {
	return fmt.Sprintf("0x: %s | 1x: %s | 2x: %s | 3+x: %s",
		fmtPoint(ec.Zero), fmtPoint(ec.One), fmtPoint(ec.Two), fmtPoint(ec.More))
}
