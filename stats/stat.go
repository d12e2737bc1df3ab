package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zintix-labs/fruitslot/symbol"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 規則表模擬統計報告（每局押注 1，贏分即倍數）
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Hits    []HitReport    `json:"Hits"`
	Dist    *DistReport    `json:"Dist"`
	Player  *PlayerReport  `json:"Player,omitzero" yaml:"player,omitempty"`
	isDone  bool
}

type SummaryReport struct {
	RuleName    string  `json:"RuleName"`
	Digest      string  `json:"Digest"`
	Reels       int     `json:"Reels"`
	Seed        int64   `json:"Seed"`
	TotalBet    int     `json:"TotalBet"`
	TotalWin    int     `json:"TotalWin"`
	MaxWin      int     `json:"MaxWin"`
	RTP         float64 `json:"RTP"`
	RtpCI       CI      `json:"RtpCI"`
	Expected    float64 `json:"Expected"` // 封閉解期望返還，由呼叫端填入
	Std         float64 `json:"Std"`
	Cv          float64 `json:"Cv"`
	NoWinRounds int     `json:"NoWinRounds"`
	HitRate     float64 `json:"HitRate"`
	HitRateCI   CI      `json:"HitRateCI"`
	Rounds      int     `json:"Rounds"`
}

// MultReport 贏倍統計
//
// 紀錄時只累加整數，Done() 時才轉為浮點
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum"` // 平方和
}

// HitReport 單一獎項 (圖標, 次數) 的命中統計
type HitReport struct {
	Symbol symbol.Symbol `json:"Symbol"`
	Count  int           `json:"Count"`
	Hits   int           `json:"Hits"`
	Rate   float64       `json:"Rate"`
	CI     CI            `json:"CI"`
}

// DistReport 分數區間落點統計
type DistReport struct {
	WinBucket  []string  `json:"WinBucket"`
	WinCollect []int     `json:"WinCollect"`
	WinDist    []float64 `json:"WinDist"`
}

// PlayerReport 玩家統計
//
// 需使用 RecordWithPlayer 才會統計
type PlayerReport struct {
	InitBalance int  `json:"InitBalance"`
	Balance     int  `json:"Balance"`
	MaxBalance  int  `json:"MaxBalance"`
	MinBalance  int  `json:"MinBalance"`
	Bust        bool `json:"Bust"`
	Cashout     bool `json:"Cashout"`
	Alive       bool `json:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。可重複呼叫。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	if s.Summary.Rounds > 0 {
		s.Summary.HitRate, s.Summary.HitRateCI = proportionCICP(s.Summary.Rounds-s.Summary.NoWinRounds, s.Summary.Rounds, 0.95)
	}

	// Hits
	for i := range s.Hits {
		h := &s.Hits[i]
		h.Rate, h.CI = proportionCICP(h.Hits, s.Summary.Rounds, 0.95)
	}

	// Dist
	if s.Dist != nil && s.Summary.Rounds > 0 {
		rf := float64(s.Summary.Rounds)
		s.Dist.WinDist = make([]float64, len(s.Dist.WinCollect))
		for i, c := range s.Dist.WinCollect {
			s.Dist.WinDist[i] = float64(c) / rf
		}
	}

	// Player
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}

	s.isDone = true
}

// Rtp 回傳整體 RTP（總贏分 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet == 0 {
		return 0
	}
	return float64(s.Summary.TotalWin) / float64(s.Summary.TotalBet)
}

// Std 回傳單局贏倍的樣本標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	winMultPow := s.Mult.TotalWinMult * s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - winMultPow/rounds) / (rounds - 1)

	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單局贏分的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// z975 常態分配 97.5% 分位數（雙尾 95%）
var z975 = distuv.UnitNormal.Quantile(0.975)

// Ci 回傳(95% Rtp)信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	return CI{
		Lo: max(rtp-z975*rtpSe, 0.0),
		Hi: rtp + z975*rtpSe,
	}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 印出用時與報表
func (s *StatReport) StdOut(ut time.Duration) {
	s.WriteTable(os.Stdout, ut)
}

// WriteTable 以表格輸出摘要與命中統計；ut <= 0 時不印用時。
func (s *StatReport) WriteTable(w io.Writer, ut time.Duration) {
	s.Done()
	if ut > 0 {
		formatDuration(w, ut, s.Summary.Rounds)
	}
	sk, sm := s.fmtBasic()
	fmt.Fprintln(w, fmtTable(s.Summary.RuleName, sk, sm))
	if len(s.Hits) > 0 {
		hk, hm := s.fmtHits()
		fmt.Fprintln(w, fmtTable("Hits", hk, hm))
	}
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(w io.Writer, d time.Duration, spins int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		p.Fprintf(w, "used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Fprintf(w, "used: %dm %ds\nsps : %d spins/sec\n", m, s, sps)
		return
	}
	p.Fprintf(w, "used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, s, sps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	digest := s.Summary.Digest
	if len(digest) > 16 {
		digest = digest[:16]
	}
	basic := map[string]string{
		"Rule Name":    p.Sprintf("%s", s.Summary.RuleName),
		"Digest":       digest,
		"Reels":        p.Sprintf("%d", s.Summary.Reels),
		"Total Rounds": p.Sprintf("%d", s.Summary.Rounds),
		"Total RTP":    p.Sprintf("%.2f %%", 100.0*s.Summary.RTP),
		"RTP 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.RtpCI.Lo, 100.0*s.Summary.RtpCI.Hi),
		"Expected RTP": p.Sprintf("%.4f %%", 100.0*s.Summary.Expected),
		"Total Bet":    p.Sprintf("%d", s.Summary.TotalBet),
		"Total Win":    p.Sprintf("%d", s.Summary.TotalWin),
		"Max Win":      p.Sprintf("%d", s.Summary.MaxWin),
		"NoWin Rounds": p.Sprintf("%d", s.Summary.NoWinRounds),
		"Hit Rate":     p.Sprintf("%.2f %%", 100.0*s.Summary.HitRate),
		"STD":          p.Sprintf("%.3f", s.Summary.Std),
		"CV":           p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Rule Name", "Digest", "Reels", "Total Rounds", "Total RTP", "RTP 95% CI", "Expected RTP", "Total Bet", "Total Win", "Max Win", "NoWin Rounds", "Hit Rate", "STD", "CV"}
	return keys, basic
}

func (s *StatReport) fmtHits() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Hits))
	msg := make(map[string]string, len(s.Hits))
	for _, h := range s.Hits {
		k := fmt.Sprintf("%s x%d", h.Symbol, h.Count)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d (%.4f%%)", h.Hits, 100.0*h.Rate)
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := max((totalInner-titleW)/2, 0)
	right := max(totalInner-titleW-left, 0)

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
