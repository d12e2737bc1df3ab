package v1

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/fruitslot"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/server/httperr"
	"github.com/zintix-labs/fruitslot/server/svrcfg"
	"github.com/zintix-labs/fruitslot/stats"
)

type SimHandler struct {
	cfg *svrcfg.SvrCfg
}

func NewSimHandler(sCfg *svrcfg.SvrCfg) *SimHandler {
	return &SimHandler{cfg: sCfg}
}

// workersFor 取能整除 trials 的最大 worker 數，使總局數恰為 trials
func workersFor(trials, limit int) int {
	mp := max(1, min(limit, trials))
	for mp > 1 && trials%mp != 0 {
		mp--
	}
	return mp
}

// Sim GET|POST /v1/sim {rules, trials, seed}
func (h *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	type simRequest struct {
		Rules  string `json:"rules"`
		Trials int    `json:"trials"`
		Seed   *int64 `json:"seed,omitempty"`
	}
	type simResponse struct {
		Stats    *stats.StatReport `json:"stats"`
		UsedTime int64             `json:"used_ms"`
	}
	req := new(simRequest)
	if err := decodeBody(r, req); err != nil {
		httperr.Errs(w, r, err)
		return
	}
	if r.Method == http.MethodGet {
		var err error
		if req.Trials, err = queryInt(r, "trials", 0); err != nil {
			httperr.Errs(w, r, err)
			return
		}
		req.Rules = r.URL.Query().Get("rules")
	}
	if req.Trials < 1 || req.Trials > h.cfg.MaxTrials {
		httperr.Errs(w, r, errs.Warnf("trials must be between 1 and %d", h.cfg.MaxTrials))
		return
	}
	e, err := lookup(h.cfg.Catalog, req.Rules)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	sim := fruitslot.NewSimulatorWithSeed(e.Name, e.Rules, core.Default(), seed)
	mp := workersFor(req.Trials, h.cfg.Workers)
	st, used, err := sim.SimMP(req.Trials/mp, mp, false)
	if err != nil {
		httperr.Log(h.cfg.Log, "sim", err)
		httperr.Errs(w, r, errs.Wrap(err, "simulate err"))
		return
	}
	h.cfg.Log.Debug("sim.done", slog.String("rules", e.Name), slog.Int("trials", req.Trials), slog.Duration("used", used))
	_ = writeJSON(w, simResponse{Stats: st, UsedTime: used.Milliseconds()})
}

// SimPlayers POST /v1/simplayer {rules, players, bets, rounds, seed}
//
// 每位玩家帶入 bets 局籌碼，最多玩 rounds 局。
func (h *SimHandler) SimPlayers(w http.ResponseWriter, r *http.Request) {
	type simPlayerRequest struct {
		Rules   string `json:"rules"`
		Players int    `json:"players"`
		Bets    int    `json:"bets"`
		Rounds  int    `json:"rounds"`
		Seed    *int64 `json:"seed,omitempty"`
	}
	type simPlayerResponse struct {
		Stats     *stats.StatReport       `json:"stats"`
		Estimator *stats.EstimatorPlayers `json:"est"`
		UsedTime  int64                   `json:"used_ms"`
	}
	req := new(simPlayerRequest)
	if err := decodeBody(r, req); err != nil {
		httperr.Errs(w, r, err)
		return
	}
	switch {
	case req.Players < 1 || req.Players > h.cfg.MaxPlayers:
		httperr.Errs(w, r, errs.Warnf("players must be between 1 and %d", h.cfg.MaxPlayers))
		return
	case req.Bets < 1:
		httperr.Errs(w, r, errs.NewWarn("bets must be at least 1"))
		return
	case req.Rounds < 1 || req.Rounds > h.cfg.MaxTrials/req.Players:
		httperr.Errs(w, r, errs.Warnf("players*rounds must be between 1 and %d", h.cfg.MaxTrials))
		return
	}
	e, err := lookup(h.cfg.Catalog, req.Rules)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	sim := fruitslot.NewSimulatorWithSeed(e.Name, e.Rules, core.Default(), seed)
	st, est, used, err := sim.SimPlayers(h.cfg.Workers, req.Players, req.Bets, req.Rounds, false)
	if err != nil {
		httperr.Log(h.cfg.Log, "simplayer", err)
		httperr.Errs(w, r, errs.Wrap(err, "simulate err"))
		return
	}
	_ = writeJSON(w, simPlayerResponse{Stats: st, Estimator: est, UsedTime: used.Milliseconds()})
}
