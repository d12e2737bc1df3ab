package v1

import (
	"net/http"
	"sync"

	"github.com/zintix-labs/fruitslot/catalog"
	"github.com/zintix-labs/fruitslot/corefmt"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/sdk/core"
	"github.com/zintix-labs/fruitslot/server/httperr"
	"github.com/zintix-labs/fruitslot/server/svrcfg"
)

// SpinHandler 單局結算。請求未帶 seed 時由伺服器自己的 PRNG 抽取。
type SpinHandler struct {
	cat *catalog.Catalog
	mu  sync.Mutex
	c   *core.Core
}

func NewSpinHandler(sCfg *svrcfg.SvrCfg) (*SpinHandler, error) {
	seed := sCfg.Seed
	if seed == 0 {
		v, err := core.RandomSeed()
		if err != nil {
			return nil, errs.Wrap(err, "build spin handler error")
		}
		seed = v
	}
	return &SpinHandler{cat: sCfg.Catalog, c: core.NewSeeded(seed)}, nil
}

type spinRequest struct {
	Rules string   `json:"rules,omitempty"`
	Seed  []uint16 `json:"seed,omitempty"`
}

type SpinResponse struct {
	Rules   string   `json:"rules"`
	Symbols []string `json:"symbols"`
	Reward  uint16   `json:"reward"`
	Seed    []uint16 `json:"seed"`
}

// Spin GET|POST /v1/spin?seed=a,b,c&rules=name
//
// POST 亦可用 body {"rules": "...", "seed": [a,b,c]}；query 優先。
func (h *SpinHandler) Spin(w http.ResponseWriter, r *http.Request) {
	req := new(spinRequest)
	if err := decodeBody(r, req); err != nil {
		httperr.Errs(w, r, err)
		return
	}
	q := r.URL.Query()
	if name := q.Get("rules"); name != "" {
		req.Rules = name
	}
	e, err := lookup(h.cat, req.Rules)
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	reels := int(e.Rules.Reels())

	if s := q.Get("seed"); s != "" {
		if req.Seed, err = corefmt.ParseSeed(s, reels); err != nil {
			httperr.Errs(w, r, err)
			return
		}
	}
	switch {
	case req.Seed == nil:
		req.Seed = h.draw(reels)
	case len(req.Seed) != reels:
		httperr.Errs(w, r, errs.Warnf("seed needs %d values, got %d", reels, len(req.Seed)))
		return
	}

	out := e.Rules.Play(req.Seed)
	resp := SpinResponse{
		Rules:   e.Name,
		Symbols: make([]string, len(out.Symbols)),
		Reward:  out.Reward,
		Seed:    req.Seed,
	}
	for i, s := range out.Symbols {
		resp.Symbols[i] = s.String()
	}
	_ = writeJSON(w, resp)
}

func (h *SpinHandler) draw(n int) []uint16 {
	seed := make([]uint16, n)
	h.mu.Lock()
	h.c.FillUint16(seed)
	h.mu.Unlock()
	return seed
}
