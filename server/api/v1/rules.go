package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zintix-labs/fruitslot/catalog"
	"github.com/zintix-labs/fruitslot/corefmt"
	"github.com/zintix-labs/fruitslot/designer"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/server/httperr"
)

type RulesHandler struct {
	cat *catalog.Catalog
}

func NewRulesHandler(cat *catalog.Catalog) *RulesHandler {
	return &RulesHandler{cat: cat}
}

// RulesInfo 單一規則集；artifact 為 base64 的二進位規則檔
type RulesInfo struct {
	Name           string            `json:"name"`
	Reels          uint8             `json:"reels"`
	Digest         string            `json:"digest"`
	Artifact       string            `json:"artifact"`
	ExpectedReturn float64           `json:"expected_return"`
	Space          rules.ProbSpace   `json:"space"`
	Rewards        rules.RewardTable `json:"rewards"`
}

func info(e catalog.Entry) RulesInfo {
	return RulesInfo{
		Name:           e.Name,
		Reels:          e.Rules.Reels(),
		Digest:         e.Digest,
		Artifact:       corefmt.EncodeBase64(rules.Encode(e.Rules)),
		ExpectedReturn: designer.ExpectedReturn(e.Rules),
		Space:          e.Rules.Space(),
		Rewards:        e.Rules.Rewards(),
	}
}

// Default GET /v1/rules[?name=]
func (h *RulesHandler) Default(w http.ResponseWriter, r *http.Request) {
	e, err := lookup(h.cat, r.URL.Query().Get("name"))
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	_ = writeJSON(w, info(e))
}

// List GET /v1/catalog
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, struct {
		Default string            `json:"default"`
		Rules   []catalog.Summary `json:"rules"`
	}{rules.DefaultName, h.cat.Summaries()})
}

// Get GET /v1/rules/{name}
func (h *RulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.cat.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	_ = writeJSON(w, info(e))
}

// Artifact GET /v1/rules/{name}/artifact[?format=zst]
func (h *RulesHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	e, err := h.cat.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		httperr.Errs(w, r, err)
		return
	}
	var body []byte
	switch r.URL.Query().Get("format") {
	case "hex":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		body = []byte(corefmt.EncodeHex(rules.Encode(e.Rules)))
	case "zst", "zstd":
		w.Header().Set("Content-Type", "application/zstd")
		w.Header().Set("Content-Disposition", `attachment; filename="`+e.Name+`.frsl.zst"`)
		body = rules.EncodeZstd(e.Rules)
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+e.Name+`.frsl"`)
		body = rules.Encode(e.Rules)
	}
	w.Header().Set("ETag", `"`+e.Digest+`"`)
	_, _ = w.Write(body)
}
