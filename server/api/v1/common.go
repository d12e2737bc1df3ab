package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/fruitslot/catalog"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/sdk/core"
)

const maxBody = 1 << 16

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// decodeBody POST 的 JSON body 解析到 dst；空 body 不算錯誤
func decodeBody(r *http.Request, dst any) error {
	if r.Method != http.MethodPost || r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errs.Warnf("invalid json: %v", err)
	}
	return nil
}

// lookup 空名稱取預設規則集
func lookup(cat *catalog.Catalog, name string) (catalog.Entry, error) {
	if strings.TrimSpace(name) == "" {
		name = rules.DefaultName
	}
	return cat.Lookup(name)
}

// queryInt 未提供時回傳 def
func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.Warnf("%s must be integer", key)
	}
	return v, nil
}

// resolveSeed 未給 seed 時以 crypto/rand 產生
func resolveSeed(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	v, err := core.RandomSeed()
	if err != nil {
		return 0, errs.Wrap(err, "seed generate failed")
	}
	return v, nil
}
