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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/fruitslot/catalog"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/server/netsvr/middleware"
)

// StatusCode 錯誤對應的 HTTP 狀態碼：
//   - ctx 逾時/取消         → 504/408
//   - catalog.ErrNotFound → 404
//   - errs.Warn           → 400
//   - 其他（含 errs.Fatal） → 500
//
// 放在 server 層，核心 errs 不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	}
	if errs.Level(err) == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應
type Body struct {
	Error     string `json:"error"`
	Level     string `json:"level,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Errs 以 JSON 寫回錯誤。5xx 不外露內部訊息。
func Errs(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Error: err.Error(), Level: errs.ErrLv(errs.Level(err))}
	if status >= 500 {
		body.Error = http.StatusText(status)
	}
	if r != nil {
		body.RequestID = middleware.GetReqId(r)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Log 5xx 記 Error，408/504 記 Warn，其餘（輸入錯誤）不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Any("err", err))
	}
}
