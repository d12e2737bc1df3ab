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

package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func serve(h http.Handler, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if accept != "" {
		req.Header.Set("Accept-Encoding", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCompressionGzip(t *testing.T) {
	body := strings.Repeat("cherry,lemon,orange;", 200)
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	// 連跑兩次，第二次會用到池中的 encoder
	for range 2 {
		rec := serve(h, "gzip")
		if rec.Header().Get("Content-Encoding") != "gzip" {
			t.Fatalf("headers %v", rec.Header())
		}
		zr, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(zr)
		if err != nil || string(got) != body {
			t.Fatalf("round trip: %v", err)
		}
	}
	if rec := serve(h, ""); rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != body {
		t.Fatalf("uncompressed path altered body")
	}
}

func TestCompressionSkips(t *testing.T) {
	noContent := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	if rec := serve(noContent, "zstd"); rec.Body.Len() != 0 || rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 got body or encoding: %v", rec.Header())
	}
	packed := Compression(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zstd")
		_, _ = w.Write([]byte{0x28, 0xb5, 0x2f, 0xfd})
	}))
	if rec := serve(packed, "zstd"); rec.Header().Get("Content-Encoding") != "" || rec.Body.Len() != 4 {
		t.Fatalf("compressed type recompressed")
	}
}

func TestRecoverLogs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("reel jammed")
	})))
	rec := serve(h, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"msg":"http.panic"`) || !strings.Contains(buf.String(), "reel jammed") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}
