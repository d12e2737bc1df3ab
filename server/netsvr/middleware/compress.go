package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

func isNoBodyStatus(code int) bool {
	// 1xx / 204 / 304
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// CompressConfig
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
	// SkipTypes 已壓縮的 Content-Type 前綴，直接原樣輸出
	SkipTypes []string
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
	SkipTypes: []string{"application/zstd", "application/gzip", "image/"},
}

// Compressor 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應，encoder 以 sync.Pool 重用。
type Compressor struct {
	cfg      CompressConfig
	gzipPool sync.Pool
	zstdPool sync.Pool
}

func NewCompressor(cfg CompressConfig) *Compressor {
	return &Compressor{cfg: cfg}
}

var defaultCompressor = NewCompressor(DefaultCompressConfig)

// Compression 預設設定的壓縮 middleware
func Compression(next http.Handler) http.Handler {
	return defaultCompressor.Handler(next)
}

func (c *Compressor) getZstd(w io.Writer) *zstd.Encoder {
	if v := c.zstdPool.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(c.cfg.ZstdLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic(err)
	}
	return zw
}

func (c *Compressor) getGzip(w io.Writer) *gzip.Writer {
	if v := c.gzipPool.Get(); v != nil {
		gw := v.(*gzip.Writer)
		gw.Reset(w)
		return gw
	}
	gw, err := gzip.NewWriterLevel(w, c.cfg.GzipLevel)
	if err != nil {
		gw = gzip.NewWriter(w)
	}
	return gw
}

func (c *Compressor) skipType(ct string) bool {
	ct = strings.ToLower(ct)
	for _, p := range c.cfg.SkipTypes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}

// compressWriter 延後到第一次 WriteHeader/Write 才決定是否壓縮，
// 此時 handler 已設好 Content-Type 與狀態碼。
type compressWriter struct {
	http.ResponseWriter
	c        *Compressor
	encoding string
	enc      io.WriteCloser
	decided  bool
}

func (cw *compressWriter) decide(code int) {
	if cw.decided {
		return
	}
	cw.decided = true
	h := cw.Header()
	if isNoBodyStatus(code) || h.Get("Content-Encoding") != "" || cw.c.skipType(h.Get("Content-Type")) {
		return
	}
	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.encoding)
	h.Add("Vary", "Accept-Encoding")
	switch cw.encoding {
	case "zstd":
		cw.enc = cw.c.getZstd(cw.ResponseWriter)
	default:
		cw.enc = cw.c.getGzip(cw.ResponseWriter)
	}
}

func (cw *compressWriter) WriteHeader(code int) {
	cw.decide(code)
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if !cw.decided {
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		cw.WriteHeader(http.StatusOK)
	}
	if cw.enc == nil {
		return cw.ResponseWriter.Write(b)
	}
	return cw.enc.Write(b)
}

// finish 寫出壓縮尾並歸還 encoder
func (cw *compressWriter) finish() {
	if cw.enc == nil {
		return
	}
	_ = cw.enc.Close()
	switch e := cw.enc.(type) {
	case *zstd.Encoder:
		cw.c.zstdPool.Put(e)
	case *gzip.Writer:
		cw.c.gzipPool.Put(e)
	}
	cw.enc = nil
}

func (cw *compressWriter) Flush() {
	if f, ok := cw.enc.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

func pickEncoding(accept string) string {
	accept = strings.ToLower(accept)
	switch {
	case strings.Contains(accept, "zstd"):
		return "zstd"
	case strings.Contains(accept, "gzip"):
		return "gzip"
	default:
		return ""
	}
}

func (c *Compressor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := pickEncoding(r.Header.Get("Accept-Encoding"))
		if enc == "" || r.Method == http.MethodHead || isWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}
		cw := &compressWriter{ResponseWriter: w, c: c, encoding: enc}
		defer cw.finish()
		next.ServeHTTP(cw, r)
	})
}
