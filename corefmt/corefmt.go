// Package corefmt 規則檔與 seed 的文字表示：base64 / hex，以及 "a,b,c" 形式的 seed。
package corefmt

import (
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/zintix-labs/fruitslot/errs"
)

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errs.Wrap(errs.NewWarn(err.Error()), "decode base64 failed")
	}
	return b, nil
}

// EncodeHex 小寫 hex，用於規則摘要與文字版規則檔
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FormatSeed 輸出 "a,b,c"
func FormatSeed(seed []uint16) string {
	var sb strings.Builder
	for i, v := range seed {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return sb.String()
}

// ParseSeed 解析逗號分隔的 seed，每個值須在 [0,65535]。
// want > 0 時數量必須等於 want。輸入錯誤一律為 Warn。
func ParseSeed(s string, want int) ([]uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errs.NewWarn("empty seed")
	}
	parts := strings.Split(s, ",")
	if want > 0 && len(parts) != want {
		return nil, errs.Warnf("seed needs %d values, got %d", want, len(parts))
	}
	out := make([]uint16, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return nil, errs.Warnf("invalid seed value %q: must be an integer in [0,65535]", p)
		}
		out[i] = uint16(v)
	}
	return out, nil
}
