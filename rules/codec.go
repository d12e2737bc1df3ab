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

package rules

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/symbol"
)

// 二進位規則檔格式（little-endian）：
//
//	magic    4 bytes  "FRSL"
//	version  u8
//	reels    u8
//	nSpace   u8
//	nSpace × { symbol u8, weight u16 }
//	nReward  u16
//	nReward × { symbol u8, count u8, amount u16 }
//	digest   32 bytes  blake3-256(之前所有 bytes)
const (
	Version    uint8 = 1
	DigestSize       = 32

	headerSize = 4 + 1 + 1 + 1
	weightSize = 3
	rewardSize = 4
)

var magic = [4]byte{'F', 'R', 'S', 'L'}

var (
	ErrMagic     = errs.NewFatal("rule set: bad magic")
	ErrVersion   = errs.NewFatal("rule set: unsupported version")
	ErrDigest    = errs.NewFatal("rule set: digest mismatch")
	ErrTruncated = errs.NewFatal("rule set: truncated input")
)

// Encode 序列化 RuleSet。相同的 RuleSet 永遠得到位元組相同的輸出。
func Encode(rs *RuleSet) []byte {
	n := headerSize + len(rs.space)*weightSize + 2 + len(rs.rewards)*rewardSize
	b := make([]byte, 0, n+DigestSize)
	b = append(b, magic[:]...)
	b = append(b, Version, rs.reels, uint8(len(rs.space)))
	for _, w := range rs.space {
		b = append(b, uint8(w.Symbol))
		b = binary.LittleEndian.AppendUint16(b, w.Weight)
	}
	b = binary.LittleEndian.AppendUint16(b, uint16(len(rs.rewards)))
	for _, r := range rs.rewards {
		b = append(b, uint8(r.Symbol), r.Count)
		b = binary.LittleEndian.AppendUint16(b, r.Amount)
	}
	sum := blake3.Sum256(b)
	return append(b, sum[:]...)
}

// Digest 回傳規則檔摘要（即 Encode 結尾的 32 bytes）
func Digest(rs *RuleSet) [DigestSize]byte {
	b := Encode(rs)
	var d [DigestSize]byte
	copy(d[:], b[len(b)-DigestSize:])
	return d
}

// reader 小型游標；任何越界讀取都轉為 ErrTruncated
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if len(r.b)-r.off < n {
		r.err = errs.Wrapf(ErrTruncated, "need %d bytes at offset %d, have %d", n, r.off, len(r.b)-r.off)
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

// Decode 反序列化並完整驗證。失敗時回傳 Fatal 錯誤，永不回傳半成品。
func Decode(b []byte) (*RuleSet, error) {
	if len(b) < len(magic) {
		return nil, errs.Wrapf(ErrTruncated, "input length %d", len(b))
	}
	if !bytes.Equal(b[:len(magic)], magic[:]) {
		return nil, ErrMagic
	}
	if len(b) < len(magic)+1 {
		return nil, errs.Wrapf(ErrTruncated, "input length %d", len(b))
	}
	if v := b[len(magic)]; v != Version {
		return nil, errs.Wrapf(ErrVersion, "version %d", v)
	}
	if len(b) < headerSize+2+DigestSize {
		return nil, errs.Wrapf(ErrTruncated, "input length %d", len(b))
	}

	r := &reader{b: b, off: len(magic) + 1}
	reels := r.u8()
	nSpace := int(r.u8())
	space := make(ProbSpace, 0, nSpace)
	for range nSpace {
		sym := symbol.Symbol(r.u8())
		w := r.u16()
		space = append(space, Weight{Symbol: sym, Weight: w})
	}
	nReward := int(r.u16())
	rewards := make(RewardTable, 0, min(nReward, len(b)/rewardSize))
	for range nReward {
		sym := symbol.Symbol(r.u8())
		count := r.u8()
		amount := r.u16()
		rewards = append(rewards, Reward{Symbol: sym, Count: count, Amount: amount})
		if r.err != nil {
			break
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	body := r.off
	if !r.need(DigestSize) {
		return nil, r.err
	}
	if extra := len(b) - body - DigestSize; extra > 0 {
		return nil, errs.Fatalf("rule set: %d trailing bytes", extra)
	}
	sum := blake3.Sum256(b[:body])
	if !bytes.Equal(sum[:], b[body:]) {
		return nil, ErrDigest
	}
	rs, err := New(space, rewards, reels)
	if err != nil {
		return nil, errs.Wrap(err, "rule set: invalid content")
	}
	return rs, nil
}

func (rs *RuleSet) MarshalBinary() ([]byte, error) {
	return Encode(rs), nil
}

// UnmarshalBinary 只在完整驗證成功後才覆寫接收者。
func (rs *RuleSet) UnmarshalBinary(b []byte) error {
	got, err := Decode(b)
	if err != nil {
		return err
	}
	*rs = *got
	return nil
}

var (
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
	zstdDecOnce sync.Once
	zstdDec     *zstd.Decoder
)

// EncodeZstd 序列化後以 zstd 壓縮，用於規則檔發佈。
func EncodeZstd(rs *RuleSet) []byte {
	zstdEncOnce.Do(func() {
		// nil writer + EncodeAll 不會失敗
		zstdEnc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	})
	return zstdEnc.EncodeAll(Encode(rs), nil)
}

// DecodeZstd 解壓後交給 Decode。
func DecodeZstd(b []byte) (*RuleSet, error) {
	zstdDecOnce.Do(func() {
		zstdDec, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(1<<20))
	})
	raw, err := zstdDec.DecodeAll(b, nil)
	if err != nil {
		return nil, errs.Wrap(err, "rule set: zstd decode failed")
	}
	return Decode(raw)
}
