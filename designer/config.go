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

package designer

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
	"github.com/zintix-labs/fruitslot/symbol"
)

const (
	MinTarget = 0.5
	MaxTarget = 2.0
)

// Override 設計端指定的固定獎項：不參與縮放，直接寫入獎勵表。
//
// Rarest 為 true 時忽略 Symbol，改用機率空間中權重最小的圖標。
type Override struct {
	Symbol symbol.Symbol `yaml:"symbol" json:"symbol"`
	Rarest bool          `yaml:"rarest" json:"rarest"`
	Count  uint8         `yaml:"count"  json:"count"`
	Amount uint16        `yaml:"amount" json:"amount"`
}

// Config 校準參數
type Config struct {
	Reels    uint8     `yaml:"reels"`     // 輪數
	Rounds   int       `yaml:"rounds"`    // 縮放輪數
	Floor    uint16    `yaml:"floor"`     // 小於等於此值的獎項不再縮放
	JitterLo float64   `yaml:"jitter_lo"` // 每筆縮放乘上 [JitterLo,1) 的抖動
	ProbVar  float64   `yaml:"prob_var"`  // 機率空間比值上限
	Override *Override `yaml:"override"`  // nil 表示不套用

	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig 回傳預設校準參數
func DefaultConfig() Config {
	return Config{
		Reels:    rules.DefaultReels,
		Rounds:   10,
		Floor:    3,
		JitterLo: 0.9999,
		ProbVar:  4.0,
		Override: &Override{Rarest: true, Count: 1, Amount: 1},
	}
}

// Option 以函式調整 Config
type Option func(*Config)

func WithReels(n uint8) Option { return func(c *Config) { c.Reels = n } }

func WithRounds(n int) Option { return func(c *Config) { c.Rounds = n } }

func WithFloor(v uint16) Option { return func(c *Config) { c.Floor = v } }

func WithJitter(lo float64) Option { return func(c *Config) { c.JitterLo = lo } }

func WithProbVar(v float64) Option { return func(c *Config) { c.ProbVar = v } }

// WithOverride 指定固定獎項；傳 nil 取消
func WithOverride(o *Override) Option { return func(c *Config) { c.Override = o } }

func WithLogger(l *slog.Logger) Option { return func(c *Config) { c.Logger = l } }

// WithConfig 整份替換（保留已設定的 Logger）
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		l := c.Logger
		*c = cfg
		if c.Logger == nil {
			c.Logger = l
		}
	}
}

// NewConfig 由預設值套用 opts
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

func (c *Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Valid 檢查參數範圍
func (c *Config) Valid() error {
	if c.Reels < 2 {
		return errs.Fatalf("designer: reels must be >= 2, got %d", c.Reels)
	}
	if c.Rounds < 0 {
		return errs.Fatalf("designer: rounds must be >= 0, got %d", c.Rounds)
	}
	if !(c.JitterLo > 0 && c.JitterLo <= 1) {
		return errs.Fatalf("designer: jitter_lo must be in (0,1], got %v", c.JitterLo)
	}
	if !(c.ProbVar > 1) {
		return errs.Fatalf("designer: prob_var must be > 1, got %v", c.ProbVar)
	}
	if o := c.Override; o != nil {
		if o.Count < 1 || o.Count > c.Reels {
			return errs.Fatalf("designer: override count %d out of [1,%d]", o.Count, c.Reels)
		}
		if o.Amount > rules.MaxReward {
			return errs.Fatalf("designer: override amount %d > %d", o.Amount, rules.MaxReward)
		}
		if !o.Rarest && !o.Symbol.Valid() {
			return errs.Fatalf("designer: override symbol %d unknown", uint8(o.Symbol))
		}
	}
	return nil
}

// LoadConfig 讀取 YAML 設定，未出現的欄位保留預設值；未知欄位報錯。
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errs.Wrapf(err, "designer: read config %s", path)
	}
	return ParseConfig(b)
}

// ParseConfig 同 LoadConfig，輸入為 YAML 內容
func ParseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()
	// yaml 會沿用既有指標，先放一個空的 probe 才能分辨「未設定」與「override: null」
	def, probe := cfg.Override, &Override{}
	cfg.Override = probe
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errs.Wrap(err, "designer: decode config failed")
	}
	if cfg.Override == probe && *probe == (Override{}) {
		cfg.Override = def
	}
	if err := cfg.Valid(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
