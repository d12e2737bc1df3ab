package core

import (
	"crypto/rand"
	"math"
	"math/big"
	r2 "math/rand/v2"
)

// PCG64 以 math/rand/v2 的 PCG 為狀態來源；有界取樣與浮點轉換交給 rand.Rand。
type PCG64 struct {
	src *r2.PCG
	r   *r2.Rand
}

func newPCG64WithSeed(seed int64) *PCG64 {
	hi, lo := expandSeed(seed)
	src := r2.NewPCG(hi, lo)
	return &PCG64{src: src, r: r2.New(src)}
}

// expandSeed 把 int64 seed 以 splitmix64 展開成 PCG 的兩個 64-bit 狀態字
func expandSeed(seed int64) (hi, lo uint64) {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	return splitmix64(x), splitmix64(x ^ 0xDA942042E4DD58B5)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func (p *PCG64) Uint64() uint64 { return p.src.Uint64() }

// Float64 [0,1)，53 bits
func (p *PCG64) Float64() float64 { return p.r.Float64() }

// IntN [0,n)；n <= 0 回傳 -1，不 panic
func (p *PCG64) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return p.r.IntN(n)
}

// RandomSeed 由 crypto/rand 產生非負 seed，供 CLI 與伺服器在未指定 seed 時使用。
func RandomSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, err
	}
	return seed.Int64(), nil
}
