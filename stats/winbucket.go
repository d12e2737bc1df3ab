package stats

// WinBuckets 贏分區間
type WinBuckets struct {
	winBucket    []int
	winBucketStr []string
	lut          []uint8 // lut[win] = idx，僅涵蓋 [0, 最後一個邊界)
}

// Buckets
//
// 用來快速定位得分 -> DistRecord 位置 O(1)
//
// 每局押注 1，贏分即倍數；獎勵皆為整數，因此沒有 (0,1) 區間。
//   - win區間: [0,0], [1,2), [2,5), ..., [2000,10000), [10000, +inf)
var Buckets = newWinBuckets(
	[]int{0, 1, 2, 5, 10, 20, 50, 100, 300, 500, 1000, 2000, 10000},
	[]string{"[0,0]", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,300)", "[300,500)", "[500,1000)", "[1000,2000)", "[2000,10000)", "[10000,+inf)"},
)

func newWinBuckets(bounds []int, labels []string) *WinBuckets {
	last := bounds[len(bounds)-1]
	lut := make([]uint8, last)
	idx := 0
	for win := range last {
		for idx+1 < len(bounds) && win >= bounds[idx+1] {
			idx++
		}
		lut[win] = uint8(idx)
	}
	return &WinBuckets{winBucket: bounds, winBucketStr: labels, lut: lut}
}

func (b *WinBuckets) WinBucketStr() []string {
	return b.winBucketStr
}

// Len 區間數
func (b *WinBuckets) Len() int { return len(b.winBucketStr) }

// Index 回傳 win 所屬區間；負值視為 0
func (b *WinBuckets) Index(win int) int {
	if win <= 0 {
		return 0
	}
	if win >= len(b.lut) {
		return len(b.winBucket) - 1
	}
	return int(b.lut[win])
}
