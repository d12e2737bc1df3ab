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

package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/fruitslot/errs"
)

const DefaultDir = "build/profiling" // pprof 檔案寫入路徑

// Modes 可用的 profiling 模式；空字串代表不啟用
var Modes = []string{"", "cpu", "heap", "allocs"}

func ValidMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// RunPProf 依 mode 包裝 exe 並把 profile 寫到 dir（空字串取 DefaultDir）。
// 回傳 exe 的錯誤；profile 寫出失敗時回傳 Fatal。
//
// Usage like:
//
//	go run ./cmd/run -p cpu
//	go tool pprof build/profiling/cpu.pprof
func RunPProf(exe func() error, mode string, dir string) error {
	if !ValidMode(mode) {
		return errs.Warnf("unknown pprof mode %q (cpu|heap|allocs)", mode)
	}
	if mode == "" {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create pprof dir")
	}
	path := filepath.Join(dir, mode+".pprof")
	switch mode {
	case "cpu":
		return pprofCPU(exe, path)
	default:
		return pprofAfter(exe, path, mode)
	}
}

// pprofCPU 也可以作為 pgo 的 default.pgo 來源
func pprofCPU(exe func() error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// pprofAfter 在 exe 結束後寫出 heap（in-use）或 allocs（累積配置）快照。
// heap 先 GC 一次，讓快照只剩存活物件。
func pprofAfter(exe func() error, path string, mode string) error {
	runErr := exe()
	if mode == "heap" {
		runtime.GC()
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if prof := pprof.Lookup(mode); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.Wrapf(err, "write %s profile", mode)
		}
	}
	return runErr
}
