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

// 開發任務：go run ./scripts [task]
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const (
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func printColor(c, s string) { fmt.Println(c + s + colorReset) }

type task struct {
	desc string
	run  func() error
}

var tasks = map[string]task{
	"test": {"short tests, only ok/FAIL lines", func() error {
		return goFiltered([]string{"test", "./...", "-short", "-cover", "-count=1"}, okFail)
	}},
	"test-all": {"all tests incl. long Monte Carlo checks", func() error {
		return goFiltered([]string{"test", "./...", "-cover", "-count=1"}, okFail)
	}},
	"test-detail": {"verbose tests without [no test files]", func() error {
		return goFiltered([]string{"test", "./...", "-v", "-count=1"}, func(l string) (string, bool) {
			if strings.Contains(l, "[no test files]") {
				return "", false
			}
			return colorOf(l), true
		})
	}},
	"sim-default": {"simulate the embedded rule set, 4 workers x 2.5M spins", func() error {
		return goFiltered([]string{"run", "./cmd/run", "-worker", "4", "-spins", "2500000", "-seed", "1"}, func(l string) (string, bool) {
			return "", true
		})
	}},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		printColor(colorYellow, "Unknown task: "+os.Args[1])
		usage()
		os.Exit(1)
	}
	if err := t.run(); err != nil {
		printColor(colorRed, "\n"+os.Args[1]+" finished with errors: "+err.Error())
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(tasks))
	for n := range tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Println("Usage: go run ./scripts [task]")
	for _, n := range names {
		fmt.Printf("  %-12s %s\n", n, tasks[n].desc)
	}
}

func colorOf(l string) string {
	switch {
	case strings.HasPrefix(l, "ok"):
		return colorGreen
	case strings.HasPrefix(l, "FAIL"), strings.Contains(l, "build failed"), strings.Contains(l, "setup failed"):
		return colorRed
	default:
		return ""
	}
}

// okFail 等同 grep -E '^(ok|FAIL)'，另外保留編譯失敗訊息
func okFail(l string) (string, bool) {
	c := colorOf(l)
	return c, c != ""
}

// goFiltered 執行 go 子指令，stdout/stderr 合併後逐行經 filter 決定顏色與是否輸出
func goFiltered(args []string, filter func(string) (string, bool)) error {
	if args[0] == "test" {
		if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
			printColor(colorRed, err.Error())
		}
	}
	printColor(colorGreen, "go "+strings.Join(args, " "))
	cmd := exec.Command("go", args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		c, keep := filter(line)
		if !keep {
			continue
		}
		if c == "" {
			fmt.Println(line)
		} else {
			printColor(c, line)
		}
	}
	return cmd.Wait()
}
