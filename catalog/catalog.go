package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/fruitslot/corefmt"
	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
)

var (
	ErrDupName  = errs.NewFatal("duplicate rule set name")
	ErrNotFound = errs.NewWarn("rule set not found")
)

// Entry 一份已驗證的規則集
type Entry struct {
	Name   string
	File   string // 來源檔名；程式內註冊者為空
	Rules  *rules.RuleSet
	Digest string // blake3 hex
}

// Summary 對外列表用
type Summary struct {
	Name   string `json:"name"`
	Reels  uint8  `json:"reels"`
	Digest string `json:"digest"`
	File   string `json:"file,omitempty"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string // 用來穩定排序
	frozen bool
}

func New() *Catalog {
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
	}
}

// Default 只含內嵌預設規則集的目錄
func Default() (*Catalog, error) {
	rs, err := rules.Default()
	if err != nil {
		return nil, err
	}
	c := New()
	if err := c.Register(rules.DefaultName, rs); err != nil {
		return nil, err
	}
	return c, nil
}

// Register 以名稱註冊規則集，名稱不分大小寫
func (c *Catalog) Register(name string, rs *rules.RuleSet) error {
	return c.add(Entry{Name: name, Rules: rs})
}

func (c *Catalog) add(e Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	e.Name = normName(e.Name)
	if e.Name == "" {
		return errs.NewFatal("rule set name required")
	}
	if e.Rules == nil {
		return errs.Fatalf("rule set %q is nil", e.Name)
	}
	if _, ok := c.byName[e.Name]; ok {
		return errs.Wrap(ErrDupName, e.Name)
	}
	d := rules.Digest(e.Rules)
	e.Digest = corefmt.EncodeHex(d[:])
	c.byName[e.Name] = e
	c.names = append(c.names, e.Name)
	sort.Strings(c.names)
	return nil
}

// LoadFS 讀入一個或多個平面目錄中的規則檔：
//   - .yaml / .yml : 規則表（名稱取 sheet.name，空白時取檔名）
//   - .frsl        : 二進位規則檔
//   - .frsl.zst    : zstd 壓縮的二進位規則檔
//
// 其他檔案忽略。任何一份解析失敗，整批都不會註冊。
func (c *Catalog) LoadFS(src ...fs.FS) error {
	if c.frozen {
		return errs.NewWarn("can not load when catalog already frozen")
	}
	mfs, err := newMultiFS(src...)
	if err != nil {
		return errs.Wrap(err, "can not load catalog")
	}
	files := make([]string, 0, len(mfs.index))
	for name := range mfs.index {
		files = append(files, name)
	}
	sort.Strings(files)

	batch := make([]Entry, 0, len(files))
	seen := map[string]string{}
	for _, file := range files {
		raw, err := fs.ReadFile(mfs.src[mfs.index[file]], file)
		if err != nil {
			return errs.Wrapf(err, "catalog read %s", file)
		}
		name, rs, err := parseByExt(file, raw)
		if err != nil {
			return errs.Wrapf(err, "catalog parse %s", file)
		}
		name = normName(name)
		if prev, ok := seen[name]; ok {
			return errs.Wrapf(ErrDupName, "%s in %s and %s", name, prev, file)
		}
		if _, ok := c.byName[name]; ok {
			return errs.Wrapf(ErrDupName, "%s in %s", name, file)
		}
		seen[name] = file
		batch = append(batch, Entry{Name: name, File: file, Rules: rs})
	}
	for _, e := range batch {
		if err := c.add(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Get(name string) (Entry, bool) {
	e, ok := c.byName[normName(name)]
	return e, ok
}

// Lookup 與 Get 相同，找不到時回傳 ErrNotFound (Warn)
func (c *Catalog) Lookup(name string) (Entry, error) {
	if e, ok := c.Get(name); ok {
		return e, nil
	}
	return Entry{}, errs.Wrap(ErrNotFound, name)
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.names))
	for _, e := range c.All() {
		out = append(out, Summary{Name: e.Name, Reels: e.Rules.Reels(), Digest: e.Digest, File: e.File})
	}
	return out
}

func (c *Catalog) Len() int { return len(c.names) }

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// LoadFile 讀取單一規則檔（副檔名規則同 LoadFS），回傳名稱與規則集
func LoadFile(path string) (string, *rules.RuleSet, error) {
	file := filepath.Base(path)
	if !ruleFile(strings.ToLower(file)) {
		return "", nil, errs.Fatalf("unsupported rule file: %q", file)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errs.Wrapf(err, "catalog read %s", path)
	}
	name, rs, err := parseByExt(file, raw)
	if err != nil {
		return "", nil, errs.Wrapf(err, "catalog parse %s", path)
	}
	return normName(name), rs, nil
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stem(file string) string {
	lower := strings.ToLower(file)
	for _, ext := range []string{".frsl.zst", ".frsl", ".yaml", ".yml"} {
		if strings.HasSuffix(lower, ext) {
			return file[:len(file)-len(ext)]
		}
	}
	return file
}

func ruleFile(lower string) bool {
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") ||
		strings.HasSuffix(lower, ".frsl") || strings.HasSuffix(lower, ".frsl.zst")
}

func parseByExt(file string, raw []byte) (string, *rules.RuleSet, error) {
	lower := strings.ToLower(file)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		sh, err := rules.ParseSheet(raw)
		if err != nil {
			return "", nil, err
		}
		rs, err := sh.Build()
		if err != nil {
			return "", nil, err
		}
		name := sh.Name
		if strings.TrimSpace(name) == "" {
			name = stem(file)
		}
		return name, rs, nil
	case strings.HasSuffix(lower, ".frsl.zst"):
		rs, err := rules.DecodeZstd(raw)
		return stem(file), rs, err
	case strings.HasSuffix(lower, ".frsl"):
		rs, err := rules.Decode(raw)
		return stem(file), rs, err
	default:
		return "", nil, errs.Fatalf("unsupported rule file: %q", file)
	}
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}

	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 規則目錄必須是平面的，只允許根目錄
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("rules FS must be flat (no subdirectories): %q", path))
			}
			if !ruleFile(strings.ToLower(path)) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate rule file %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}
