package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/fruitslot/errs"
	"github.com/zintix-labs/fruitslot/rules"
)

func mustDefault(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	return rs
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	e, ok := c.Get(" P96 ")
	if !ok || e.Name != rules.DefaultName {
		t.Fatalf("default entry missing: %+v", e)
	}
	if len(e.Digest) != 64 {
		t.Fatalf("digest %q", e.Digest)
	}
	if _, err := c.Lookup("nope"); !errors.Is(err, ErrNotFound) || errs.Level(err) != errs.Warn {
		t.Fatalf("lookup unknown: %v", err)
	}
}

func TestLoadFS(t *testing.T) {
	rs := mustDefault(t)
	sheet, err := rules.MarshalSheet("Sheet-Alt", rs)
	if err != nil {
		t.Fatal(err)
	}
	src := fstest.MapFS{
		"alt.yaml":        {Data: sheet},
		"bin.frsl":        {Data: rules.Encode(rs)},
		"packed.frsl.zst": {Data: rules.EncodeZstd(rs)},
		"README.md":       {Data: []byte("ignored")},
	}
	c := New()
	if err := c.LoadFS(src); err != nil {
		t.Fatal(err)
	}
	want := []string{"bin", "packed", "sheet-alt"}
	got := c.Names()
	if len(got) != len(want) {
		t.Fatalf("names %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names %v, want %v", got, want)
		}
	}
	for _, e := range c.All() {
		if !e.Rules.Equal(rs) {
			t.Fatalf("%s differs from source", e.Name)
		}
	}
	if s := c.Summaries(); len(s) != 3 || s[0].File != "bin.frsl" || s[0].Reels != 3 {
		t.Fatalf("summaries %+v", s)
	}
}

func TestLoadFSRejects(t *testing.T) {
	rs := mustDefault(t)
	bad := rules.Encode(rs)
	bad[len(bad)-1] ^= 0xff

	cases := map[string]fstest.MapFS{
		"corrupt":  {"x.frsl": {Data: bad}},
		"subdir":   {"d/x.frsl": {Data: rules.Encode(rs)}},
		"dup name": {"p96.frsl": {Data: rules.Encode(rs)}, "p96.yaml": {Data: rules.DefaultSheet()}},
		"bad yaml": {"x.yaml": {Data: []byte("name: x\nbogus: 1\n")}},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			c := New()
			if err := c.LoadFS(src); !errs.IsFatal(err) {
				t.Fatalf("expected fatal, got %v", err)
			}
			if c.Len() != 0 {
				t.Fatalf("partial batch registered: %v", c.Names())
			}
		})
	}
}

func TestRegisterRules(t *testing.T) {
	rs := mustDefault(t)
	c := New()
	if err := c.Register("", rs); !errs.IsFatal(err) {
		t.Fatalf("empty name accepted")
	}
	if err := c.Register("a", nil); !errs.IsFatal(err) {
		t.Fatalf("nil rules accepted")
	}
	if err := c.Register("a", rs); err != nil {
		t.Fatal(err)
	}
	if err := c.Register("A", rs); !errors.Is(err, ErrDupName) {
		t.Fatalf("duplicate accepted: %v", err)
	}
	c.Freeze()
	if err := c.Register("b", rs); errs.Level(err) != errs.Warn || !c.IsFrozen() {
		t.Fatalf("frozen catalog accepted register: %v", err)
	}
	if err := c.LoadFS(fstest.MapFS{}); errs.Level(err) != errs.Warn {
		t.Fatalf("frozen catalog accepted load: %v", err)
	}
	if err := New().LoadFS(); !errs.IsFatal(err) {
		t.Fatalf("no fs accepted")
	}
}

func TestLoadFile(t *testing.T) {
	rs := mustDefault(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "Promo.frsl.zst")
	if err := os.WriteFile(path, rules.EncodeZstd(rs), 0o644); err != nil {
		t.Fatal(err)
	}
	name, got, err := LoadFile(path)
	if err != nil || name != "promo" || !got.Equal(rs) {
		t.Fatalf("load: %q %v", name, err)
	}
	if _, _, err := LoadFile(filepath.Join(dir, "x.txt")); !errs.IsFatal(err) {
		t.Fatalf("unsupported ext accepted")
	}
	if _, _, err := LoadFile(filepath.Join(dir, "missing.frsl")); !errs.IsFatal(err) {
		t.Fatalf("missing file accepted")
	}
}
