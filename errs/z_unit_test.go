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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	base := NewWarn("bad seed")
	w := Wrap(base, "spin request")
	if w.ErrLv != Warn {
		t.Fatalf("expected warn level, got %s", ErrLv(w.ErrLv))
	}
	if !errors.Is(w, base) {
		t.Fatalf("errors.Is should reach the sentinel")
	}
}

func TestWrapForeignIsFatal(t *testing.T) {
	w := Wrapf(io.ErrUnexpectedEOF, "decode %s", "artifact")
	if w.ErrLv != Fatal || !IsFatal(w) {
		t.Fatalf("foreign cause must be fatal")
	}
	if !strings.Contains(w.Error(), "decode artifact") || !strings.Contains(w.Error(), "unexpected EOF") {
		t.Fatalf("unexpected message: %s", w.Error())
	}
}

func TestWithExtraDoesNotMutate(t *testing.T) {
	sentinel := NewFatal("digest mismatch")
	e := WithExtra(sentinel, "len=12")
	if sentinel.Extra != "" {
		t.Fatalf("sentinel mutated")
	}
	if !strings.Contains(e.Error(), "extra: len=12") {
		t.Fatalf("missing extra: %s", e.Error())
	}
}

func TestLevel(t *testing.T) {
	if Level(nil) != None {
		t.Fatalf("nil should be None")
	}
	if Level(Wrap(NewLog("x"), "y")) != Log {
		t.Fatalf("log level lost")
	}
	if _, ok := AsErr(io.EOF); ok {
		t.Fatalf("io.EOF is not *E")
	}
}
