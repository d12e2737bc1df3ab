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

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// blocking 在 Shutdown 前一直阻塞
type blocking struct {
	name  string
	stop  chan struct{}
	mu    *sync.Mutex
	order *[]string
}

func newBlocking(name string, mu *sync.Mutex, order *[]string) *blocking {
	return &blocking{name: name, stop: make(chan struct{}), mu: mu, order: order}
}

func (b *blocking) Run() error {
	<-b.stop
	return nil
}

func (b *blocking) Shutdown(context.Context) error {
	b.mu.Lock()
	*b.order = append(*b.order, b.name)
	b.mu.Unlock()
	close(b.stop)
	return nil
}

func TestRunContextCancel(t *testing.T) {
	var mu sync.Mutex
	var order []string
	a := NewWith(nil, newBlocking("a", &mu, &order), newBlocking("b", &mu, &order))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunContext(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancel should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunContext did not return")
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("shutdown order %v", order)
	}
}

func TestRunComponentError(t *testing.T) {
	boom := errors.New("listen failed")
	shut := false
	a := New(nil)
	a.SetShutdownTimeout(time.Second)
	a.Register(Funcs{
		RunFn:      func() error { return boom },
		ShutdownFn: func(context.Context) error { shut = true; return nil },
	})
	if err := a.RunContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if !shut {
		t.Fatalf("shutdown not called")
	}
}
