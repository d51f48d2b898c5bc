// Copyright 2011 Google Inc. All Rights Reserved.
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

package execpool

import (
	"context"
	"testing"
)

func TestPoolRunsAllSubmittedWork(t *testing.T) {
	ctx := context.Background()
	p := New(ctx, 3)

	const n = 10
	// Results is buffered only to the worker count, so submit from a
	// separate goroutine while this one drains the results.
	go func() {
		for i := 0; i < n; i++ {
			i := i
			p.Submit(&WorkItem{
				ID: i,
				Run: func(ctx context.Context) (interface{}, error) {
					return i * i, nil
				},
			})
		}
	}()

	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		r := <-p.Results()
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
		id := r.ID.(int)
		if r.Value.(int) != id*id {
			t.Fatalf("result for %d = %v, want %d", id, r.Value, id*id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("saw %d distinct results, want %d", len(seen), n)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestPoolRecoversWorkerPanic(t *testing.T) {
	ctx := context.Background()
	p := New(ctx, 1)
	p.Submit(&WorkItem{
		ID: "boom",
		Run: func(ctx context.Context) (interface{}, error) {
			panic("kaboom")
		},
	})
	r := <-p.Results()
	if r.Err == nil {
		t.Fatal("expected a PanicError")
	}
	if _, ok := r.Err.(*PanicError); !ok {
		t.Fatalf("Err = %T, want *PanicError", r.Err)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestPoolPropagatesJobError(t *testing.T) {
	ctx := context.Background()
	p := New(ctx, 2)
	wantErr := context.Canceled
	p.Submit(&WorkItem{
		ID: 1,
		Run: func(ctx context.Context) (interface{}, error) {
			return nil, wantErr
		},
	})
	r := <-p.Results()
	if r.Err != wantErr {
		t.Fatalf("Err = %v, want %v", r.Err, wantErr)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
}
