package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"token-pulse/internal/api/model"

	"go.uber.org/zap"
)

// fakeBuilder 每次构建产出带构建序号的载荷，用于检验原子替换
type fakeBuilder struct {
	builds int64
	delay  time.Duration
}

func (f *fakeBuilder) Build(ctx context.Context, chain string) []model.EnrichedToken {
	n := atomic.AddInt64(&f.builds, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	payload := make([]model.EnrichedToken, 0, 3)
	for i := 0; i < 3; i++ {
		payload = append(payload, model.EnrichedToken{
			ActivityRow: model.ActivityRow{TokenAddress: fmt.Sprintf("0x%040x", i)},
			Label:       fmt.Sprintf("%s build %d", chain, n),
			TokenType:   "ERC-20",
			Decimals:    uint8(18),
		})
	}
	return payload
}

func (f *fakeBuilder) calls() int64 { return atomic.LoadInt64(&f.builds) }

func TestGetServesCachedPayloadWithinTTL(t *testing.T) {
	builder := &fakeBuilder{}
	c := NewTrendingCache(time.Hour, zap.NewNop(), builder, nil)

	first := c.Get(context.Background(), "ethereum")
	second := c.Get(context.Background(), "ethereum")

	if builder.calls() != 1 {
		t.Fatalf("expected exactly one build, got %d", builder.calls())
	}
	if len(first) != len(second) {
		t.Fatalf("payload length changed between hits")
	}
	for i := range first {
		if first[i].Label != second[i].Label {
			t.Errorf("row %d differs between cache hits", i)
		}
	}
}

func TestGetRebuildsAfterTTL(t *testing.T) {
	builder := &fakeBuilder{}
	c := NewTrendingCache(20*time.Millisecond, zap.NewNop(), builder, nil)

	c.Get(context.Background(), "ethereum")
	time.Sleep(40 * time.Millisecond)
	refreshed := c.Get(context.Background(), "ethereum")

	if builder.calls() != 2 {
		t.Fatalf("expected rebuild after ttl, builds = %d", builder.calls())
	}
	if refreshed[0].Label != "ethereum build 2" {
		t.Errorf("expected payload from second build, got %q", refreshed[0].Label)
	}
}

func TestConcurrentColdGetCoalesces(t *testing.T) {
	builder := &fakeBuilder{delay: 50 * time.Millisecond}
	c := NewTrendingCache(time.Hour, zap.NewNop(), builder, nil)

	const callers = 16
	payloads := make([][]model.EnrichedToken, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payloads[i] = c.Get(context.Background(), "ethereum")
		}(i)
	}
	wg.Wait()

	if builder.calls() != 1 {
		t.Errorf("expected single-flight rebuild, builds = %d", builder.calls())
	}

	// 任何一个响应内的行都必须来自同一次构建
	for i, payload := range payloads {
		if len(payload) == 0 {
			t.Fatalf("caller %d got empty payload", i)
		}
		want := payload[0].Label
		for j, row := range payload {
			if row.Label != want {
				t.Errorf("caller %d row %d mixes builds: %q vs %q", i, j, row.Label, want)
			}
		}
	}
}

func TestChainsDoNotShareEntries(t *testing.T) {
	builder := &fakeBuilder{}
	c := NewTrendingCache(time.Hour, zap.NewNop(), builder, nil)

	eth := c.Get(context.Background(), "ethereum")
	base := c.Get(context.Background(), "base")

	if builder.calls() != 2 {
		t.Fatalf("each chain needs its own build, builds = %d", builder.calls())
	}
	if eth[0].Label == base[0].Label {
		t.Errorf("chains must not share payloads: %q", eth[0].Label)
	}
}

func TestEmptyPayloadIsCachedNotRetried(t *testing.T) {
	builder := &emptyBuilder{}
	c := NewTrendingCache(time.Hour, zap.NewNop(), builder, nil)

	first := c.Get(context.Background(), "unknown")
	second := c.Get(context.Background(), "unknown")

	if first == nil || second == nil {
		t.Fatalf("Get must return a payload slice, not nil")
	}
	if len(first) != 0 || len(second) != 0 {
		t.Fatalf("expected empty payloads")
	}
	if builder.builds != 1 {
		t.Errorf("empty result is cached like any other, builds = %d", builder.builds)
	}
}

type emptyBuilder struct{ builds int }

func (b *emptyBuilder) Build(ctx context.Context, chain string) []model.EnrichedToken {
	b.builds++
	return []model.EnrichedToken{}
}
