package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"token-pulse/internal/api/config"
	"token-pulse/internal/api/model"

	"go.uber.org/zap"
)

type fakeActivityDAO struct {
	rows  []model.ActivityRow
	err   error
	calls int
}

func (f *fakeActivityDAO) RankTokenActivity(ctx context.Context, chain string) ([]model.ActivityRow, error) {
	f.calls++
	return f.rows, f.err
}

type fakeResolver struct {
	mu    sync.Mutex
	metas map[string]model.TokenMetadata
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, chain string, tokenAddress string) model.TokenMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if md, ok := f.metas[tokenAddress]; ok {
		return md
	}
	return model.UnknownMetadata()
}

func uint8p(v uint8) *uint8 { return &v }

const wethAddress = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

func newService(dao *fakeActivityDAO, resolver *fakeResolver) *TrendingService {
	return NewTrendingService(config.Config{}, zap.NewNop(), dao, resolver)
}

func TestBuildEnrichesRankedTokens(t *testing.T) {
	prev := int64(150)
	dao := &fakeActivityDAO{rows: []model.ActivityRow{{
		TokenAddress:                wethAddress,
		UniqueAddressesGrowth:       42,
		PreviousWeekUniqueAddresses: &prev,
	}}}
	resolver := &fakeResolver{metas: map[string]model.TokenMetadata{
		wethAddress: {Name: "Wrapped Ether", Symbol: "WETH", Decimals: uint8p(18), Standard: model.StandardFungible},
	}}

	out := newService(dao, resolver).Build(context.Background(), "ethereum")

	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	got := out[0]
	if got.Label != "Wrapped Ether (WETH) [18]" {
		t.Errorf("label = %q", got.Label)
	}
	if got.TokenType != "ERC-20" {
		t.Errorf("token_type = %q", got.TokenType)
	}
	if got.Decimals != uint8(18) {
		t.Errorf("decimals = %v", got.Decimals)
	}
	if got.UniqueAddressesGrowth != 42 {
		t.Errorf("growth = %d", got.UniqueAddressesGrowth)
	}
}

func TestBuildFailedResolutionKeepsRow(t *testing.T) {
	dao := &fakeActivityDAO{rows: []model.ActivityRow{{
		TokenAddress:          wethAddress,
		UniqueAddressesGrowth: 42,
	}}}
	// 解析器没有该地址的数据，返回 Unknown 兜底
	resolver := &fakeResolver{}

	out := newService(dao, resolver).Build(context.Background(), "ethereum")

	if len(out) != 1 {
		t.Fatalf("failed resolution must not drop the row, got %d rows", len(out))
	}
	got := out[0]
	if got.Label != "Unknown (Unknown)" {
		t.Errorf("label = %q", got.Label)
	}
	if got.TokenType != "Unknown" {
		t.Errorf("token_type = %q, failed resolution is tagged Unknown, not ERC-721", got.TokenType)
	}
	if got.Decimals != "N/A" {
		t.Errorf("decimals = %v", got.Decimals)
	}
}

func TestBuildNonFungibleToken(t *testing.T) {
	addr := "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D"
	dao := &fakeActivityDAO{rows: []model.ActivityRow{{TokenAddress: addr}}}
	resolver := &fakeResolver{metas: map[string]model.TokenMetadata{
		addr: {Name: "BoredApeYachtClub", Symbol: "BAYC", Standard: model.StandardNonFungible},
	}}

	out := newService(dao, resolver).Build(context.Background(), "ethereum")

	if out[0].Label != "BoredApeYachtClub (BAYC)" {
		t.Errorf("label = %q", out[0].Label)
	}
	if out[0].TokenType != "ERC-721" {
		t.Errorf("token_type = %q", out[0].TokenType)
	}
	if out[0].Decimals != "N/A" {
		t.Errorf("decimals = %v", out[0].Decimals)
	}
}

func TestBuildPreservesRankingOrder(t *testing.T) {
	var rows []model.ActivityRow
	for i := 0; i < 20; i++ {
		rows = append(rows, model.ActivityRow{TokenAddress: fmt.Sprintf("0x%040x", i+1)})
	}
	dao := &fakeActivityDAO{rows: rows}
	resolver := &fakeResolver{}

	out := newService(dao, resolver).Build(context.Background(), "ethereum")

	if len(out) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(out))
	}
	for i := range out {
		want := fmt.Sprintf("%040x", i+1)
		if got := out[i].TokenAddress; len(got) != 42 || !equalFoldHex(got, want) {
			t.Errorf("row %d: address = %s, want hex %s", i, got, want)
		}
	}
}

func equalFoldHex(addr, wantHex string) bool {
	got := addr[2:]
	for i := range got {
		a, b := got[i], wantHex[i]
		if a >= 'A' && a <= 'F' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func TestBuildEmptyRankingSkipsResolution(t *testing.T) {
	dao := &fakeActivityDAO{err: errors.New("relation does not exist")}
	resolver := &fakeResolver{}

	out := newService(dao, resolver).Build(context.Background(), "unknown-chain")

	if len(out) != 0 {
		t.Errorf("expected empty payload, got %d rows", len(out))
	}
	if resolver.calls != 0 {
		t.Errorf("empty ranking must not trigger metadata calls, got %d", resolver.calls)
	}
}
