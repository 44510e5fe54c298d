package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"token-pulse/internal/api/config"
	"token-pulse/internal/api/model"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

type fakeProvider struct {
	payload  []model.EnrichedToken
	panicMsg string
	chains   []string
}

func (f *fakeProvider) Get(ctx context.Context, chain string) []model.EnrichedToken {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.chains = append(f.chains, chain)
	return f.payload
}

func newMux(cfg config.ServerConfig, provider TrendingProvider) *http.ServeMux {
	mux := http.NewServeMux()
	New(cfg, zap.NewNop(), provider).Routes(mux)
	return mux
}

func TestTrendingDataReturnsJSONArray(t *testing.T) {
	provider := &fakeProvider{payload: []model.EnrichedToken{{
		ActivityRow: model.ActivityRow{TokenAddress: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", UniqueAddressesGrowth: 42},
		Label:       "Wrapped Ether (WETH) [18]",
		TokenType:   "ERC-20",
		Decimals:    uint8(18),
	}}}
	mux := newMux(config.ServerConfig{}, provider)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/ethereum", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	if len(provider.chains) != 1 || provider.chains[0] != "ethereum" {
		t.Errorf("provider called with %v", provider.chains)
	}

	var out []model.EnrichedToken
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(out) != 1 || out[0].Label != "Wrapped Ether (WETH) [18]" {
		t.Errorf("unexpected payload: %s", rec.Body.String())
	}
}

func TestTrendingDataEmptyPayload(t *testing.T) {
	mux := newMux(config.ServerConfig{}, &fakeProvider{payload: []model.EnrichedToken{}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/dogechain", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty payload must serialize as [], got %s", body)
	}
}

func TestPanicYieldsErrorObject(t *testing.T) {
	mux := newMux(config.ServerConfig{}, &fakeProvider{panicMsg: "refresh exploded"})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/ethereum", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var out map[string]string
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if !strings.Contains(out["error"], "refresh exploded") {
		t.Errorf("error = %q", out["error"])
	}
}

func TestCORSHeaders(t *testing.T) {
	mux := newMux(config.ServerConfig{
		AllowedOrigins: []string{"https://pulse.example.com"},
	}, &fakeProvider{payload: []model.EnrichedToken{}})

	req := httptest.NewRequest(http.MethodGet, "/data/ethereum", nil)
	req.Header.Set("Origin", "https://pulse.example.com")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://pulse.example.com" {
		t.Errorf("allow-origin = %q", got)
	}

	// 不在白名单内的来源不下发 CORS 头
	req = httptest.NewRequest(http.MethodGet, "/data/ethereum", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin %q for disallowed origin", got)
	}
}

func TestPreflight(t *testing.T) {
	mux := newMux(config.ServerConfig{}, &fakeProvider{})

	req := httptest.NewRequest(http.MethodOptions, "/data/ethereum", nil)
	req.Header.Set("Origin", "https://pulse.example.com")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Errorf("allow-methods = %q", got)
	}
}

func TestHealth(t *testing.T) {
	mux := newMux(config.ServerConfig{}, &fakeProvider{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestFrontendRendersChainsAndExplorers(t *testing.T) {
	dir := t.TempDir()
	page := `<select>{{range .Chains}}<option>{{.}}</option>{{end}}</select>
<script>const explorers = {{.Explorers}};</script>`
	if err := os.WriteFile(filepath.Join(dir, "frontend.html"), []byte(page), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	mux := newMux(config.ServerConfig{TemplateDir: dir}, &fakeProvider{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<option>ethereum</option>") {
		t.Errorf("chain selector missing: %s", body)
	}
	// 浏览器端拼代币详情链接要用到浏览器地址映射
	if !strings.Contains(body, "etherscan.io") {
		t.Errorf("explorer map missing from page: %s", body)
	}
}
