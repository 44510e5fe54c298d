package handler

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"token-pulse/internal/api/config"
	"token-pulse/internal/api/model"
	"token-pulse/internal/api/monitor"
	"token-pulse/pkg/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// TrendingProvider 排行数据入口，对调用方永不失败
type TrendingProvider interface {
	Get(ctx context.Context, chain string) []model.EnrichedToken
}

type Handler struct {
	cfg      config.ServerConfig
	tl       *zap.Logger
	trending TrendingProvider
	frontend *template.Template
}

func New(cfg config.ServerConfig, tl *zap.Logger, trending TrendingProvider) *Handler {
	h := &Handler{
		cfg:      cfg,
		tl:       tl,
		trending: trending,
	}

	if cfg.TemplateDir != "" {
		tmpl, err := template.ParseFiles(filepath.Join(cfg.TemplateDir, "frontend.html"))
		if err != nil {
			tl.Warn("frontend template not loaded, '/' disabled", zap.Error(err))
		} else {
			h.frontend = tmpl
		}
	}

	return h
}

// Routes 注册全部路由
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /data/{chainId}", h.wrap("/data/{chainId}", h.TrendingData))
	mux.HandleFunc("OPTIONS /data/{chainId}", h.preflight)

	if h.frontend != nil {
		mux.HandleFunc("GET /{$}", h.wrap("/", h.Frontend))
	}
	if h.cfg.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.cfg.StaticDir))))
	}
}

// TrendingData GET /data/{chainId}
// 正常路径永远 200：缓存层把一切失败都收敛成空列表
func (h *Handler) TrendingData(w http.ResponseWriter, r *http.Request) {
	chain := r.PathValue("chainId")
	payload := h.trending.Get(r.Context(), chain)
	h.writeJSON(w, http.StatusOK, payload)
}

// Frontend GET /
func (h *Handler) Frontend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.frontend.Execute(w, map[string]any{
		"Chains":    model.SupportedChains(),
		"Explorers": model.ExplorerURLs,
	}); err != nil {
		h.tl.Error("render frontend failed", zap.Error(err))
	}
}

// wrap 公共中间件：trace span、CORS 头、panic 兜底、请求指标
func (h *Handler) wrap(path string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := logger.StartSpanWithRequest(r, "api", path)
		defer span.End()
		r = r.WithContext(ctx)

		h.setCORS(w, r)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				// 顶层兜底：刷新过程中的意外错误返回错误对象而不是拖垮进程
				rec.status = http.StatusInternalServerError
				h.tl.Error("handler panic",
					zap.String("path", path),
					zap.Any("panic", p))
				h.writeJSON(rec, http.StatusInternalServerError, map[string]string{
					"error": fmt.Sprint(p),
				})
			}
			monitor.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
			monitor.HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		}()

		fn(rec, r)
	}
}

func (h *Handler) preflight(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	if len(h.cfg.AllowedOrigins) == 0 {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		return
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			return
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		h.tl.Error("marshal response failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		h.tl.Warn("write response failed", zap.Error(err))
	}
}

// statusRecorder 记录响应状态码用于指标
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.status = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}
