package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokenlens/internal/address"
	"github.com/songzhibin97/tokenlens/internal/analysis"
	"github.com/songzhibin97/tokenlens/internal/models"
	"github.com/songzhibin97/tokenlens/internal/risk"
)

//go:embed templates/*.html
var templateFS embed.FS

// 报告页展示的提及条数
const topMentions = 5

// Analyzer runs one analysis for an address
type Analyzer interface {
	Analyze(ctx context.Context, address string) (*analysis.Report, error)
}

type Options struct {
	Addr           string
	RequestTimeout time.Duration
}

type Server struct {
	router   *mux.Router
	server   *http.Server
	analyzer Analyzer
	metrics  *Metrics
	logger   *slog.Logger
	pages    *template.Template
	opts     Options
}

func New(opts Options, analyzer Analyzer, metrics *Metrics, logger *slog.Logger) (*Server, error) {
	pages, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   mux.NewRouter(),
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
		pages:    pages,
		opts:     opts,
	}
	s.setupRoutes()

	// 写超时需覆盖一次完整分析
	writeTimeout := 30 * time.Second
	if opts.RequestTimeout > 0 {
		writeTimeout = opts.RequestTimeout + 10*time.Second
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/analyze", s.handleAnalyzePage).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyze/{address}", s.handleAnalyzeAPI).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.opts.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

type indexPage struct {
	Address string
	Error   string
}

type reportPage struct {
	Report   *analysis.Report
	Mentions []models.Mention
	Notable  []models.Account
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", indexPage{})
}

func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	addr := strings.TrimSpace(r.URL.Query().Get("address"))

	report, err := s.analyze(r.Context(), addr)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, address.ErrInvalidAddress) {
			status = http.StatusBadRequest
		}
		s.render(w, r, status, "index.html", indexPage{Address: addr, Error: userMessage(err)})
		return
	}

	mentions := report.Social.Items
	if len(mentions) > topMentions {
		mentions = mentions[:topMentions]
	}
	s.render(w, r, http.StatusOK, "report.html", reportPage{
		Report:   report,
		Mentions: mentions,
		Notable:  report.Social.NotableAccounts(),
	})
}

func (s *Server) handleAnalyzeAPI(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["address"]

	report, err := s.analyze(r.Context(), addr)
	switch {
	case errors.Is(err, address.ErrInvalidAddress):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: userMessage(err)})
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) analyze(ctx context.Context, addr string) (*analysis.Report, error) {
	report, err := s.analyzer.Analyze(ctx, addr)
	if err != nil {
		if !errors.Is(err, address.ErrInvalidAddress) {
			s.logger.Error("analysis failed", "request_id", RequestID(ctx), "address", addr, "err", err)
		}
		return nil, err
	}
	s.metrics.ObserveReport(report)
	return report, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf strings.Builder
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render template", "request_id", RequestID(r.Context()), "template", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func userMessage(err error) string {
	if errors.Is(err, address.ErrInvalidAddress) {
		return "Please enter a valid Solana token address: " + err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The analysis took too long, please try again."
	}
	return "The analysis could not be completed, please try again later."
}

var templateFuncs = template.FuncMap{
	"usd": func(v float64) string {
		return "$" + decimal.NewFromFloat(v).Round(2).StringFixed(2)
	},
	"price": func(v float64) string {
		// memecoin 价格常见 8 位以上小数
		return "$" + decimal.NewFromFloat(v).String()
	},
	"score": func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(1)
	},
	"verdictClass": func(verdict string) string {
		switch verdict {
		case risk.VerdictLowRisk:
			return "low"
		case risk.VerdictSpeculative:
			return "medium"
		case risk.VerdictHighRisk:
			return "high"
		default:
			return "unknown"
		}
	},
	"sentiment": func(s models.Sentiment) string {
		return s.String()
	},
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "..."
	},
}
