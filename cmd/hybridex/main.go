package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/config"
	dbRedis "github.com/kailas-cloud/hybridex/internal/db/redis"
	"github.com/kailas-cloud/hybridex/internal/domain"
	"github.com/kailas-cloud/hybridex/internal/domain/access"
	logpkg "github.com/kailas-cloud/hybridex/internal/logger"
	"github.com/kailas-cloud/hybridex/internal/metrics"
	"github.com/kailas-cloud/hybridex/internal/repository/cache"
	corpusrepo "github.com/kailas-cloud/hybridex/internal/repository/corpus"
	"github.com/kailas-cloud/hybridex/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/hybridex/internal/repository/index"
	"github.com/kailas-cloud/hybridex/internal/repository/respcache"
	openaiTransport "github.com/kailas-cloud/hybridex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/hybridex/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/hybridex/internal/usecase/keyword"
	retrieveruc "github.com/kailas-cloud/hybridex/internal/usecase/retriever"
	"github.com/kailas-cloud/hybridex/internal/version"
)

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		runServe()
	case "query":
		runQuery(args)
	default:
		fmt.Fprintf(os.Stderr, "usage: hybridex [serve|query] ...\n")
		os.Exit(2)
	}
}

// app holds the wired engine components shared by both subcommands.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *dbRedis.Store
	retriever *retrieveruc.Service
	answers   *retrieveruc.AnswerService
	keyword   *keyworduc.Engine
	corpus    *corpusrepo.Repo
	index     *indexrepo.Repo
	health    *healthuc.Service
	tracker   *metrics.Tracker
}

// stats is the /statsz payload: tracker counters plus corpus shape.
type stats struct {
	metrics.Snapshot
	KeywordIndexPassages int            `json:"keyword_index_passages"`
	IndexedPassages      int            `json:"indexed_passages"`
	CorpusByCategory     map[string]int `json:"corpus_by_category,omitempty"`
}

// buildApp is the composition root.
func buildApp() *app {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	logger.Info("Starting hybridex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.Register()
	tracker := metrics.NewTracker()

	var byteCache cache.Cache = cache.NewStore(store, logger)
	if cfg.Retrieval.DisableCache {
		byteCache = cache.NewNoop()
		logger.Info("Caching disabled by configuration")
	}

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	embedder := embcache.New(
		baseEmbedder, byteCache,
		time.Duration(cfg.Retrieval.EmbeddingCacheTTLSec)*time.Second,
		metrics.CacheTotal, tracker, logger,
	)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
	})

	table := access.DefaultTable()
	if len(cfg.Roles) > 0 {
		table = access.NewTable(cfg.Roles)
	}

	corpusRepo := corpusrepo.New(store)
	idxRepo := indexrepo.New(store, cfg.Retrieval.IndexName)
	kwEngine := keyworduc.NewEngine(corpusRepo, cfg.Retrieval.KeywordMaxFeatures, logger)

	respCache := respcache.New(
		byteCache,
		time.Duration(cfg.Retrieval.ResponseCacheTTLSec)*time.Second,
		metrics.CacheTotal, tracker, logger,
	)

	retrieverSvc := retrieveruc.New(retrieveruc.Config{
		Access:        table,
		Vector:        retrieveruc.NewVectorEngine(embedder, idxRepo),
		Keyword:       kwEngine,
		Expander:      retrieveruc.NewExpander(generator, cfg.Retrieval.MaxExpansionQueries, logger),
		ResponseCache: respCache,
		VectorWeight:  cfg.Retrieval.VectorWeight,
		KeywordWeight: cfg.Retrieval.KeywordWeight,
		Tracker:       tracker,
		Logger:        logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		retriever: retrieverSvc,
		answers:   retrieveruc.NewAnswerService(generator, logger),
		keyword:   kwEngine,
		corpus:    corpusRepo,
		index:     idxRepo,
		health:    healthuc.New(store, embedder, generator, kwEngine),
		tracker:   tracker,
	}
}

func runServe() {
	a := buildApp()
	defer func() { _ = a.logger.Sync() }()
	defer a.store.Close()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.keyword.Rebuild(rootCtx); err != nil {
		// Vector-only scoring until the next refresh succeeds.
		a.logger.Warn("Initial keyword index build failed", zap.Error(err))
	}
	go a.keywordRefreshLoop(rootCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Ops.Port),
		Handler:      a.opsRouter(),
		ReadTimeout:  time.Duration(a.cfg.Ops.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Ops.WriteTimeoutSec) * time.Second,
	}

	go func() {
		a.logger.Info("Starting ops HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal("Ops server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Ops.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}
	a.logger.Info("Stopped gracefully")
}

// keywordRefreshLoop rebuilds the TF-IDF snapshot on the configured
// interval until the context is canceled.
func (a *app) keywordRefreshLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.Retrieval.KeywordRefreshSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.keyword.Rebuild(ctx); err != nil {
				a.logger.Warn("Keyword index rebuild failed", zap.Error(err))
			}
		}
	}
}

func (a *app) opsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(a.requestLogger())
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		report := a.health.Check(req.Context())
		w.Header().Set("Content-Type", "application/json")
		if report.Status != healthuc.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})

	r.Get("/statsz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		out := stats{
			Snapshot:             a.tracker.Snapshot(),
			KeywordIndexPassages: a.keyword.PassageCount(),
		}
		// Counts come from the live store; a failed read leaves the
		// field at zero rather than failing the whole stats page.
		if n, err := a.index.Count(req.Context()); err == nil {
			out.IndexedPassages = n
		}
		if counts, err := a.corpus.CountByCategory(req.Context()); err == nil {
			out.CorpusByCategory = counts
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// requestLogger emits one canonical log line per ops request.
func (a *app) requestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := a.logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	role := fs.String("role", access.FallbackRole, "requesting role")
	k := fs.Int("k", 0, "number of passages (0 = config default)")
	noExpand := fs.Bool("no-expand", false, "disable LLM query expansion")
	noCache := fs.Bool("no-cache", false, "bypass the response cache")
	answer := fs.Bool("answer", false, "generate an answer from the top passages")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: hybridex query [flags] <query text>")
		os.Exit(2)
	}
	text := fs.Arg(0)

	a := buildApp()
	defer func() { _ = a.logger.Sync() }()
	defer a.store.Close()

	ctx := context.Background()
	if err := a.keyword.Rebuild(ctx); err != nil {
		a.logger.Warn("Keyword index build failed, vector-only scoring", zap.Error(err))
	}

	kk := *k
	if kk <= 0 {
		kk = a.cfg.Retrieval.DefaultK
	}

	passages, err := a.retriever.Query(ctx, retrieveruc.Request{
		Text:         text,
		K:            kk,
		Role:         *role,
		UseExpansion: !*noExpand,
		UseCache:     !*noCache,
	})
	if err != nil {
		a.logger.Fatal("Retrieval failed", zap.Error(err))
	}

	for i, p := range passages {
		fmt.Printf("%2d. [%.3f] (vec %.3f / kw %.3f) %s\n",
			i+1, p.CombinedScore, p.VectorScore, p.KeywordScore, p.Content)
		if src := p.Metadata[domain.MetaSource]; src != "" {
			fmt.Printf("    source: %s  category: %s\n", src, p.Category())
		}
	}

	if *answer {
		fmt.Printf("\nAnswer:\n%s\n", a.answers.Answer(ctx, text, passages))
	}
}
