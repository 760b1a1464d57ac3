package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridex/internal/db"
	"github.com/kailas-cloud/hybridex/internal/metrics"
	corpusrepo "github.com/kailas-cloud/hybridex/internal/repository/corpus"
	indexrepo "github.com/kailas-cloud/hybridex/internal/repository/index"
	keyworduc "github.com/kailas-cloud/hybridex/internal/usecase/keyword"
)

type fakeStore struct {
	rows  map[string]map[string]string
	count int
}

func (f *fakeStore) Scan(_ context.Context, _ string) ([]string, error) {
	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = f.rows[k]
	}
	return out, nil
}

func (f *fakeStore) SearchKNN(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
	return &db.SearchResult{}, nil
}

func (f *fakeStore) SearchCount(_ context.Context, _, _ string) (int, error) {
	return f.count, nil
}

func TestOpsRouter_StatszReportsCorpusShape(t *testing.T) {
	fs := &fakeStore{
		rows: map[string]map[string]string{
			"hybridex:passage:1": {"content": "vacation policy details", "category": "hr", "source": "hr.md"},
			"hybridex:passage:2": {"content": "expense report rules", "category": "finance", "source": "fin.md"},
			"hybridex:passage:3": {"content": "leave accrual schedule", "category": "hr", "source": "hr2.md"},
		},
		count: 3,
	}
	corpusRepo := corpusrepo.New(fs)
	kwEngine := keyworduc.NewEngine(corpusRepo, 5000, zap.NewNop())
	if err := kwEngine.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	a := &app{
		logger:  zap.NewNop(),
		keyword: kwEngine,
		corpus:  corpusRepo,
		index:   indexrepo.New(fs, "hybridex_passages"),
		tracker: metrics.NewTracker(),
	}
	a.tracker.ObserveQuery(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/statsz", nil)
	rec := httptest.NewRecorder()
	a.opsRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got stats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalQueries != 1 {
		t.Errorf("total_queries = %d, want 1", got.TotalQueries)
	}
	if got.KeywordIndexPassages != 3 {
		t.Errorf("keyword_index_passages = %d, want 3", got.KeywordIndexPassages)
	}
	if got.IndexedPassages != 3 {
		t.Errorf("indexed_passages = %d, want 3", got.IndexedPassages)
	}
	if got.CorpusByCategory["hr"] != 2 || got.CorpusByCategory["finance"] != 1 {
		t.Errorf("corpus_by_category = %v", got.CorpusByCategory)
	}
}
