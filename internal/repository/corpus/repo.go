// Package corpus reads the passage corpus out of Redis hashes. The keyword
// index rebuilds from these snapshots.
package corpus

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/hybridex/internal/domain"
)

// store is the consumer interface for corpus reads (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo lists passages stored under the passage key prefix.
type Repo struct {
	store store
}

// New creates a corpus repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// List returns every passage in the corpus. Hashes without content are
// skipped, not errored: partially written passages must not poison an
// index rebuild.
func (r *Repo) List(ctx context.Context) ([]domain.Passage, error) {
	keys, err := r.store.Scan(ctx, domain.PassageKeyPattern)
	if err != nil {
		return nil, fmt.Errorf("scan passages: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read passages: %w", err)
	}

	passages := make([]domain.Passage, 0, len(rows))
	for _, fields := range rows {
		content := fields["content"]
		if content == "" {
			continue
		}
		p := domain.Passage{
			Content:  content,
			Metadata: map[string]string{},
		}
		for _, meta := range []string{domain.MetaCategory, domain.MetaSource, domain.MetaContentHash} {
			if v := fields[meta]; v != "" {
				p.Metadata[meta] = v
			}
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// CountByCategory returns the number of passages per category.
func (r *Repo) CountByCategory(ctx context.Context) (map[string]int, error) {
	passages, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, p := range passages {
		counts[p.Category()]++
	}
	return counts, nil
}
