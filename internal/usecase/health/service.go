// Package health aggregates component health checks for the ops endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; retrieval may still work.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckUnready indicates a component that has not finished warming up.
	CheckUnready CheckResult = "unready"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	embedding  ProviderChecker
	generation ProviderChecker
	keyword    KeywordReadiness
}

// New creates a Service. Any dependency but db may be nil and is then
// skipped.
func New(db DBPinger, embedding, generation ProviderChecker, keyword KeywordReadiness) *Service {
	return &Service{db: db, embedding: embedding, generation: generation, keyword: keyword}
}

// Check runs health checks against all components. An unready keyword
// index degrades the status but does not fail it: retrieval falls back to
// vector-only scoring.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.generation != nil {
		if err := s.generation.HealthCheck(ctx); err != nil {
			checks["generation"] = CheckError
		} else {
			checks["generation"] = CheckOK
		}
	}

	if s.keyword != nil {
		if s.keyword.Ready() {
			checks["keyword_index"] = CheckOK
		} else {
			checks["keyword_index"] = CheckUnready
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
