package services

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultHealthTimeout bounds each dependency check.
const DefaultHealthTimeout = 5 * time.Second

// HealthCheck reports whether a dependency is serving.
type HealthCheck func(ctx context.Context) error

// DependencyStatus is the outcome of one named check.
type DependencyStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}

// Health runs named dependency checks concurrently.
type Health struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealth(timeout time.Duration) *Health {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}

	return &Health{checks: make(map[string]HealthCheck), timeout: timeout}
}

// Register adds a check. Registering the same name twice replaces the earlier check.
func (h *Health) Register(name string, check HealthCheck) {
	h.checks[name] = check
}

// Check runs every registered check and reports whether all of them passed.
func (h *Health) Check(ctx context.Context) ([]DependencyStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		statuses = make([]DependencyStatus, 0, len(h.checks))
	)

	for name, check := range h.checks {
		wg.Add(1)

		go func() {
			defer wg.Done()

			status := DependencyStatus{Name: name, Healthy: true, Message: name + " is healthy"}
			if err := check(ctx); err != nil {
				status.Healthy = false
				status.Message = name + " is unhealthy: " + err.Error()
			}

			mu.Lock()
			statuses = append(statuses, status)
			mu.Unlock()
		}()
	}

	wg.Wait()

	slices.SortFunc(statuses, func(a, b DependencyStatus) int {
		return strings.Compare(a.Name, b.Name)
	})

	healthy := true

	for _, status := range statuses {
		healthy = healthy && status.Healthy
	}

	return statuses, healthy
}
