package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/suprovo-labs/aahar/internal/core/ports"
)

const analyticsTopic = "analytics"

// Analytics consumes query events from the bus and aggregates per-category
// counts into the repository, backing the popular-queries endpoint.
type Analytics struct {
	logger *slog.Logger
	repo   ports.Repository
	bus    *EventBus
	unsub  func()
}

func NewAnalytics(logger *slog.Logger, repo ports.Repository, bus *EventBus) *Analytics {
	return &Analytics{
		logger: logger.With("component", "analytics"),
		repo:   repo,
		bus:    bus,
	}
}

// Start subscribes to query events and aggregates them until ctx is done.
func (a *Analytics) Start(ctx context.Context) {
	ch, unsub := a.bus.Subscribe(analyticsTopic)
	a.unsub = unsub

	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-ch:
				if !ok {
					return
				}
				if e.Type != EventTypeQuery {
					continue
				}
				if err := a.repo.BumpQueryStat(ctx, e.Data, 1); err != nil {
					a.logger.Warn("failed to record query stat", "category", e.Data, "error", err)
				}
			}
		}
	}()
}

// RecordQuery categorizes a user query and publishes it for aggregation.
func (a *Analytics) RecordQuery(query string) {
	category := CategorizeQuery(query)
	a.bus.Publish(NewEvent(analyticsTopic, EventTypeQuery, category))
}

// TopQueries returns the most frequent query categories.
func (a *Analytics) TopQueries(ctx context.Context, limit int) ([]ports.QueryStat, error) {
	return a.repo.TopQueryStats(ctx, limit)
}

// CategorizeQuery buckets a query into a coarse topic for popularity stats.
func CategorizeQuery(query string) string {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "recipe", "how to make", "how to cook"):
		return "recipe"
	case containsAny(q, "compare", "vs", "versus", "difference between"):
		return "comparison"
	case containsAny(q, "weather", "temperature", "climate"):
		return "weather_based"
	case containsAny(q, "calorie", "calories", "protein", "nutrition", "nutrient", "fat", "carb"):
		return "nutrition_facts"
	case containsAny(q, "diet plan", "meal plan", "diet chart", "what should i eat"):
		return "diet_plan"
	case containsAny(q, "weight loss", "lose weight", "weight gain", "gain weight"):
		return "weight_management"
	case containsAny(q, "hello", "hi", "hey", "namaste"):
		return "greeting"
	default:
		return "general"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
