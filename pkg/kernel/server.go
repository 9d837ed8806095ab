// Package kernel exposes the HTTP surface of the AAHAR service.
package kernel

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/suprovo-labs/aahar/internal/config"
	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/services"
)

const sessionCookieName = "aahar_session"

// VectorStoreHealth is the slice of the vector store the health check needs.
type VectorStoreHealth interface {
	Count() int
}

type Server struct {
	logger    *slog.Logger
	cfg       *config.Config
	secret    *config.SecretKey
	agent     *services.AgentLoop
	catalog   *services.Catalog
	analyzer  *services.MealAnalyzer
	sessions  *services.SessionStore
	analytics *services.Analytics
	vectors   VectorStoreHealth
}

func NewServer(
	logger *slog.Logger,
	cfg *config.Config,
	secret *config.SecretKey,
	agent *services.AgentLoop,
	catalog *services.Catalog,
	analyzer *services.MealAnalyzer,
	sessions *services.SessionStore,
	analytics *services.Analytics,
	vectors VectorStoreHealth,
) *Server {
	return &Server{
		logger:    logger,
		cfg:       cfg,
		secret:    secret,
		agent:     agent,
		catalog:   catalog,
		analyzer:  analyzer,
		sessions:  sessions,
		analytics: analytics,
		vectors:   vectors,
	}
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /analyze-meal", s.handleAnalyzeMeal)
	mux.HandleFunc("GET /nutrition/search/{food_name}", s.handleNutritionSearch)
	mux.HandleFunc("GET /nutrition/categories", s.handleNutritionCategories)
	mux.HandleFunc("GET /nutrition/dishes-by-category", s.handleDishesByCategory)
	mux.HandleFunc("GET /nutrition/regional/{region}", s.handleRegionalFoods)
	mux.HandleFunc("POST /nutrition/compare", s.handleNutritionCompare)
	mux.HandleFunc("POST /nutrition/upload", s.handleNutritionUpload)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /analytics/popular-queries", s.handlePopularQueries)

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeDetail writes the error shape clients expect: {"detail": "..."}.
func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Enhanced Indian Diet Recommendation API with Nutrition Database is running.",
		"features": []string{
			"RAG-based diet suggestions",
			"Comprehensive nutrition database integration",
			"Multi-model LLM responses (Groq + Gemini)",
			"Weather-based food suggestions",
			"Nutrition facts lookup and comparison",
			"Recipe suggestions with nutrition info",
			"Regional cuisine preferences",
			"Full meal nutritional analysis",
		},
		"usage":                      "Use POST /chat for conversational AI or POST /analyze-meal for meal analysis.",
		"nutrition_database_records": s.catalog.Len(),
	})
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		s.writeDetail(w, http.StatusBadRequest, "The 'query' field cannot be empty.")
		return
	}

	sessionID := s.resolveSession(r, req.SessionID)
	s.setSessionCookie(w, sessionID)

	answer := s.agent.Run(r.Context(), sessionID, req.Query)

	s.writeJSON(w, http.StatusOK, map[string]string{
		"answer":     answer,
		"session_id": string(sessionID),
	})
}

// resolveSession prefers an explicit session_id from the body, then a validly
// signed session cookie, then mints a fresh session.
func (s *Server) resolveSession(r *http.Request, bodyID string) domain.SessionID {
	if bodyID != "" {
		return domain.SessionID(bodyID)
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id, ok := s.secret.Verify(cookie.Value); ok {
			return domain.SessionID(id)
		}
		s.logger.Warn("rejecting tampered session cookie")
	}
	return domain.NewSessionID()
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id domain.SessionID) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.secret.Sign(string(id)),
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type mealAnalysisRequest struct {
	DishNames []string `json:"dish_names"`
}

func (s *Server) handleAnalyzeMeal(w http.ResponseWriter, r *http.Request) {
	var req mealAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.DishNames) == 0 {
		s.writeDetail(w, http.StatusBadRequest, "The 'dish_names' list cannot be empty.")
		return
	}

	result := s.analyzer.Analyze(r.Context(), req.DishNames)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNutritionSearch(w http.ResponseWriter, r *http.Request) {
	foodName := r.PathValue("food_name")
	limit := queryInt(r, "limit", 5)

	results := s.catalog.Search(foodName, limit)
	if results == nil {
		results = []domain.NutritionRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"query":         foodName,
		"results_found": len(results),
		"results":       results,
	})
}

func (s *Server) handleNutritionCategories(w http.ResponseWriter, r *http.Request) {
	if s.catalog.Len() == 0 {
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Nutrition database not loaded or empty"})
		return
	}

	categories, counts := s.catalog.Categories()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total_categories":   len(categories),
		"categories":         categories,
		"items_per_category": counts,
	})
}

func (s *Server) handleDishesByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		s.writeDetail(w, http.StatusBadRequest, "The 'category' query parameter is required.")
		return
	}
	limit := queryInt(r, "limit", 50)

	if s.catalog.Len() == 0 {
		s.writeDetail(w, http.StatusServiceUnavailable, "Nutrition database not loaded or empty")
		return
	}

	dishes, ok := s.catalog.ByCategory(category, limit)
	if !ok {
		s.writeDetail(w, http.StatusNotFound, "Category '"+category+"' not found.")
		return
	}
	s.writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) handleRegionalFoods(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	q := r.URL.Query()
	dietaryType := queryOr(q.Get("dietary_type"), "any")
	goal := queryOr(q.Get("goal"), "diet")
	limit := queryInt(r, "limit", 10)

	results := s.catalog.Regional(region, dietaryType, goal)
	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []domain.NutritionRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"region":            region,
		"dietary_type":      dietaryType,
		"goal":              goal,
		"suggestions_found": total,
		"suggestions":       results,
	})
}

// comparisonEntry is either a resolved record or a not-found marker.
type comparisonEntry struct {
	domain.NutritionRecord
	Error string `json:"error,omitempty"`
}

func (s *Server) handleNutritionCompare(w http.ResponseWriter, r *http.Request) {
	var foodItems []string
	if err := json.NewDecoder(r.Body).Decode(&foodItems); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(foodItems) < 2 {
		s.writeDetail(w, http.StatusBadRequest, "At least 2 food items required for comparison")
		return
	}
	if len(foodItems) > 5 {
		foodItems = foodItems[:5]
	}

	comparison := make([]comparisonEntry, 0, len(foodItems))
	for _, item := range foodItems {
		if matches := s.catalog.Search(item, 1); len(matches) > 0 {
			comparison = append(comparison, comparisonEntry{NutritionRecord: matches[0]})
		} else {
			comparison = append(comparison, comparisonEntry{
				NutritionRecord: domain.NutritionRecord{DishName: item},
				Error:           "Not found in database",
			})
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"comparison":     comparison,
		"items_compared": len(comparison),
	})
}

type uploadRequest struct {
	FileContent string `json:"file_content"`
}

func (s *Server) handleNutritionUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	records, err := domain.ParseNutritionData([]byte(req.FileContent))
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.writeDetail(w, http.StatusBadRequest, "Invalid JSON format")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	s.catalog.Replace(records)
	s.logger.Info("nutrition database updated", "records", len(records))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"records_loaded": len(records),
		"message":        "Nutrition database updated successfully",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]bool{
		"nutrition_database": s.catalog.Len() > 0,
		"vector_database":    s.vectors != nil,
		"llm_gemini":         s.cfg.GeminiAPIKey != "",
		"llm_orchestrator":   s.cfg.GeminiAPIKey != "",
		"groq_api":           s.cfg.GroqAPIKey != "",
		"weather_api":        s.cfg.OpenWeatherAPIKey != "",
	}

	status := "healthy"
	for _, critical := range []string{"nutrition_database", "vector_database", "llm_gemini", "llm_orchestrator"} {
		if !components[critical] {
			status = "degraded"
			break
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"timestamp":  time.Now().Format(time.RFC3339),
		"components": components,
		"database_stats": map[string]any{
			"nutrition_records": s.catalog.Len(),
			"active_sessions":   s.sessions.ActiveCount(),
			"total_sessions":    s.sessions.PersistedCount(r.Context()),
		},
	})
}

func (s *Server) handlePopularQueries(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.TopQueries(r.Context(), 10)
	if err != nil {
		s.logger.Error("failed to load query stats", "error", err)
		s.writeDetail(w, http.StatusInternalServerError, "Error retrieving analytics")
		return
	}

	categories, _ := s.catalog.Categories()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"active_sessions":         s.sessions.ActiveCount(),
		"total_nutrition_records": s.catalog.Len(),
		"database_categories":     len(categories),
		"popular_queries":         stats,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func queryOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
