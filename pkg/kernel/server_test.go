package kernel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprovo-labs/aahar/internal/adapters/duckdb"
	"github.com/suprovo-labs/aahar/internal/config"
	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
	"github.com/suprovo-labs/aahar/internal/core/services"
)

type fixedProvider struct {
	reply string
}

func (p *fixedProvider) GenerateText(context.Context, string) (string, error) {
	return p.reply, nil
}

type noopRetriever struct{}

func (noopRetriever) Retrieve(context.Context, string) (string, error) { return "", nil }

type noopEnsemble struct{}

func (noopEnsemble) DietSuggestions(context.Context, ports.EnsembleQuery) map[string]string {
	return map[string]string{}
}

type noopWeather struct{}

func (noopWeather) Current(context.Context, string) (*ports.Weather, error) { return nil, nil }

type fakeVectors struct{ count int }

func (f fakeVectors) Count() int { return f.count }

type fixture struct {
	handler  http.Handler
	secret   *config.SecretKey
	catalog  *services.Catalog
	sessions *services.SessionStore
	repo     *duckdb.Repository
}

func testRecords() []domain.NutritionRecord {
	return []domain.NutritionRecord{
		{
			Category: "Grains", DishName: "Cooked Rice (White)", Region: "All India",
			ServingSize: "1 cup", Calories: 205, Protein: 4.3, Carbs: 44.5,
			Fat: 0.4, Fiber: 0.6, Sodium: 1.6, Vitamins: "Manganese, Selenium",
		},
		{
			Category: "Breads", DishName: "Plain Roti", Region: "North Indian",
			ServingSize: "1 piece", Calories: 95, Protein: 3.1, Carbs: 18,
			Fat: 1.5, Fiber: 2.5, Sodium: 120, Vitamins: "Iron, B Vitamins",
		},
	}
}

func newFixture(t *testing.T, records []domain.NutritionRecord) *fixture {
	t.Helper()
	t.Setenv("AAHAR_SECRET_KEY", "server-test-secret")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	secret, err := config.NewSecretKey()
	require.NoError(t, err)

	repo, err := duckdb.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	catalog := services.NewCatalog(logger)
	if len(records) > 0 {
		catalog.Replace(records)
	}

	bus := services.NewEventBus(logger)
	sessions := services.NewSessionStore(logger, repo)
	analytics := services.NewAnalytics(logger, repo, bus)

	provider := &fixedProvider{reply: `{"thought": "greet", "final_answer": "Namaste! How can I help?"}`}
	tools := services.NewToolset(logger, catalog, noopRetriever{}, provider, noopEnsemble{}, noopWeather{}).Registry()
	engine := services.NewDecisionEngine(logger, provider)
	agent := services.NewAgentLoop(logger, engine, tools, sessions, analytics)
	analyzer := services.NewMealAnalyzer(logger, catalog, provider)

	cfg := &config.Config{Port: 10000, GeminiAPIKey: "test-gemini-key"}
	srv := NewServer(logger, cfg, secret, agent, catalog, analyzer, sessions, analytics, fakeVectors{count: 12})

	return &fixture{
		handler:  srv.Handler(),
		secret:   secret,
		catalog:  catalog,
		sessions: sessions,
		repo:     repo,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRootEndpoint(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	payload := decodeBody(t, rec)
	assert.Contains(t, payload["message"], "Indian Diet Recommendation API")
	assert.EqualValues(t, 2, payload["nutrition_database_records"])
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodPost, "/chat", `{"query": ""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The 'query' field cannot be empty.", decodeBody(t, rec)["detail"])
}

func TestChatAnswersAndSetsCookie(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodPost, "/chat", `{"query": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, "Namaste! How can I help?", payload["answer"])
	sessionID := payload["session_id"].(string)
	assert.True(t, strings.HasPrefix(sessionID, "session_"))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	verified, ok := f.secret.Verify(cookie.Value)
	require.True(t, ok)
	assert.Equal(t, sessionID, verified)

	turns := f.sessions.Turns(context.Background(), domain.SessionID(sessionID))
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
}

func TestChatContinuesSessionFromBody(t *testing.T) {
	f := newFixture(t, testRecords())

	first := decodeBody(t, f.do(t, http.MethodPost, "/chat", `{"query": "hello"}`))
	sessionID := first["session_id"].(string)

	second := decodeBody(t, f.do(t, http.MethodPost, "/chat",
		`{"query": "and more", "session_id": "`+sessionID+`"}`))
	assert.Equal(t, sessionID, second["session_id"])

	turns := f.sessions.Turns(context.Background(), domain.SessionID(sessionID))
	assert.Len(t, turns, 4)
}

func TestChatResumesSessionFromCookie(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodPost, "/chat", `{"query": "hello"}`)
	sessionID := decodeBody(t, rec)["session_id"].(string)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	second := decodeBody(t, f.do(t, http.MethodPost, "/chat", `{"query": "again"}`, cookie))
	assert.Equal(t, sessionID, second["session_id"])
}

func TestChatRejectsTamperedCookie(t *testing.T) {
	f := newFixture(t, testRecords())

	forged := &http.Cookie{
		Name:  sessionCookieName,
		Value: "session_forged.AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	}
	payload := decodeBody(t, f.do(t, http.MethodPost, "/chat", `{"query": "hello"}`, forged))
	assert.NotEqual(t, "session_forged", payload["session_id"])
}

func TestAnalyzeMeal(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodPost, "/analyze-meal",
		`{"dish_names": ["Cooked Rice (White)", "NotARealDish123"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	totals := payload["totals"].(map[string]any)
	assert.EqualValues(t, 205, totals["Calories (kcal)"])

	found := payload["found_dishes"].([]any)
	require.Len(t, found, 1)
	assert.Equal(t, "Cooked Rice (White)", found[0].(map[string]any)["Dish Name"])
	assert.Equal(t, []any{"NotARealDish123"}, payload["not_found_dishes"])
}

func TestAnalyzeMealRejectsEmptyList(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodPost, "/analyze-meal", `{"dish_names": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The 'dish_names' list cannot be empty.", decodeBody(t, rec)["detail"])
}

func TestNutritionSearch(t *testing.T) {
	f := newFixture(t, testRecords())

	payload := decodeBody(t, f.do(t, http.MethodGet, "/nutrition/search/roti", ""))
	assert.EqualValues(t, 1, payload["results_found"])

	payload = decodeBody(t, f.do(t, http.MethodGet, "/nutrition/search/nonexistent", ""))
	assert.EqualValues(t, 0, payload["results_found"])
	assert.Equal(t, []any{}, payload["results"])
}

func TestNutritionCategories(t *testing.T) {
	f := newFixture(t, testRecords())

	payload := decodeBody(t, f.do(t, http.MethodGet, "/nutrition/categories", ""))
	assert.EqualValues(t, 2, payload["total_categories"])
	assert.Equal(t, []any{"Breads", "Grains"}, payload["categories"])
}

func TestDishesByCategory(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodGet, "/nutrition/dishes-by-category?category=grains", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/nutrition/dishes-by-category", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/nutrition/dishes-by-category?category=Desserts", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Category 'Desserts' not found.", decodeBody(t, rec)["detail"])
}

func TestDishesByCategoryEmptyDatabase(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/nutrition/dishes-by-category?category=grains", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegionalFoods(t *testing.T) {
	f := newFixture(t, testRecords())

	payload := decodeBody(t, f.do(t, http.MethodGet, "/nutrition/regional/north%20indian", ""))
	assert.Equal(t, "any", payload["dietary_type"])
	assert.Equal(t, "diet", payload["goal"])
	assert.EqualValues(t, 1, payload["suggestions_found"])
}

func TestNutritionCompare(t *testing.T) {
	f := newFixture(t, testRecords())

	rec := f.do(t, http.MethodPost, "/nutrition/compare", `["only one"]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "At least 2 food items required for comparison", decodeBody(t, rec)["detail"])

	payload := decodeBody(t, f.do(t, http.MethodPost, "/nutrition/compare",
		`["Plain Roti", "NotARealDish123"]`))
	assert.EqualValues(t, 2, payload["items_compared"])

	comparison := payload["comparison"].([]any)
	require.Len(t, comparison, 2)
	first := comparison[0].(map[string]any)
	assert.Equal(t, "Plain Roti", first["Dish Name"])
	assert.Nil(t, first["error"])
	second := comparison[1].(map[string]any)
	assert.Equal(t, "Not found in database", second["error"])
}

func TestNutritionUpload(t *testing.T) {
	f := newFixture(t, testRecords())

	// Broken outer JSON is a client error.
	rec := f.do(t, http.MethodPost, "/nutrition/upload", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON format", decodeBody(t, rec)["detail"])

	// Parseable content with the wrong shape reports an error status.
	rec = f.do(t, http.MethodPost, "/nutrition/upload", `{"file_content": "[{\"foo\": 1}]"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])

	valid := `[{"Dish Name": "Upma", "Category": "Breakfast", "Calories (kcal)": 192, "Protein (g)": 4.5}]`
	body, err := json.Marshal(map[string]string{"file_content": valid})
	require.NoError(t, err)

	rec = f.do(t, http.MethodPost, "/nutrition/upload", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "success", payload["status"])
	assert.EqualValues(t, 1, payload["records_loaded"])
	assert.Equal(t, 1, f.catalog.Len())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, testRecords())

	payload := decodeBody(t, f.do(t, http.MethodGet, "/health", ""))
	assert.Equal(t, "healthy", payload["status"])

	components := payload["components"].(map[string]any)
	assert.Equal(t, true, components["nutrition_database"])
	assert.Equal(t, true, components["llm_gemini"])
	assert.Equal(t, false, components["groq_api"])
	assert.Equal(t, false, components["weather_api"])

	// Session stats distinguish cached sessions from everything persisted.
	f.do(t, http.MethodPost, "/chat", `{"query": "hello"}`)
	payload = decodeBody(t, f.do(t, http.MethodGet, "/health", ""))
	stats := payload["database_stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["active_sessions"])
	assert.EqualValues(t, 1, stats["total_sessions"])
}

func TestHealthDegradedWithoutNutritionData(t *testing.T) {
	f := newFixture(t, nil)

	payload := decodeBody(t, f.do(t, http.MethodGet, "/health", ""))
	assert.Equal(t, "degraded", payload["status"])
}

func TestPopularQueries(t *testing.T) {
	f := newFixture(t, testRecords())

	ctx := context.Background()
	require.NoError(t, f.repo.BumpQueryStat(ctx, "recipe", 3))
	require.NoError(t, f.repo.BumpQueryStat(ctx, "diet_plan", 1))

	payload := decodeBody(t, f.do(t, http.MethodGet, "/analytics/popular-queries", ""))
	assert.EqualValues(t, 2, payload["total_nutrition_records"])
	assert.EqualValues(t, 2, payload["database_categories"])

	stats := payload["popular_queries"].([]any)
	require.Len(t, stats, 2)
	top := stats[0].(map[string]any)
	assert.Equal(t, "recipe", top["category"])
	assert.EqualValues(t, 3, top["count"])
}
