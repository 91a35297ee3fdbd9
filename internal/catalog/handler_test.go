package catalog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-on/billing/internal/pkg/validation"
)

func newTestRouter(repo *mockRepository) http.Handler {
	handler := NewHandler(NewService(repo), validation.New())

	r := chi.NewRouter()
	handler.RegisterPublicRoutes(r)
	handler.RegisterAdminRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHandler_ListCourses(t *testing.T) {
	router := newTestRouter(newMockRepository(fixtureCourses()...))

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"code": "Java-1", "type": "rent", "price": 2000},
		{"code": "Python-1", "type": "free"},
		{"code": "SQL-1", "type": "buy", "price": 25000}
	]`, rec.Body.String())
}

func TestHandler_GetCourse(t *testing.T) {
	router := newTestRouter(newMockRepository(fixtureCourses()...))

	rec, body := do(t, router, http.MethodGet, "/courses/SQL-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buy", body["type"])
	assert.InDelta(t, 25000.0, body["price"], 0.001)

	rec, body = do(t, router, http.MethodGet, "/courses/Nope-1", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, 401, body["code"])
	assert.Equal(t, MessageCourseNotFound, body["message"])
}

func TestHandler_CreateCourse(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
		wantMsg    string
	}{
		{
			name:       "created",
			body:       `{"type":"rent","title":"Go basics","code":"Go-1","price":150.5}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "rent without price",
			body:       `{"type":"rent","title":"Go basics","code":"Go-1"}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    MessagePriceRequired,
		},
		{
			name:       "duplicate code",
			body:       `{"type":"buy","title":"SQL again","code":"SQL-1","price":1}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "unique",
		},
		{
			name:       "short title",
			body:       `{"type":"free","title":"Go","code":"Go-1"}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "title",
		},
		{
			name:       "unknown type",
			body:       `{"type":"lease","title":"Go basics","code":"Go-1","price":1}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "type",
		},
		{
			name:       "negative price",
			body:       `{"type":"buy","title":"Go basics","code":"Go-1","price":-5}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "price",
		},
		{
			name:       "blank code",
			body:       `{"type":"free","title":"Go basics","code":""}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "code",
		},
		{
			name:       "whitespace code and title",
			body:       `{"type":"buy","title":"   ","code":"   ","price":10}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "code",
		},
		{
			name:       "whitespace title",
			body:       `{"type":"buy","title":"  Go  ","code":"Go-1","price":10}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "title",
		},
		{
			name:       "price beyond column precision",
			body:       `{"type":"buy","title":"Go basics","code":"Go-1","price":10000000000}`,
			wantStatus: http.StatusUnauthorized,
			wantField:  "price",
		},
		{
			name:       "surrounding spaces trimmed",
			body:       `{"type":"buy","title":" Go basics ","code":" Go-1 ","price":10}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository(fixtureCourses()...)
			router := newTestRouter(repo)

			rec, body := do(t, router, http.MethodPost, "/courses/", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			switch {
			case tt.wantStatus == http.StatusCreated:
				assert.Equal(t, true, body["success"])
				assert.Contains(t, repo.courses, "Go-1")
			case tt.wantField != "":
				errs, ok := body["errors"].(map[string]interface{})
				require.True(t, ok, "expected field errors, got %v", body)
				assert.Contains(t, errs, tt.wantField)
				assert.Len(t, repo.courses, 3)
			case tt.wantMsg != "":
				assert.Equal(t, tt.wantMsg, body["message"])
				assert.Len(t, repo.courses, 3)
			}
		})
	}
}

func TestHandler_UpdateCourse(t *testing.T) {
	repo := newMockRepository(fixtureCourses()...)
	router := newTestRouter(repo)

	rec, body := do(t, router, http.MethodPost, "/courses/Java-1", `{"type":"buy","title":"Java","code":"Java-1","price":4000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "buy", string(repo.courses["Java-1"].Tier))

	rec, body = do(t, router, http.MethodPost, "/courses/Nope-1", `{"type":`)
	require.Equal(t, http.StatusUnauthorized, rec.Code, "unknown course wins over a bad body")
	assert.Equal(t, MessageCourseNotFound, body["message"])

	rec, body = do(t, router, http.MethodPost, "/courses/Java-1", `{"type":"buy","title":"Java","code":"SQL-1","price":1}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]interface{}{"unique": MessageCodeExists}, body["errors"])
}
