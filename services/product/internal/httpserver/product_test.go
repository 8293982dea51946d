package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopfront/pkg/db/dbtest"
	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
	"github.com/Skotchmaster/shopfront/services/product/internal/models"
	"github.com/Skotchmaster/shopfront/services/product/internal/repo"
	"github.com/Skotchmaster/shopfront/services/product/internal/service"
)

type testServer struct {
	e      *echo.Echo
	bearer string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tok, err := tokens.NewService([]byte("test-jwt-secret"))
	require.NoError(t, err)
	bearer, _, err := tok.IssueAccessToken(context.Background(), uuid.NewString())
	require.NoError(t, err)

	svc := &service.ProductService{
		Repo:        repo.NewGormRepo(dbtest.New(t, &models.Product{})),
		CallTimeout: 5 * time.Second,
	}
	e := server.New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	Register(e, &Deps{
		ProductHandler: &ProductHTTP{Svc: svc},
		Session:        middleware.NewSessionAuth(tok, time.Second),
		Ready:          svc.Ready,
	})
	return &testServer{e: e, bearer: bearer}
}

func (s *testServer) do(method, path, body string, auth bool) (*httptest.ResponseRecorder, map[string]any) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *testServer) create(t *testing.T, body string) string {
	t.Helper()
	rec, out := s.do(http.MethodPost, "/", body, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return out["id"].(string)
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec, _ := s.do(http.MethodPost, "/", `{"name":"Mug","price":3}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := s.do(http.MethodPost, "/", `{"name":"Mug","price":-3}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price must be at least 0", body["message"])

	rec, body = s.do(http.MethodPost, "/", `{"name":"Mug","description":"ceramic","price":3,"category":"kitchen","stock":5,"image":"mug.png"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Mug", body["name"])
	assert.EqualValues(t, 5, body["stock"])
	assert.NotEmpty(t, body["id"])
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	id := s.create(t, `{"name":"Mug","price":3}`)

	rec, body := s.do(http.MethodGet, "/"+id, "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["id"])
	assert.EqualValues(t, 3, body["price"])

	rec, body = s.do(http.MethodGet, "/"+uuid.NewString(), "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", body["message"])

	rec, _ = s.do(http.MethodGet, "/42", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProducts(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		s.create(t, `{"name":"Mug","price":3}`)
	}

	rec, body := s.do(http.MethodGet, "/?page=2&size=2", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 3, meta["total"])
	assert.EqualValues(t, 2, meta["total_pages"])
	assert.Equal(t, true, meta["has_prev"])
	assert.Equal(t, false, meta["has_next"])
}

func TestSearchProducts(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.create(t, `{"name":"Green tea","price":2}`)
	s.create(t, `{"name":"Mug","price":3}`)

	rec, body := s.do(http.MethodGet, "/search?q=tea", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Green tea", data[0].(map[string]any)["name"])

	rec, body = s.do(http.MethodGet, "/search", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "query is required", body["message"])
}

func TestPatchAndDeleteProduct(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	id := s.create(t, `{"name":"Mug","price":3}`)

	rec, body := s.do(http.MethodPatch, "/"+id, `{"stock":9}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 9, body["stock"])
	assert.Equal(t, "Mug", body["name"])

	rec, _ = s.do(http.MethodDelete, "/"+id, "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/"+id, "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(http.MethodGet, "/"+id, "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
