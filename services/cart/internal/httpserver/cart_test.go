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
	"github.com/Skotchmaster/shopfront/pkg/productclient"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
	"github.com/Skotchmaster/shopfront/services/cart/internal/models"
	"github.com/Skotchmaster/shopfront/services/cart/internal/repo"
	"github.com/Skotchmaster/shopfront/services/cart/internal/service"
)

type testServer struct {
	e       *echo.Echo
	tok     *tokens.Service
	product string
}

// newTestServer wires the cart against a stub product service that knows a
// single product.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	product := uuid.NewString()
	products := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/") != product {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		_ = json.NewEncoder(w).Encode(productclient.Product{ID: product, Name: "Tea", Price: 2.5, Image: "tea.png"})
	}))
	t.Cleanup(products.Close)

	tok, err := tokens.NewService([]byte("test-jwt-secret"))
	require.NoError(t, err)

	svc := &service.CartService{
		Repo:        repo.NewGormRepo(dbtest.New(t, &models.CartItem{})),
		Products:    productclient.NewClient(products.URL, time.Second),
		CallTimeout: 5 * time.Second,
	}
	e := server.New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	Register(e, &Deps{
		CartHandler: &CartHTTP{Svc: svc},
		Session:     middleware.NewSessionAuth(tok, time.Second),
		Ready:       svc.Ready,
	})
	return &testServer{e: e, tok: tok, product: product}
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	tk, _, err := s.tok.IssueAccessToken(context.Background(), uuid.NewString())
	require.NoError(t, err)
	return tk
}

func (s *testServer) do(method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestCart_RequiresBearer(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodPost, "/"},
		{http.MethodDelete, "/"},
		{http.MethodPut, "/" + s.product},
		{http.MethodDelete, "/" + s.product},
	}
	for _, tt := range tests {
		rec, _ := s.do(tt.method, tt.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tt.method+" "+tt.path)
	}
}

func TestCart_Lifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	bearer := s.token(t)

	rec, body := s.do(http.MethodGet, "/", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["items"])

	rec, body = s.do(http.MethodPost, "/", `{"productId":"`+s.product+`","quantity":2}`, bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	items := body["items"].([]any)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	assert.EqualValues(t, 2, line["quantity"])
	assert.Equal(t, "Tea", line["product"].(map[string]any)["name"])
	assert.EqualValues(t, 5, body["subtotal"])

	rec, body = s.do(http.MethodPut, "/"+s.product, `{"quantity":4}`, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, body["totalItems"])

	rec, _ = s.do(http.MethodDelete, "/"+s.product, "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(http.MethodDelete, "/"+s.product, "", bearer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item not found in cart", body["message"])

	rec, body = s.do(http.MethodDelete, "/", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["items"])
}

func TestCart_AddErrors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	bearer := s.token(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{name: "unknown product", body: `{"productId":"` + uuid.NewString() + `","quantity":1}`, wantCode: http.StatusNotFound, wantMsg: "Product not found"},
		{name: "zero quantity", body: `{"productId":"` + s.product + `","quantity":0}`, wantCode: http.StatusBadRequest, wantMsg: "quantity is required"},
		{name: "bad product id", body: `{"productId":"abc","quantity":1}`, wantCode: http.StatusBadRequest, wantMsg: "productId must be a valid id"},
		{name: "malformed json", body: `{"productId":`, wantCode: http.StatusBadRequest, wantMsg: "invalid body"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, body := s.do(http.MethodPost, "/", tt.body, bearer)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestCart_UpdateMissingItem(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec, body := s.do(http.MethodPut, "/"+s.product, `{"quantity":1}`, s.token(t))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item not found in cart", body["message"])
}
