package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"
)

func apiService(catalog *mockCatalog) *service.Service {
	return &service.Service{Authorization: &mockAuth{parseID: 9}, Catalog: catalog}
}

func apiGet(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header = authHeader("tok")
	h.ServeHTTP(w, req)
	return w
}

func TestListProducts(t *testing.T) {
	catalog := &mockCatalog{
		available: []models.Product{{ID: 1, Name: "Widget", Available: true}},
		owned:     []models.Product{{ID: 2, Name: "Lamp"}, {ID: 3, Name: "Desk"}},
	}
	r := newTestRouter(apiService(catalog))

	cases := []struct {
		path      string
		wantCode  int
		wantCount int
	}{
		{"/api/v1/products", http.StatusOK, 1},
		{"/api/v1/products?status=available", http.StatusOK, 1},
		{"/api/v1/products?status=owned", http.StatusOK, 2},
		{"/api/v1/products?status=sold", http.StatusBadRequest, 0},
	}
	for _, tc := range cases {
		w := apiGet(r, tc.path)
		if w.Code != tc.wantCode {
			t.Fatalf("%s: status=%d want %d", tc.path, w.Code, tc.wantCode)
		}
		if tc.wantCode != http.StatusOK {
			continue
		}
		var resp struct {
			Count    int              `json:"count"`
			Products []models.Product `json:"products"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Count != tc.wantCount || len(resp.Products) != tc.wantCount {
			t.Fatalf("%s: count=%d len=%d want %d", tc.path, resp.Count, len(resp.Products), tc.wantCount)
		}
	}
	if catalog.lastOwnedUser != 9 {
		t.Fatalf("ListOwned user=%d, want 9", catalog.lastOwnedUser)
	}
}

func TestListProducts_RequiresToken(t *testing.T) {
	r := newTestRouter(apiService(&mockCatalog{}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}
}

func TestCreateProduct(t *testing.T) {
	catalog := &mockCatalog{added: models.Product{ID: 4, Name: "Widget", Price: 0, Available: true}}
	r := newTestRouter(apiService(catalog))

	w := postJSON(t, r, "/api/v1/products", `{"name":"Widget","price":0}`, authHeader("tok"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if catalog.lastAddUser != 9 || catalog.lastAdd.Name != "Widget" || catalog.lastAdd.Price != 0 {
		t.Fatalf("AddProduct got %+v by %d", catalog.lastAdd, catalog.lastAddUser)
	}

	for _, body := range []string{`{"name":"Widget"}`, `{"price":1}`, `{"name":"Widget","price":-1}`} {
		w = postJSON(t, r, "/api/v1/products", body, authHeader("tok"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d, want 400", body, w.Code)
		}
	}
}

func TestBuyReturnAPI_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"buy ok", "/api/v1/products/1/buy", nil, http.StatusOK},
		{"return ok", "/api/v1/products/1/return", nil, http.StatusOK},
		{"bad id", "/api/v1/products/x/buy", nil, http.StatusBadRequest},
		{"not found", "/api/v1/products/1/buy", service.ErrProductNotFound, http.StatusNotFound},
		{"unavailable", "/api/v1/products/1/buy", service.ErrProductUnavailable, http.StatusConflict},
		{"not owner", "/api/v1/products/1/return", service.ErrNotOwner, http.StatusForbidden},
		{"storage", "/api/v1/products/1/return", errors.New("io"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := &mockCatalog{toggled: models.Product{ID: 1, Name: "Widget"}, toggleErr: tc.err}
			r := newTestRouter(apiService(catalog))
			w := postJSON(t, r, tc.path, "", authHeader("tok"))
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	asOf := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	catalog := &mockCatalog{summary: models.CatalogSummary{Available: 2, Owned: 1, Total: 3, AsOf: asOf}}
	w := apiGet(newTestRouter(apiService(catalog)), "/api/v1/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got models.CatalogSummary
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Total != 3 || got.Available != 2 || !got.AsOf.Equal(asOf) {
		t.Fatalf("unexpected summary: %+v", got)
	}

	catalog.sumErr = errors.New("db")
	w = apiGet(newTestRouter(apiService(catalog)), "/api/v1/summary")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", w.Code)
	}
}
