package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"procurement-hub/internal/middleware"
	"procurement-hub/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

type rejectAll struct{}

func (rejectAll) Verify(context.Context, string) (auth.Claims, error) {
	return auth.Claims{}, errors.New("nope")
}

func newWidgetAPI(t *testing.T, verifier auth.AuthVerifier) *httptest.Server {
	t.Helper()
	svc, _, _ := newWidgetService()
	r := chi.NewRouter()
	r.Use(middleware.AuthContext(verifier))
	Register(r, svc, nil, func(rr chi.Router) {
		rr.Get("/count", func(w http.ResponseWriter, r *http.Request) {
			all, _ := svc.All(r.Context())
			WriteJSON(w, http.StatusOK, map[string]int{"count": len(all)})
		})
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, base, method, path string, actor Actor, body any) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, base+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != 0 {
		req.Header.Set("X-Debug-User-ID", strconv.FormatInt(actor.ID, 10))
		req.Header.Set("X-Debug-Role", string(actor.Role))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestHandler_CRUDEnvelopes(t *testing.T) {
	ts := newWidgetAPI(t, nil)

	st, body := call(t, ts.URL, "POST", "/widgets", alice, map[string]any{"name": "Bolt", "quantity": 2, "unitPrice": 3, "id": 77})
	if st != http.StatusCreated {
		t.Fatalf("create: %d %v", st, body)
	}
	if body["message"] != "Widget created" {
		t.Fatalf("create message: %v", body["message"])
	}
	w, ok := body["widget"].(map[string]any)
	if !ok || w["id"].(float64) != 1 || w["status"] != "draft" || w["totalValue"].(float64) != 6 {
		t.Fatalf("create envelope: %v", body)
	}

	st, body = call(t, ts.URL, "PATCH", "/widgets/1", alice, map[string]any{"quantity": 4})
	if st != http.StatusOK || body["message"] != "Widget updated" {
		t.Fatalf("update: %d %v", st, body)
	}

	st, body = call(t, ts.URL, "POST", "/widgets/1/submit", alice, nil)
	if st != http.StatusOK || body["message"] != "Widget pending" {
		t.Fatalf("submit: %d %v", st, body)
	}

	st, body = call(t, ts.URL, "POST", "/widgets/1/reject", manager, map[string]any{"reason": "price"})
	if st != http.StatusOK || body["widget"].(map[string]any)["reason"] != "price" {
		t.Fatalf("reject: %d %v", st, body)
	}

	st, body = call(t, ts.URL, "POST", "/widgets/1/approve", manager, nil)
	if st != http.StatusBadRequest {
		t.Fatalf("approve rejected widget: expected 400, got %d %v", st, body)
	}

	st, body = call(t, ts.URL, "GET", "/widgets?status=rejected", Actor{}, nil)
	if st != http.StatusOK || body["total"].(float64) != 1 {
		t.Fatalf("list: %d %v", st, body)
	}

	st, body = call(t, ts.URL, "GET", "/widgets/count", Actor{}, nil)
	if st != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("extra route must win over /{id}: %d %v", st, body)
	}

	st, body = call(t, ts.URL, "DELETE", "/widgets/1", alice, nil)
	if st != http.StatusOK || body["message"] != "Widget deleted" {
		t.Fatalf("delete: %d %v", st, body)
	}
}

func TestHandler_Errors(t *testing.T) {
	ts := newWidgetAPI(t, nil)
	call(t, ts.URL, "POST", "/widgets", alice, map[string]any{"name": "Bolt"})

	cases := []struct {
		name   string
		method string
		path   string
		actor  Actor
		body   any
		want   int
	}{
		{"create anonymous", "POST", "/widgets", Actor{}, map[string]any{"name": "x"}, http.StatusUnauthorized},
		{"create invalid", "POST", "/widgets", bob, map[string]any{"quantity": -1}, http.StatusBadRequest},
		{"bad id", "GET", "/widgets/abc", Actor{}, nil, http.StatusBadRequest},
		{"missing", "GET", "/widgets/99", Actor{}, nil, http.StatusNotFound},
		{"bad limit", "GET", "/widgets?limit=500", Actor{}, nil, http.StatusBadRequest},
		{"stranger update", "PATCH", "/widgets/1", bob, map[string]any{"quantity": 1}, http.StatusForbidden},
		{"internal action not routed", "POST", "/widgets/1/archive", admin, nil, http.StatusNotFound},
		{"transition anonymous", "POST", "/widgets/1/submit", Actor{}, nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, body := call(t, ts.URL, tc.method, tc.path, tc.actor, tc.body)
			if st != tc.want {
				t.Fatalf("expected %d, got %d %v", tc.want, st, body)
			}
			if msg, _ := body["message"].(string); st != http.StatusNotFound && msg == "" {
				t.Fatalf("error body must carry a message: %v", body)
			}
		})
	}
}

func TestHandler_RejectedTokenIsForbidden(t *testing.T) {
	ts := newWidgetAPI(t, rejectAll{})

	req, _ := http.NewRequest("POST", ts.URL+"/widgets", bytes.NewReader([]byte(`{"name":"x"}`)))
	req.Header.Set("Authorization", "Bearer garbage")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("rejected token: expected 403, got %d", res.StatusCode)
	}

	// sin token: 401
	res, err = http.Post(ts.URL+"/widgets", "application/json", bytes.NewReader([]byte(`{"name":"x"}`)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", res.StatusCode)
	}
}
