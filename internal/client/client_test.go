package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterStoresToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req["email"] != "jane@example.com" {
			t.Fatalf("unexpected email: %s", req["email"])
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "abc123"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	if err := c.Register("Jane", "jane@example.com", "hunter42"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.Token != "abc123" {
		t.Fatalf("unexpected token: %s", c.Token)
	}
	if !c.IsAuthenticated() {
		t.Fatal("expected authenticated client")
	}
}

func TestTokenHeaderAttached(t *testing.T) {
	var gotHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(TokenHeader)
		json.NewEncoder(w).Encode([]any{})
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.Token = "tok"
	if _, err := c.ListPosts(); err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if gotHeader != "tok" {
		t.Fatalf("expected token header, got %q", gotHeader)
	}
}

func TestDuplicateRegisterIsErrAlreadyRegistered(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"field": "email", "msg": "user already exists"}},
		})
	}))
	defer ts.Close()

	c := New(ts.URL)
	err := c.Register("Jane", "jane@example.com", "hunter42")
	if err == nil {
		t.Fatal("expected error")
	}
	if err != ErrAlreadyRegistered {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}
