package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_MintsAnonCookie(t *testing.T) {
	var gotVisitor, gotTab string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVisitor = VisitorIDFromContext(r.Context())
		gotTab = TabIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/claim", nil)
	Middleware(true)(next).ServeHTTP(rec, req)

	if !isValidAnonID(gotVisitor) {
		t.Errorf("visitor id %q does not match the anon id format", gotVisitor)
	}
	if gotTab != DefaultTabIDValue {
		t.Errorf("tab id = %q, want %q", gotTab, DefaultTabIDValue)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == AnonCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no anon cookie set")
	}
	if cookie.Value != gotVisitor {
		t.Errorf("cookie value = %q, want %q", cookie.Value, gotVisitor)
	}
	if !cookie.HttpOnly {
		t.Error("anon cookie must be HttpOnly")
	}
	if cookie.Secure {
		t.Error("dev-mode cookie must not require https")
	}
}

func TestMiddleware_KeepsExistingIdentity(t *testing.T) {
	var gotVisitor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVisitor = VisitorIDFromContext(r.Context())
	})
	handler := Middleware(false)(next)

	const id = "anon_0123456789abcdef0123456789abcdef"
	req := httptest.NewRequest(http.MethodGet, "/api/claim", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: id})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotVisitor != id {
		t.Errorf("visitor id = %q, want cookie value %q", gotVisitor, id)
	}
}

func TestMiddleware_RejectsForgedCookie(t *testing.T) {
	var gotVisitor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVisitor = VisitorIDFromContext(r.Context())
	})
	handler := Middleware(false)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/claim", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "anon_not-hex"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotVisitor == "anon_not-hex" {
		t.Error("forged cookie value passed through unreplaced")
	}
	if !isValidAnonID(gotVisitor) {
		t.Errorf("replacement id %q does not match the anon id format", gotVisitor)
	}
}

func TestTabIDFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"header wins", "tab-a", "tab-b", "tab-a"},
		{"query fallback", "", "tab-b", "tab-b"},
		{"neither", "", "", DefaultTabIDValue},
		{"invalid characters", "tab id with spaces", "", DefaultTabIDValue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			url := "/ws/claim"
			if tc.query != "" {
				url += "?tab=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tc.header != "" {
				req.Header.Set(TabHeaderName, tc.header)
			}
			if got := tabIDFromRequest(req); got != tc.want {
				t.Errorf("tabIDFromRequest = %q, want %q", got, tc.want)
			}
		})
	}
}
