package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ofriw/inspect-mcp/kit"
)

func TestKitContext(t *testing.T) {
	var gotTransport, gotReqID, gotAddr string
	inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotTransport = kit.GetTransport(r.Context())
		gotReqID = kit.GetRequestID(r.Context())
		gotAddr = kit.GetRemoteAddr(r.Context())
	})

	h := middleware.RequestID(kitContext(inner))
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotTransport != "http" {
		t.Fatalf("transport: %q", gotTransport)
	}
	if gotReqID == "" {
		t.Fatal("chi request id not propagated")
	}
	if gotAddr == "" {
		t.Fatal("remote addr not propagated")
	}
}
