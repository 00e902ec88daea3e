package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerate_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []candidate{{Content: content{Parts: []part{
				{Text: "Cash flow is "},
				{Text: "money in motion."},
			}}}},
		})
	}))
	defer srv.Close()

	c := NewWithBaseURL("test-key", "", srv.URL)
	got, err := c.Generate(context.Background(), "What is cash flow?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "Cash flow is money in motion." {
		t.Errorf("parts should be concatenated, got %q", got)
	}
	if gotPath != "/v1beta/models/"+DefaultModel+":generateContent" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("missing API key header, got %q", gotKey)
	}
	if gotReq.GenerationConfig.Temperature != temperature ||
		gotReq.GenerationConfig.TopP != topP ||
		gotReq.GenerationConfig.MaxOutputTokens != maxOutputTokens {
		t.Errorf("generation config not fixed: %+v", gotReq.GenerationConfig)
	}
}

func TestGenerate_QuotaErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", "", srv.URL)
	_, err := c.Generate(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error must carry the HTTP status for quota classification: %v", err)
	}
	if !strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		t.Errorf("error should include the upstream status text: %v", err)
	}
}

func TestGenerate_ServerErrorNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream blew up"))
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", "", srv.URL)
	_, err := c.Generate(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 500") || !strings.Contains(err.Error(), "upstream blew up") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", "", srv.URL)
	if _, err := c.Generate(context.Background(), "q"); err == nil {
		t.Fatal("empty candidates should be an error")
	}
}
