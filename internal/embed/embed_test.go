package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		flag    string
		wantErr bool
		model   string
	}{
		{"ollama/nomic-embed-text", false, "nomic-embed-text"},
		{"ollama/sentence-transformers/all-MiniLM-L6-v2", false, "sentence-transformers/all-MiniLM-L6-v2"},
		{"", true, ""},
		{"noslash", true, ""},
		{"/model", true, ""},
		{"ollama/", true, ""},
		{"bogus/model", true, ""},
	}

	for _, tt := range tests {
		cfg, err := ParseFlag(tt.flag)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFlag(%q) expected error", tt.flag)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFlag(%q) error: %v", tt.flag, err)
			continue
		}
		if cfg.Model != tt.model {
			t.Errorf("ParseFlag(%q).Model = %q, want %q", tt.flag, cfg.Model, tt.model)
		}
	}
}

func TestClient_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		resp := embedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{1, 0, float32(i)}, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client, err := NewClient(&Config{
		Provider: "test", Model: "test-model", Endpoint: srv.URL,
		MaxRetries: 1, TimeoutSecs: 5,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	vecs, err := client.EmbedBatch(context.Background(), []string{"cat", "", "dog"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	if vecs[1] != nil {
		t.Error("empty text should yield nil vector")
	}
	if len(vecs[0]) != 3 || len(vecs[2]) != 3 {
		t.Errorf("unexpected vector sizes: %d, %d", len(vecs[0]), len(vecs[2]))
	}
	if client.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", client.Dimensions())
	}
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(&Config{
		Provider: "test", Model: "missing", Endpoint: srv.URL,
		MaxRetries: 0, TimeoutSecs: 5,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Embed(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"empty", nil, []float32{1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}
