package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"studio/internal/domain"
)

type rotatingSource struct {
	mu     sync.Mutex
	tokens []string
}

func (s *rotatingSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) == 0 {
		return "", nil
	}
	token := s.tokens[0]
	if len(s.tokens) > 1 {
		s.tokens = s.tokens[1:]
	}
	return token, nil
}

func (s *rotatingSource) Ready(ctx context.Context) bool           { return true }
func (s *rotatingSource) RequestSelection(ctx context.Context) error { return nil }

func textResponse(text string) string {
	resp := geminiGenerateContentResponse{
		Candidates: []geminiCandidate{{
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		}},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Options{
		BaseURL:     server.URL,
		Credentials: &rotatingSource{tokens: []string{"key-1"}},
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestAnalyzeProductUnparsableFallsBack(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(textResponse("sorry, I cannot help with that")))
	})

	got, err := client.AnalyzeProduct(context.Background(), domain.TaggedImage{Data: []byte{1}})
	if err != nil {
		t.Fatalf("AnalyzeProduct: %v", err)
	}
	want := domain.ProductAnalysis{
		Description:     "Analysis failed",
		USP:             "High Quality",
		ProductCategory: "General",
		TargetGender:    "Unisex",
	}
	if got != want {
		t.Fatalf("fallback = %+v, want %+v", got, want)
	}
}

func TestAnalyzeProductParsesFencedJSON(t *testing.T) {
	payload := "```json\n{\"description\":\"Handmade ceramic mug\",\"usp\":\"Artisan glaze\",\"productCategory\":\"Homeware\",\"targetGender\":\"Unisex\"}\n```"
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(textResponse(payload)))
	})

	got, err := client.AnalyzeProduct(context.Background(), domain.TaggedImage{Data: []byte{1}})
	if err != nil {
		t.Fatalf("AnalyzeProduct: %v", err)
	}
	if got.Description != "Handmade ceramic mug" || got.ProductCategory != "Homeware" {
		t.Fatalf("parsed analysis = %+v", got)
	}
}

func TestGenerateConceptsUnparsableReturnsEmptyList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(textResponse("no json here")))
	})

	concepts, err := client.GenerateConcepts(context.Background(), ConceptRequest{ProductDescription: "mug"})
	if err != nil {
		t.Fatalf("GenerateConcepts: %v", err)
	}
	if len(concepts) != 0 {
		t.Fatalf("expected empty list, got %d concepts", len(concepts))
	}
}

func TestGenerateImageReturnsDataURI(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := geminiGenerateContentResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{
					{Text: "here is your image"},
					{InlineData: &geminiInlineData{MimeType: "image/png", Data: "QUJD"}},
				}},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	uri, err := client.GenerateImage(context.Background(), domain.GenerationRequest{
		Instruction: "studio shot",
		AspectRatio: domain.AspectSquare,
	})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if uri != "data:image/png;base64,QUJD" {
		t.Fatalf("uri = %q", uri)
	}
}

func TestGenerateImageNoArtifactIsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(textResponse("I refuse")))
	})

	_, err := client.GenerateImage(context.Background(), domain.GenerationRequest{Instruction: "x"})
	if !errors.Is(err, domain.ErrNoArtifact) {
		t.Fatalf("err = %v, want ErrNoArtifact", err)
	}
}

func TestCredentialAcquiredPerCall(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("x-goog-api-key"))
		mu.Unlock()
		_, _ = w.Write([]byte(textResponse("{}")))
	}))
	defer server.Close()

	client, err := NewClient(Options{
		BaseURL:     server.URL,
		Credentials: &rotatingSource{tokens: []string{"first", "second"}},
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, _ = client.AnalyzeProduct(context.Background(), domain.TaggedImage{Data: []byte{1}})
	_, _ = client.AnalyzeProduct(context.Background(), domain.TaggedImage{Data: []byte{1}})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Fatalf("keys = %v, want rotation honored per call", seen)
	}
}

func TestIsCredentialError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
	})

	_, err := client.GenerateImage(context.Background(), domain.GenerationRequest{Instruction: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsCredentialError(err) {
		t.Fatalf("err %v not recognized as credential-class", err)
	}
	if IsCredentialError(errors.New("Requested entity was not found.")) {
		t.Fatal("plain errors must not match the credential signature")
	}
}

func TestStartVideoAndFetchOperation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "predictLongRunning") {
			_, _ = w.Write([]byte(`{"name":"operations/abc","done":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"operations/abc","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://cdn.example.com/v.mp4"}}]}}}`))
	})

	op, err := client.StartVideo(context.Background(), domain.GenerationRequest{
		Instruction: "pan across",
		Images:      []domain.TaggedImage{{MIME: "image/png", Data: []byte{1, 2}}},
		AspectRatio: domain.AspectLandscape,
	})
	if err != nil {
		t.Fatalf("StartVideo: %v", err)
	}
	if op.Name != "operations/abc" || op.Done {
		t.Fatalf("handle = %+v", op)
	}

	fetched, err := client.FetchOperation(context.Background(), op.Name)
	if err != nil {
		t.Fatalf("FetchOperation: %v", err)
	}
	if !fetched.Done || fetched.VideoURI() != "https://cdn.example.com/v.mp4" {
		t.Fatalf("fetched = %+v", fetched)
	}
}
