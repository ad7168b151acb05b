package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/http/handlers"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/orchestrator"
	"studio/internal/poller"
	"studio/internal/providers/genai"
)

// backendStub counts calls to the generative backend and lets a test swap the
// response per call index.
type backendStub struct {
	mu      sync.Mutex
	calls   int
	handler func(call int, w http.ResponseWriter, r *http.Request)
}

func (s *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	s.handler(call, w, r)
}

func (s *backendStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func textBody(text string) string {
	part, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(part) + `}]}}]}`
}

const imageBody = `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`

func newTestAPI(t *testing.T, stub *backendStub) (*httptest.Server, *credentials.Static) {
	t.Helper()

	backend := httptest.NewServer(stub)
	t.Cleanup(backend.Close)

	creds := credentials.NewStatic("test-key")
	client, err := genai.NewClient(genai.Options{
		BaseURL:     backend.URL,
		Credentials: creds,
		HTTPClient:  backend.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	app := handlers.NewApp(
		zerolog.Nop(),
		client,
		poller.New(client, poller.Policy{Interval: time.Millisecond}),
		orchestrator.Batch{Window: 4, Logger: zerolog.Nop()},
		creds,
	)
	cfg := &infra.Config{AllowedOrigins: "http://localhost:3000", RateLimitPerMin: 1000}

	api := httptest.NewServer(NewRouter(app, cfg, nil))
	t.Cleanup(api.Close)
	return api, creds
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t, &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		t.Error("health must not reach the backend")
	}})

	resp, err := http.Get(api.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("status = %d body = %v", resp.StatusCode, body)
	}
}

func TestAnalyzeCachesByContentHash(t *testing.T) {
	stub := &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(textBody(`{"description":"Ceramic mug","usp":"Hand glazed","productCategory":"Homeware","targetGender":"Unisex"}`)))
	}}
	api, _ := newTestAPI(t, stub)

	payload := map[string]any{"image": map[string]string{"mime": "image/png", "data": "QUJD"}}
	for i := 0; i < 2; i++ {
		resp := postJSON(t, api.URL+"/v1/analyze", payload)
		var analysis map[string]string
		decodeBody(t, resp, &analysis)
		if resp.StatusCode != http.StatusOK || analysis["description"] != "Ceramic mug" {
			t.Fatalf("request %d: status = %d, analysis = %v", i, resp.StatusCode, analysis)
		}
	}
	if stub.count() != 1 {
		t.Fatalf("backend calls = %d, want 1 (second hit served from cache)", stub.count())
	}
}

func TestPhotosPartialFailure(t *testing.T) {
	stub := &backendStub{handler: func(call int, w http.ResponseWriter, r *http.Request) {
		if call == 2 {
			// A refusal: no inline image part in the reply.
			_, _ = w.Write([]byte(textBody("cannot generate that")))
			return
		}
		_, _ = w.Write([]byte(imageBody))
	}}
	api, _ := newTestAPI(t, stub)

	resp := postJSON(t, api.URL+"/v1/generate/photos", map[string]any{
		"product_name": "Aurora Sneakers",
		"image":        map[string]string{"mime": "image/png", "data": "QUJD"},
		"aspect_ratio": "9:16",
		"quantity":     4,
	})
	var body struct {
		RunID     string   `json:"run_id"`
		Artifacts []string `json:"artifacts"`
		Requested int      `json:"requested"`
		Failed    int      `json:"failed"`
	}
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.Requested != 4 || body.Failed != 1 || len(body.Artifacts) != 3 {
		t.Fatalf("body = %+v, want 3 of 4 artifacts", body)
	}
	if body.RunID == "" {
		t.Fatal("run id missing")
	}
	for _, uri := range body.Artifacts {
		if !strings.HasPrefix(uri, "data:image/png;base64,") {
			t.Fatalf("artifact = %q", uri)
		}
	}
}

func TestPhotosTotalFailure(t *testing.T) {
	stub := &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(textBody("cannot generate that")))
	}}
	api, _ := newTestAPI(t, stub)

	resp := postJSON(t, api.URL+"/v1/generate/photos", map[string]any{
		"image":    map[string]string{"mime": "image/png", "data": "QUJD"},
		"quantity": 3,
	})
	var body map[string]string
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusBadGateway || body["error"] != "all_failed" {
		t.Fatalf("status = %d body = %v, want 502 all_failed", resp.StatusCode, body)
	}
	if body["message"] == "" {
		t.Fatal("advisory message missing")
	}
}

func TestVideoEndToEnd(t *testing.T) {
	stub := &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "predictLongRunning") {
			_, _ = w.Write([]byte(`{"name":"operations/vid-1","done":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"operations/vid-1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://cdn.example.com/clip.mp4"}}]}}}`))
	}}
	api, _ := newTestAPI(t, stub)

	resp := postJSON(t, api.URL+"/v1/generate/video", map[string]any{
		"image":        map[string]string{"mime": "image/png", "data": "QUJD"},
		"motion":       "slow pan across the product",
		"aspect_ratio": "16:9",
	})
	var body map[string]string
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["video_uri"] != "https://cdn.example.com/clip.mp4" {
		t.Fatalf("status = %d body = %v", resp.StatusCode, body)
	}
}

func TestVideoCredentialErrorRequestsReselection(t *testing.T) {
	stub := &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	}}
	api, creds := newTestAPI(t, stub)

	resp := postJSON(t, api.URL+"/v1/generate/video", map[string]any{
		"image":  map[string]string{"mime": "image/png", "data": "QUJD"},
		"motion": "pan",
	})
	var body map[string]string
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusBadGateway || body["error"] != "credential" {
		t.Fatalf("status = %d body = %v, want 502 credential", resp.StatusCode, body)
	}
	if !creds.SelectionRequested() {
		t.Fatal("credential re-selection was not requested")
	}

	status, err := http.Get(api.URL + "/v1/credentials/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	var statusBody map[string]bool
	decodeBody(t, status, &statusBody)
	if !statusBody["selection_requested"] {
		t.Fatalf("credential status = %v, want selection_requested", statusBody)
	}
}

func TestStoryboardRunLifecycle(t *testing.T) {
	stub := &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "predictLongRunning") {
			_, _ = w.Write([]byte(`{"name":"operations/vid-2","done":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"operations/vid-2","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://cdn.example.com/scene.mp4"}}]}}}`))
	}}
	api, _ := newTestAPI(t, stub)

	resp := postJSON(t, api.URL+"/v1/storyboard/runs", map[string]any{
		"scenes": []map[string]any{
			{"id": "intro", "image": map[string]string{"data": "QUJD"}, "motion": "zoom in"},
			{"image": map[string]string{"data": "QUJD"}, "motion": "pan left"},
			{"id": "broken", "motion": "orbit"}, // no image, excluded
		},
		"aspect_ratio": "9:16",
	})
	var started struct {
		ID     string `json:"id"`
		Scenes []struct {
			SceneID string `json:"scene_id"`
		} `json:"scenes"`
	}
	decodeBody(t, resp, &started)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if started.ID == "" || len(started.Scenes) != 2 {
		t.Fatalf("run = %+v, want 2 eligible scenes", started)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := http.Get(api.URL + "/v1/storyboard/runs/" + started.ID)
		if err != nil {
			t.Fatalf("GET run: %v", err)
		}
		var snap struct {
			Done   bool `json:"done"`
			Scenes []struct {
				SceneID     string `json:"scene_id"`
				Status      string `json:"status"`
				ArtifactURI string `json:"artifact_uri"`
			} `json:"scenes"`
		}
		decodeBody(t, status, &snap)
		if snap.Done {
			for _, scene := range snap.Scenes {
				if scene.Status != "completed" || scene.ArtifactURI != "https://cdn.example.com/scene.mp4" {
					t.Fatalf("scene = %+v, want completed with artifact", scene)
				}
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("run never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStoryboardUnknownRun(t *testing.T) {
	api, _ := newTestAPI(t, &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {}})
	resp, err := http.Get(api.URL + "/v1/storyboard/runs/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCompositePromptIsLocal(t *testing.T) {
	api, _ := newTestAPI(t, &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		t.Error("prompt building must not reach the backend")
	}})

	resp := postJSON(t, api.URL+"/v1/prompts/composite", map[string]any{
		"product_name": "Glow Serum",
		"category":     "skincare",
	})
	var body map[string]string
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body["instruction"], "Glow Serum") {
		t.Fatalf("instruction = %q", body["instruction"])
	}
}

func TestSetCredentialWithoutStoreIsConflict(t *testing.T) {
	api, _ := newTestAPI(t, &backendStub{handler: func(_ int, w http.ResponseWriter, r *http.Request) {}})

	resp := postJSON(t, api.URL+"/v1/credentials/", map[string]string{"token": "new-key"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409 for env-provisioned credentials", resp.StatusCode)
	}
}
