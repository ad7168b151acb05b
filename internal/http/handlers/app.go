package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/orchestrator"
	"studio/internal/poller"
	"studio/internal/providers/genai"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Logger      infra.Logger
	Gen         *genai.Client
	Poller      *poller.Poller
	Batch       orchestrator.Batch
	Registry    *orchestrator.Registry
	Credentials credentials.Source
	// CredentialAdmin is set when the credential source is database backed
	// and can accept a new token over the API; nil otherwise.
	CredentialAdmin *credentials.Store

	analyses *cache.Cache
}

// NewApp wires the handler container. Product analyses are cached briefly so
// re-analyzing the same upload does not burn backend calls.
func NewApp(logger infra.Logger, gen *genai.Client, p *poller.Poller, batch orchestrator.Batch, creds credentials.Source) *App {
	return &App{
		Logger:      logger,
		Gen:         gen,
		Poller:      p,
		Batch:       batch,
		Registry:    orchestrator.NewRegistry(),
		Credentials: creds,
		analyses:    cache.New(10*time.Minute, 30*time.Minute),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// imagePayload is how the browser ships an upload: base64 bytes (optionally
// a data URI) plus the role the image plays in the instruction.
type imagePayload struct {
	Role string `json:"role,omitempty"`
	MIME string `json:"mime,omitempty"`
	Data string `json:"data"`
}

func (p imagePayload) decode() (domain.TaggedImage, error) {
	raw := strings.TrimSpace(p.Data)
	mime := p.MIME
	if strings.HasPrefix(raw, "data:") {
		rest := strings.TrimPrefix(raw, "data:")
		semi := strings.Index(rest, ";base64,")
		if semi < 0 {
			return domain.TaggedImage{}, fmt.Errorf("unsupported data uri")
		}
		if mime == "" {
			mime = rest[:semi]
		}
		raw = rest[semi+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return domain.TaggedImage{}, fmt.Errorf("decode image: %w", err)
	}
	if len(data) == 0 {
		return domain.TaggedImage{}, fmt.Errorf("empty image")
	}
	role := domain.ImageRole(p.Role)
	if role == "" {
		role = domain.ImageRoleProduct
	}
	return domain.TaggedImage{Role: role, MIME: mime, Data: data}, nil
}
