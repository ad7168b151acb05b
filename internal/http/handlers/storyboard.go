package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/orchestrator"
	"studio/internal/prompt"
)

type scenePayload struct {
	ID     string       `json:"id"`
	Image  imagePayload `json:"image"`
	Motion string       `json:"motion"`
}

type storyboardRequest struct {
	Scenes      []scenePayload       `json:"scenes"`
	AspectRatio string               `json:"aspect_ratio"`
	Brand       *domain.BrandProfile `json:"brand,omitempty"`
}

// StoryboardStart kicks off one video generation job per eligible scene and
// returns a run handle the UI polls. Scenes without an image or motion text
// are excluded up front and never appear in the run.
func (a *App) StoryboardStart(w http.ResponseWriter, r *http.Request) {
	var req storyboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Scenes) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "scenes required")
		return
	}

	scenes := make([]domain.Scene, 0, len(req.Scenes))
	for i, payload := range req.Scenes {
		img, err := payload.Image.decode()
		if err != nil {
			img = domain.TaggedImage{}
		}
		id := payload.ID
		if id == "" {
			id = defaultSceneID(i)
		}
		scene := domain.Scene{ID: id, Image: img, Motion: payload.Motion}
		if scene.Eligible() {
			scenes = append(scenes, scene)
		}
	}
	if len(scenes) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "no scene has both an image and motion text")
		return
	}

	aspect := domain.ParseStudioAspect(req.AspectRatio)
	locale := middleware.LocaleFromContext(r.Context())
	runID := a.Registry.Create(scenes)

	sceneRunner := orchestrator.Scenes{
		Generate: func(ctx context.Context, scene domain.Scene) (string, error) {
			genReq := domain.GenerationRequest{
				Kind:        domain.JobKindVideo,
				Instruction: prompt.BuildSceneMotion(scene.Motion, req.Brand),
				Images:      []domain.TaggedImage{scene.Image},
				AspectRatio: aspect,
			}
			op, err := a.Gen.StartVideo(ctx, genReq)
			if err != nil {
				return "", err
			}
			return a.Poller.Await(ctx, op)
		},
		Credentials: a.Credentials,
		Logger:      a.Logger,
		OnCredentialError: func() {
			a.Registry.SetAdvisory(runID, advisory("credential_reselect", locale))
		},
	}

	// The run outlives the start request; a caller that stops polling simply
	// abandons interest while in-flight calls run to completion.
	go func() {
		sceneRunner.Run(context.Background(), scenes, func(res domain.SceneResult) {
			a.Registry.Update(runID, res)
		})
		a.Registry.Finish(runID)
	}()

	snapshot, _ := a.Registry.Snapshot(runID)
	a.json(w, http.StatusAccepted, snapshot)
}

// StoryboardStatus returns the run's current per-scene statuses.
func (a *App) StoryboardStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	snapshot, ok := a.Registry.Snapshot(runID)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "run not found")
		return
	}
	a.json(w, http.StatusOK, snapshot)
}

func defaultSceneID(index int) string {
	return fmt.Sprintf("scene-%d", index+1)
}
