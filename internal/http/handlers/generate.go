package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/orchestrator"
	"studio/internal/prompt"
	"studio/internal/providers/genai"
)

type photosRequest struct {
	ProductName string               `json:"product_name"`
	Background  string               `json:"background"`
	Mood        string               `json:"mood"`
	Lighting    string               `json:"lighting"`
	Brand       *domain.BrandProfile `json:"brand,omitempty"`
	Image       imagePayload         `json:"image"`
	AspectRatio string               `json:"aspect_ratio"`
	Quantity    int                  `json:"quantity"`
}

type batchResponse struct {
	RunID     string   `json:"run_id"`
	Artifacts []string `json:"artifacts"`
	Requested int      `json:"requested"`
	Failed    int      `json:"failed"`
}

const maxBatchQuantity = 8

// Photos generates a batch of studio-shot variations for one product image.
// Partial failure is a valid outcome; only a run with zero artifacts is an
// error.
func (a *App) Photos(w http.ResponseWriter, r *http.Request) {
	var req photosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	img, err := req.Image.decode()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	instruction := prompt.BuildStudio(prompt.StudioInput{
		ProductName: req.ProductName,
		Background:  req.Background,
		Mood:        req.Mood,
		Lighting:    req.Lighting,
		Brand:       req.Brand,
	})
	genReq := domain.GenerationRequest{
		Kind:        domain.JobKindImage,
		Instruction: instruction,
		Images:      []domain.TaggedImage{img},
		AspectRatio: domain.ParseStudioAspect(req.AspectRatio),
	}
	a.runImageBatch(w, r, clampQuantity(req.Quantity), genReq)
}

type compositesRequest struct {
	compositePromptRequest
	ProductImage imagePayload `json:"product_image"`
	ModelImage   imagePayload `json:"model_image"`
	AspectRatio  string       `json:"aspect_ratio"`
	Quantity     int          `json:"quantity"`
}

// Composites generates a batch of composite variations: product image 1
// combined with model image 2.
func (a *App) Composites(w http.ResponseWriter, r *http.Request) {
	var req compositesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	product, err := req.ProductImage.decode()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "product_image: "+err.Error())
		return
	}
	product.Role = domain.ImageRoleProduct
	model, err := req.ModelImage.decode()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "model_image: "+err.Error())
		return
	}
	model.Role = domain.ImageRoleModel

	instruction := prompt.BuildComposite(prompt.CompositeInput{
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		Category:           req.Category,
		TargetGender:       req.TargetGender,
		Mood:               req.Mood,
		Action:             req.Action,
		Setting:            req.Setting,
		Brand:              req.Brand,
	})
	genReq := domain.GenerationRequest{
		Kind:        domain.JobKindImage,
		Instruction: instruction,
		Images:      []domain.TaggedImage{product, model},
		AspectRatio: domain.ParseCompositeAspect(req.AspectRatio),
	}
	a.runImageBatch(w, r, clampQuantity(req.Quantity), genReq)
}

func (a *App) runImageBatch(w http.ResponseWriter, r *http.Request, quantity int, genReq domain.GenerationRequest) {
	results := a.Batch.Run(r.Context(), quantity, func(ctx context.Context, index int) (string, error) {
		return a.Gen.GenerateImage(ctx, genReq)
	})
	artifacts, err := orchestrator.Collect(results)
	if err != nil {
		a.respondBatchFailure(w, r, results, err)
		return
	}
	run := a.Batch.Summarize(uuid.NewString(), results)
	a.json(w, http.StatusOK, batchResponse{
		RunID:     run.ID,
		Artifacts: artifacts,
		Requested: run.Target,
		Failed:    run.Target - run.Completed(),
	})
}

type scriptsRequest struct {
	Products []conceptsRequest `json:"products"`
}

type scriptItem struct {
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	Script string `json:"script,omitempty"`
	Failed bool   `json:"failed,omitempty"`
}

// Scripts generates one video script per requested product, fanned out in
// the same windowed batches as image generation. Per-product statuses are
// preserved so the UI can mark individual failures.
func (a *App) Scripts(w http.ResponseWriter, r *http.Request) {
	var req scriptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Products) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "products required")
		return
	}

	results := a.Batch.Run(r.Context(), len(req.Products), func(ctx context.Context, index int) (string, error) {
		product := req.Products[index]
		concepts, err := a.Gen.GenerateConcepts(ctx, genai.ConceptRequest{
			ProductDescription: product.ProductDescription,
			Category:           product.Category,
			TargetAudience:     product.TargetAudience,
			Count:              1,
		})
		if err != nil {
			return "", err
		}
		if len(concepts) == 0 {
			return "", domain.ErrNoArtifact
		}
		return concepts[0].Prompt, nil
	})

	if _, err := orchestrator.Collect(results); err != nil {
		a.respondBatchFailure(w, r, results, err)
		return
	}

	items := make([]scriptItem, len(results))
	for i, res := range results {
		items[i] = scriptItem{Index: i, Script: res.ArtifactURI, Failed: res.Err != nil}
	}
	a.json(w, http.StatusOK, map[string]any{"scripts": items})
}

type videoRequest struct {
	Image       imagePayload         `json:"image"`
	Motion      string               `json:"motion"`
	AspectRatio string               `json:"aspect_ratio"`
	Brand       *domain.BrandProfile `json:"brand,omitempty"`
}

// Video submits a single video synthesis job and polls it to completion
// inline. The response carries the artifact URI exactly as the backend
// reported it.
func (a *App) Video(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	img, err := req.Image.decode()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	genReq := domain.GenerationRequest{
		Kind:        domain.JobKindVideo,
		Instruction: prompt.BuildSceneMotion(req.Motion, req.Brand),
		Images:      []domain.TaggedImage{img},
		AspectRatio: domain.ParseStudioAspect(req.AspectRatio),
	}

	op, err := a.Gen.StartVideo(r.Context(), genReq)
	if err != nil {
		a.respondVideoFailure(w, r, err)
		return
	}
	uri, err := a.Poller.Await(r.Context(), op)
	if err != nil {
		a.respondVideoFailure(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"video_uri": uri})
}

func (a *App) respondVideoFailure(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	a.Logger.Warn().Err(err).Msg("video: generation failed")
	if genai.IsCredentialError(err) {
		if a.Credentials != nil {
			_ = a.Credentials.RequestSelection(r.Context())
		}
		a.error(w, http.StatusBadGateway, "credential", advisory("credential_reselect", locale))
		return
	}
	if errors.Is(err, domain.ErrNoArtifact) {
		a.error(w, http.StatusBadGateway, "no_artifact", advisory("no_video", locale))
		return
	}
	a.error(w, http.StatusBadGateway, "provider_failure", "video generation failed")
}

func (a *App) respondBatchFailure(w http.ResponseWriter, r *http.Request, results []orchestrator.ItemResult, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	if !errors.Is(err, domain.ErrAllFailed) {
		a.error(w, http.StatusBadGateway, "provider_failure", "generation failed")
		return
	}
	for _, res := range results {
		if res.Err != nil && genai.IsCredentialError(res.Err) {
			if a.Credentials != nil {
				_ = a.Credentials.RequestSelection(r.Context())
			}
			a.error(w, http.StatusBadGateway, "credential", advisory("credential_reselect", locale))
			return
		}
	}
	a.error(w, http.StatusBadGateway, "all_failed", advisory("all_failed", locale))
}

func clampQuantity(quantity int) int {
	if quantity <= 0 {
		return 1
	}
	if quantity > maxBatchQuantity {
		return maxBatchQuantity
	}
	return quantity
}
