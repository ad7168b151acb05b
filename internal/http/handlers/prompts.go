package handlers

import (
	"encoding/json"
	"net/http"

	"studio/internal/domain"
	"studio/internal/prompt"
	"studio/internal/providers/genai"
)

type compositePromptRequest struct {
	ProductName        string               `json:"product_name"`
	ProductDescription string               `json:"product_description"`
	Category           string               `json:"category"`
	TargetGender       string               `json:"target_gender"`
	Mood               string               `json:"mood"`
	Action             string               `json:"action"`
	Setting            string               `json:"setting"`
	Brand              *domain.BrandProfile `json:"brand,omitempty"`
}

type studioPromptRequest struct {
	ProductName string               `json:"product_name"`
	Background  string               `json:"background"`
	Mood        string               `json:"mood"`
	Lighting    string               `json:"lighting"`
	Brand       *domain.BrandProfile `json:"brand,omitempty"`
}

type instructionResponse struct {
	Instruction string `json:"instruction"`
}

// CompositePrompt builds the composite instruction from structured fields.
// Pure transformation, no backend call.
func (a *App) CompositePrompt(w http.ResponseWriter, r *http.Request) {
	var req compositePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
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
	a.json(w, http.StatusOK, instructionResponse{Instruction: instruction})
}

// StudioPrompt builds the studio-shot instruction from structured fields.
func (a *App) StudioPrompt(w http.ResponseWriter, r *http.Request) {
	var req studioPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	instruction := prompt.BuildStudio(prompt.StudioInput{
		ProductName: req.ProductName,
		Background:  req.Background,
		Mood:        req.Mood,
		Lighting:    req.Lighting,
		Brand:       req.Brand,
	})
	a.json(w, http.StatusOK, instructionResponse{Instruction: instruction})
}

type conceptsRequest struct {
	ProductDescription string `json:"product_description"`
	Category           string `json:"category"`
	TargetAudience     string `json:"target_audience"`
	Count              int    `json:"count"`
}

// Concepts asks the backend for creative prompt ideas. An unparsable model
// response surfaces as an empty list, not an error.
func (a *App) Concepts(w http.ResponseWriter, r *http.Request) {
	var req conceptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	concepts, err := a.Gen.GenerateConcepts(r.Context(), genai.ConceptRequest{
		ProductDescription: req.ProductDescription,
		Category:           req.Category,
		TargetAudience:     req.TargetAudience,
		Count:              req.Count,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("concepts: backend call failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "concept generation failed")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"concepts": concepts})
}
