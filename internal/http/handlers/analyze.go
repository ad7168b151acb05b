package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"studio/internal/domain"
)

type analyzeRequest struct {
	Image imagePayload `json:"image"`
}

// Analyze runs the product-analysis job for an uploaded image. Results are
// cached by content hash; analysis is advisory so a stale entry is harmless.
func (a *App) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	img, err := req.Image.decode()
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	key := imageDigest(img)
	if cached, ok := a.analyses.Get(key); ok {
		a.json(w, http.StatusOK, cached.(domain.ProductAnalysis))
		return
	}

	analysis, err := a.Gen.AnalyzeProduct(r.Context(), img)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("analyze: backend call failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "analysis call failed")
		return
	}

	a.analyses.SetDefault(key, analysis)
	a.json(w, http.StatusOK, analysis)
}

func imageDigest(img domain.TaggedImage) string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}
