package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
)

// Options controls how the generation client is configured.
type Options struct {
	BaseURL     string
	TextModel   string
	ImageModel  string
	VideoModel  string
	Credentials credentials.Source
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Client wraps the Gemini REST surface for the four job kinds the studio
// issues: product analysis, creative text generation, image synthesis, and
// long-running video synthesis. The credential is acquired from the injected
// source on every call, never cached, so a rotation mid-session takes effect
// on the next call.
type Client struct {
	baseURL    string
	textModel  string
	imageModel string
	videoModel string
	creds      credentials.Source
	httpClient *http.Client
	logger     *infra.Logger
}

// ConceptRequest asks for creative concept or script text.
type ConceptRequest struct {
	ProductDescription string
	Category           string
	TargetAudience     string
	Count              int
}

// Concept is one generated creative idea: a short title plus the full
// generation prompt or script body.
type Concept struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// NewClient constructs a generation client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one with a generous timeout is
// created because synthesis calls are slow.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		baseURL:    baseURL,
		textModel:  defaultString(opts.TextModel, "gemini-2.5-flash"),
		imageModel: defaultString(opts.ImageModel, "gemini-2.5-flash-image"),
		videoModel: defaultString(opts.VideoModel, "veo-3.0-generate-001"),
		creds:      opts.Credentials,
		httpClient: client,
		logger:     logger,
	}, nil
}

// AnalyzeProduct asks the backend to describe the uploaded product image.
// Analysis is advisory: an unparsable response degrades to the fixed fallback
// record instead of surfacing an error.
func (c *Client) AnalyzeProduct(ctx context.Context, img domain.TaggedImage) (domain.ProductAnalysis, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: analysisPrompt},
				imagePart(img),
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.2,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.textModel)), payload, &response); err != nil {
		return domain.ProductAnalysis{}, err
	}

	text := extractText(response)
	analysis, err := parsePayload[domain.ProductAnalysis](text)
	if err != nil || analysis.Description == "" {
		c.logger.Debug().Str("model", c.textModel).Msg("genai: analysis payload unparsable, using fallback")
		return domain.FallbackAnalysis(), nil
	}
	return analysis, nil
}

// GenerateConcepts produces creative prompt texts or video script bodies. An
// unparsable response degrades to an empty list.
func (c *Client) GenerateConcepts(ctx context.Context, req ConceptRequest) ([]Concept, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: conceptPrompt(req)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.8,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.textModel)), payload, &response); err != nil {
		return nil, err
	}

	wrapper, err := parsePayload[struct {
		Concepts []Concept `json:"concepts"`
	}](extractText(response))
	if err != nil {
		c.logger.Debug().Str("model", c.textModel).Msg("genai: concept payload unparsable, returning empty list")
		return []Concept{}, nil
	}
	return wrapper.Concepts, nil
}

// GenerateImage synthesizes one image from an instruction plus zero or more
// tagged input images, returning the artifact as a data URI. A response with
// no image part is an explicit failure, not an empty success.
func (c *Client) GenerateImage(ctx context.Context, req domain.GenerationRequest) (string, error) {
	parts := []geminiPart{{Text: req.Instruction}}
	for _, img := range req.Images {
		parts = append(parts, imagePart(img))
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        &geminiImageConfig{AspectRatio: string(req.AspectRatio)},
		},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel)), payload, &response); err != nil {
		return "", err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			mime := defaultString(part.InlineData.MimeType, "image/png")
			return fmt.Sprintf("data:%s;base64,%s", mime, part.InlineData.Data), nil
		}
	}
	return "", fmt.Errorf("image synthesis: %w", domain.ErrNoArtifact)
}

// StartVideo submits a video synthesis job and returns the operation handle.
// The handle's done flag is false until the backend finishes rendering; poll
// it with FetchOperation.
func (c *Client) StartVideo(ctx context.Context, req domain.GenerationRequest) (*Operation, error) {
	instance := videoInstance{Prompt: req.Instruction}
	if len(req.Images) > 0 {
		img := req.Images[0]
		instance.Image = &videoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(img.Data),
			MimeType:           defaultString(img.MIME, "image/png"),
		}
	}

	payload := videoPredictRequest{
		Instances:  []videoInstance{instance},
		Parameters: &videoParameters{AspectRatio: string(req.AspectRatio)},
	}

	var op Operation
	if err := c.invoke(ctx, fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel)), payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("video synthesis: backend returned no operation handle")
	}
	return &op, nil
}

// FetchOperation re-reads the status of a long-running operation by name.
func (c *Client) FetchOperation(ctx context.Context, name string) (*Operation, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(name, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var op Operation
	if err := c.send(httpReq, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.send(httpReq, out)
}

func (c *Client) send(req *http.Request, out any) error {
	key, err := c.token(req.Context())
	if err != nil {
		return fmt.Errorf("acquire credential: %w", err)
	}
	if key != "" {
		req.Header.Set("x-goog-api-key", key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.creds == nil {
		return "", nil
	}
	return c.creds.Token(ctx)
}

func (c *Client) decodeError(resp *http.Response) error {
	var apiErr geminiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     apiErr.Error.Status,
			Message:    apiErr.Error.Message,
		}
	}
	data, _ := io.ReadAll(resp.Body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(data)),
	}
}

// APIError is a structured backend failure.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Message)
}

// Credential-class failures are recognized by message signature because the
// backend does not expose a structured error kind for them. See DESIGN.md.
var credentialSignatures = []string{
	"requested entity was not found",
	"api key not valid",
	"api_key_invalid",
	"permission_denied",
}

// IsCredentialError reports whether the error looks like a rejected or
// missing credential.
func IsCredentialError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message + " " + apiErr.Status)
	for _, sig := range credentialSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

const analysisPrompt = `Analyze the product in the attached image for a marketing campaign. ` +
	`Respond strictly with JSON matching this schema: ` +
	`{"description":string,"usp":string,"productCategory":string,"targetGender":string}. ` +
	`description is one sentence, usp is the single strongest selling point, ` +
	`productCategory is a short category label, targetGender is Female, Male, or Unisex.`

func conceptPrompt(req ConceptRequest) string {
	count := req.Count
	if count <= 0 {
		count = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d distinct creative generation prompts for marketing assets. ", count)
	b.WriteString(`Respond strictly with JSON: {"concepts":[{"title":string,"prompt":string}]}. `)
	fmt.Fprintf(&b, "Product: %s.", defaultString(strings.TrimSpace(req.ProductDescription), "a consumer product"))
	if category := strings.TrimSpace(req.Category); category != "" {
		fmt.Fprintf(&b, " Category: %s.", category)
	}
	if audience := strings.TrimSpace(req.TargetAudience); audience != "" {
		fmt.Fprintf(&b, " Target audience: %s.", audience)
	}
	b.WriteString(" Each prompt must be self-contained and visually concrete.")
	return b.String()
}

func imagePart(img domain.TaggedImage) geminiPart {
	return geminiPart{InlineData: &geminiInlineData{
		MimeType: defaultString(img.MIME, "image/png"),
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	}}
}

func extractText(resp geminiGenerateContentResponse) string {
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func parsePayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
