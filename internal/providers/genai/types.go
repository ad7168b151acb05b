package genai

import "strings"

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature        float64            `json:"temperature,omitempty"`
	CandidateCount     int                `json:"candidateCount,omitempty"`
	ResponseMimeType   string             `json:"responseMimeType,omitempty"`
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	ImageConfig        *geminiImageConfig `json:"imageConfig,omitempty"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// Video synthesis uses the long-running predict surface: submission returns
// an operation whose done flag flips once the backend finishes rendering.

type videoPredictRequest struct {
	Instances  []videoInstance  `json:"instances"`
	Parameters *videoParameters `json:"parameters,omitempty"`
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *videoImage `json:"image,omitempty"`
}

type videoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// Operation is the opaque handle for a long-running video job.
type Operation struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Error    *OperationError    `json:"error,omitempty"`
	Response *operationResponse `json:"response,omitempty"`
}

// OperationError carries the backend's failure detail for a settled operation.
type OperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type operationResponse struct {
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse,omitempty"`
}

type generateVideoResponse struct {
	GeneratedSamples []generatedSample `json:"generatedSamples,omitempty"`
}

type generatedSample struct {
	Video *videoRef `json:"video,omitempty"`
}

type videoRef struct {
	URI string `json:"uri,omitempty"`
}

// VideoURI extracts the artifact URI from a settled operation. An empty
// result on a done operation means the backend produced no artifact.
func (op *Operation) VideoURI() string {
	if op == nil || op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return ""
	}
	for _, sample := range op.Response.GenerateVideoResponse.GeneratedSamples {
		if sample.Video != nil && strings.TrimSpace(sample.Video.URI) != "" {
			return sample.Video.URI
		}
	}
	return ""
}
