package domain

import "strings"

// Scene is one user-authored storyboard unit: a source image plus a motion or
// action description. Scenes are ordered and editable until a generation run
// starts; the orchestrator works on a frozen copy of the sequence.
type Scene struct {
	ID     string
	Image  TaggedImage
	Motion string
}

// Eligible reports whether the scene carries the input a generation run
// requires. Ineligible scenes are excluded from dispatch entirely rather than
// counted as failures.
func (s Scene) Eligible() bool {
	return len(s.Image.Data) > 0 && strings.TrimSpace(s.Motion) != ""
}

// SceneResult is the settled outcome of one scene's generation job.
type SceneResult struct {
	SceneID     string    `json:"scene_id"`
	Status      JobStatus `json:"status"`
	ArtifactURI string    `json:"artifact_uri,omitempty"`
	Error       string    `json:"error,omitempty"`
}
