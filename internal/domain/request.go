package domain

import "strings"

// ImageRole tags an uploaded image with the semantic role it plays inside an
// instruction. The prompt builder references roles positionally (image 1 =
// primary subject, image 2 = secondary subject).
type ImageRole string

const (
	ImageRoleProduct ImageRole = "product"
	ImageRoleModel   ImageRole = "model"
	ImageRoleScene   ImageRole = "scene"
)

// TaggedImage pairs raw image bytes with the role they fill.
type TaggedImage struct {
	Role ImageRole
	MIME string
	Data []byte
}

// GenerationRequest is the immutable description of one unit of work. It is
// produced by the prompt builder and consumed exactly once by the generation
// client.
type GenerationRequest struct {
	Kind        JobKind
	Instruction string
	Images      []TaggedImage
	AspectRatio AspectRatio
	Quantity    int
}

// AspectRatio is the fixed output-constraint enumeration.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
	AspectThreeFour AspectRatio = "3:4"
	AspectFourThree AspectRatio = "4:3"
)

// studioAspects covers the video and studio flows; composite flows extend it.
var studioAspects = map[AspectRatio]struct{}{
	AspectSquare:    {},
	AspectPortrait:  {},
	AspectLandscape: {},
}

var compositeAspects = map[AspectRatio]struct{}{
	AspectSquare:    {},
	AspectPortrait:  {},
	AspectLandscape: {},
	AspectThreeFour: {},
	AspectFourThree: {},
}

// ParseStudioAspect validates an aspect ratio for the studio/video flows and
// falls back to 1:1 for unknown values.
func ParseStudioAspect(raw string) AspectRatio {
	a := AspectRatio(strings.TrimSpace(raw))
	if _, ok := studioAspects[a]; ok {
		return a
	}
	return AspectSquare
}

// ParseCompositeAspect validates an aspect ratio for the composite flow and
// falls back to 1:1 for unknown values.
func ParseCompositeAspect(raw string) AspectRatio {
	a := AspectRatio(strings.TrimSpace(raw))
	if _, ok := compositeAspects[a]; ok {
		return a
	}
	return AspectSquare
}
