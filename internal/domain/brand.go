package domain

// BrandProfile carries externally supplied style descriptors that are folded
// verbatim into generated instruction text. The core never mutates it.
type BrandProfile struct {
	Name     string `json:"name"`
	Style    string `json:"style"`
	Tone     string `json:"tone"`
	Contrast string `json:"contrast"`
}

// Empty reports whether the profile carries nothing worth injecting.
func (b BrandProfile) Empty() bool {
	return b.Style == "" && b.Tone == "" && b.Contrast == ""
}
