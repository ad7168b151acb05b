package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"studio/internal/domain"
)

// CompositeInput carries the structured fields a composite (product + model)
// instruction is assembled from. Optional fields degrade to generic defaults;
// building never fails.
type CompositeInput struct {
	ProductName        string
	ProductDescription string
	Category           string
	TargetGender       string
	Mood               string
	Action             string
	Setting            string
	Brand              *domain.BrandProfile
}

// StudioInput carries the fields for a studio product shot instruction.
type StudioInput struct {
	ProductName string
	Background  string
	Mood        string
	Lighting    string
	Brand       *domain.BrandProfile
}

const (
	// AutoSelect asks the builder to derive the field from other inputs.
	AutoSelect = "auto"

	genericAction = "interacting naturally with the product"
)

// categoryActions maps category keywords to a category-appropriate default
// action phrase. Unmatched categories fall back to genericAction.
var categoryActions = []struct {
	keywords []string
	action   string
}{
	{[]string{"shoe", "sneaker", "footwear", "boot"}, "wearing the shoes and walking confidently"},
	{[]string{"skincare", "cosmetic", "beauty", "serum", "cream"}, "applying the product gently to their face"},
	{[]string{"apparel", "fashion", "clothing", "shirt", "dress", "jacket"}, "wearing the garment and posing for a lookbook"},
	{[]string{"beverage", "drink", "food", "snack", "coffee"}, "holding the product and enjoying a sip or bite"},
}

// BuildComposite renders the instruction for a composite photo: the uploaded
// product (image 1) placed with a model (image 2). Image references use fixed
// positional tags; whether a tagged image was actually uploaded is the
// caller's concern.
func BuildComposite(in CompositeInput) string {
	product := coalesce(in.ProductName, "the product")
	caser := cases.Title(language.Und)

	var b strings.Builder
	fmt.Fprintf(&b, "Create a professional marketing photo combining the product in image 1 with the model in image 2. The product is %s.", product)
	if desc := strings.TrimSpace(in.ProductDescription); desc != "" {
		b.WriteString(" ")
		b.WriteString(desc)
		if !strings.HasSuffix(desc, ".") {
			b.WriteString(".")
		}
	}
	fmt.Fprintf(&b, " The model is %s, %s.", modelContext(in.TargetGender), actionFor(in))
	if setting := strings.TrimSpace(in.Setting); setting != "" {
		fmt.Fprintf(&b, " Setting: %s.", setting)
	}
	if mood := strings.TrimSpace(in.Mood); mood != "" {
		fmt.Fprintf(&b, " %s mood with natural lighting.", caser.String(mood))
	}
	b.WriteString(" Keep the product's original shape, label, and proportions intact.")
	appendBrand(&b, in.Brand)
	return b.String()
}

// BuildStudio renders the instruction for a studio product shot from the
// uploaded product (image 1) alone.
func BuildStudio(in StudioInput) string {
	product := coalesce(in.ProductName, "the product")

	var b strings.Builder
	fmt.Fprintf(&b, "Create a clean studio photograph of %s from image 1.", product)
	fmt.Fprintf(&b, " Background: %s.", coalesce(in.Background, "seamless neutral backdrop"))
	fmt.Fprintf(&b, " Lighting: %s.", coalesce(in.Lighting, "soft diffused key light"))
	if mood := strings.TrimSpace(in.Mood); mood != "" {
		fmt.Fprintf(&b, " Overall mood: %s.", mood)
	}
	b.WriteString(" No text overlays, no watermarks, product perfectly in focus.")
	appendBrand(&b, in.Brand)
	return b.String()
}

// BuildSceneMotion renders the per-scene instruction for a storyboard video
// clip: animate the scene's source image (image 1) with its motion text.
func BuildSceneMotion(motion string, brand *domain.BrandProfile) string {
	var b strings.Builder
	b.WriteString("Animate the scene in image 1 as a short cinematic clip. ")
	b.WriteString(coalesce(motion, "Subtle camera push-in with natural ambient motion"))
	if !strings.HasSuffix(b.String(), ".") {
		b.WriteString(".")
	}
	b.WriteString(" Smooth motion, no scene cuts, no added text.")
	appendBrand(&b, brand)
	return b.String()
}

func actionFor(in CompositeInput) string {
	action := strings.TrimSpace(in.Action)
	if action != "" && !strings.EqualFold(action, AutoSelect) {
		return action
	}
	category := strings.ToLower(in.Category)
	for _, entry := range categoryActions {
		for _, kw := range entry.keywords {
			if strings.Contains(category, kw) {
				return entry.action
			}
		}
	}
	return genericAction
}

func modelContext(targetGender string) string {
	gender := strings.TrimSpace(targetGender)
	if strings.EqualFold(gender, AutoSelect) {
		gender = ""
	}
	switch strings.ToLower(gender) {
	case "female", "women", "feminine":
		return "a professional female model"
	case "male", "men", "masculine":
		return "a professional male model"
	default:
		return "a professional model with broad appeal"
	}
}

func appendBrand(b *strings.Builder, brand *domain.BrandProfile) {
	if brand == nil || brand.Empty() {
		return
	}
	if style := strings.TrimSpace(brand.Style); style != "" {
		fmt.Fprintf(b, " Brand style: %s.", style)
	}
	if tone := strings.TrimSpace(brand.Tone); tone != "" {
		fmt.Fprintf(b, " Brand tone: %s.", tone)
	}
	if contrast := strings.TrimSpace(brand.Contrast); contrast != "" {
		fmt.Fprintf(b, " Contrast: %s.", contrast)
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
