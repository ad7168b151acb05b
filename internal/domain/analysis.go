package domain

// ProductAnalysis is the structured result of an analysis job. Field names
// follow the backend's JSON contract.
type ProductAnalysis struct {
	Description     string `json:"description"`
	USP             string `json:"usp"`
	ProductCategory string `json:"productCategory"`
	TargetGender    string `json:"targetGender"`
}

// FallbackAnalysis is returned when the backend's analysis payload cannot be
// parsed. Analysis is advisory, so the degrade is silent.
func FallbackAnalysis() ProductAnalysis {
	return ProductAnalysis{
		Description:     "Analysis failed",
		USP:             "High Quality",
		ProductCategory: "General",
		TargetGender:    "Unisex",
	}
}
