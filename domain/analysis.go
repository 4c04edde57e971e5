package domain

// AnalysisInput carries the images forwarded to the style analyzer. Values
// are data URLs or plain http(s) URLs. GeneratedImage is a virtual try-on
// render; the analyzer reads it as one complete outfit.
type AnalysisInput struct {
	Person         string            `json:"person,omitempty"`
	ClothingItems  map[string]string `json:"clothingItems,omitempty"`
	GeneratedImage string            `json:"generatedImage,omitempty"`
}

func (in AnalysisInput) Empty() bool {
	if in.Person != "" || in.GeneratedImage != "" {
		return false
	}
	for _, v := range in.ClothingItems {
		if v != "" {
			return false
		}
	}
	return true
}

// Slots lists the known categories that have a clothing image, in output order.
func (in AnalysisInput) Slots() []Category {
	present := make(map[Category]bool, len(in.ClothingItems))
	for k, v := range in.ClothingItems {
		if v != "" {
			present[NormalizeCategory(k)] = true
		}
	}

	out := make([]Category, 0, len(present))
	for _, c := range OutputCategories {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}

const (
	AnalysisProvided = "provided"
	AnalysisAI       = "ai"
	AnalysisFallback = "fallback"
)
