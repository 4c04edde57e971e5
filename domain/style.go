package domain

// StyleDescriptor is the style analyzer's summary of a look. Every field is a
// bag of free-text terms; the keyword index normalizes them before scoring.
type StyleDescriptor struct {
	Tags          []string `json:"tags,omitempty"`
	Captions      []string `json:"captions,omitempty"`
	OverallStyle  []string `json:"overall_style,omitempty"`
	DetectedStyle []string `json:"detected_style,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Fit           []string `json:"fit,omitempty"`
	Silhouette    []string `json:"silhouette,omitempty"`

	// per-slot hints, e.g. Top: ["white", "oxford shirt"]
	Top         []string `json:"top,omitempty"`
	Pants       []string `json:"pants,omitempty"`
	Outer       []string `json:"outer,omitempty"`
	Shoes       []string `json:"shoes,omitempty"`
	Accessories []string `json:"accessories,omitempty"`
}

// Terms flattens every field into one list, in field order.
func (d StyleDescriptor) Terms() []string {
	groups := [][]string{
		d.Tags, d.Captions, d.Top, d.Pants, d.Outer, d.Shoes, d.Accessories,
		d.OverallStyle, d.DetectedStyle, d.Colors, d.Categories, d.Fit, d.Silhouette,
	}

	n := 0
	for _, g := range groups {
		n += len(g)
	}

	out := make([]string, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func (d StyleDescriptor) IsEmpty() bool {
	for _, t := range d.Terms() {
		if t != "" {
			return false
		}
	}
	return true
}

// FallbackDescriptor is used when no analysis is available. Each provided
// clothing slot contributes "<slot> basic casual".
func FallbackDescriptor(hasPerson bool, slots []Category) StyleDescriptor {
	var d StyleDescriptor
	if hasPerson || len(slots) == 0 {
		d.OverallStyle = []string{"casual", "everyday"}
	}

	for _, slot := range slots {
		hint := []string{string(slot), "basic", "casual"}
		switch slot {
		case CategoryTop:
			d.Top = append(d.Top, hint...)
		case CategoryPants:
			d.Pants = append(d.Pants, hint...)
		case CategoryOuter:
			d.Outer = append(d.Outer, hint...)
		case CategoryShoes:
			d.Shoes = append(d.Shoes, hint...)
		case CategoryAccessories:
			d.Accessories = append(d.Accessories, hint...)
		}
	}

	return d
}

// FittingFallbackDescriptor is used for a try-on render that could not be
// analyzed. It names the four garment slots so every one of them is active.
func FittingFallbackDescriptor() StyleDescriptor {
	return StyleDescriptor{
		OverallStyle: []string{"casual", "relaxed"},
		Categories:   []string{"top", "pants", "shoes", "outer"},
	}
}

// GarmentSlots lists the garment categories the descriptor talks about:
// entries of Categories plus every per-slot hint that is set. Accessories
// are never inferred.
func (d StyleDescriptor) GarmentSlots() []Category {
	present := make(map[Category]bool)
	for _, c := range d.Categories {
		present[NormalizeCategory(c)] = true
	}
	present[CategoryTop] = present[CategoryTop] || len(d.Top) > 0
	present[CategoryPants] = present[CategoryPants] || len(d.Pants) > 0
	present[CategoryOuter] = present[CategoryOuter] || len(d.Outer) > 0
	present[CategoryShoes] = present[CategoryShoes] || len(d.Shoes) > 0

	var out []Category
	for _, c := range OutputCategories {
		if c != CategoryAccessories && present[c] {
			out = append(out, c)
		}
	}
	return out
}
