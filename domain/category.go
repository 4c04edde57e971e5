package domain

import "strings"

type Category string

const (
	CategoryTop         Category = "top"
	CategoryPants       Category = "pants"
	CategoryOuter       Category = "outer"
	CategoryShoes       Category = "shoes"
	CategoryAccessories Category = "accessories"
	CategoryUnknown     Category = "unknown"
)

// OutputCategories is the fixed order categories are emitted in.
var OutputCategories = []Category{
	CategoryTop,
	CategoryPants,
	CategoryOuter,
	CategoryShoes,
	CategoryAccessories,
}

func (c Category) Known() bool {
	switch c {
	case CategoryTop, CategoryPants, CategoryOuter, CategoryShoes, CategoryAccessories:
		return true
	}
	return false
}

// NormalizeCategory maps raw catalog slots ("man_outer", "woman_bottom", ...)
// and free-text labels ("jacket", "sneakers", ...) onto the closed category set.
func NormalizeCategory(raw string) Category {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return CategoryUnknown
	}

	switch c {
	case "man_outer", "woman_outer":
		return CategoryOuter
	case "man_top", "woman_top":
		return CategoryTop
	case "man_bottom", "woman_bottom", "woman_dress_skirt":
		return CategoryPants
	case "man_shoes", "woman_shoes":
		return CategoryShoes
	}

	switch {
	case strings.Contains(c, "outer"), strings.Contains(c, "jacket"), strings.Contains(c, "coat"):
		return CategoryOuter
	case strings.Contains(c, "top"), strings.Contains(c, "shirt"), strings.Contains(c, "tee"):
		return CategoryTop
	case strings.Contains(c, "pant"), strings.Contains(c, "bottom"), strings.Contains(c, "denim"), strings.Contains(c, "skirt"):
		return CategoryPants
	case strings.Contains(c, "shoe"), strings.Contains(c, "sneaker"):
		return CategoryShoes
	case strings.Contains(c, "access"):
		return CategoryAccessories
	}

	return CategoryUnknown
}

var (
	femaleWords = []string{"female", "woman", "women"}
	maleWords   = []string{"male", "man", "men"}
)

// NormalizeGender folds free-text gender labels into male, female, unisex, kids or unknown.
func NormalizeGender(raw string) string {
	g := strings.ToLower(strings.TrimSpace(raw))
	if g == "" {
		return "unknown"
	}

	// check the female words first: "female" and "woman" contain "male" and "man"
	for _, k := range femaleWords {
		if strings.Contains(g, k) {
			return "female"
		}
	}
	for _, k := range maleWords {
		if strings.Contains(g, k) {
			return "male"
		}
	}

	switch g {
	case "m", "남", "남성", "남자":
		return "male"
	case "w", "f", "여", "여성", "여자":
		return "female"
	}

	for _, k := range []string{"unisex", "uni", "공용", "유니섹스"} {
		if strings.Contains(g, k) {
			return "unisex"
		}
	}
	for _, k := range []string{"kid", "child", "아동", "키즈"} {
		if strings.Contains(g, k) {
			return "kids"
		}
	}

	return g
}
