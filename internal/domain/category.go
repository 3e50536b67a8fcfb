package domain

import "strings"

// Category is the fixed set a record can be filed under.
type Category string

const (
	CategoryWork          Category = "Work"
	CategoryPersonal      Category = "Personal"
	CategoryLearning      Category = "Learning"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategorySocial        Category = "Social"
	CategoryNews          Category = "News"
	CategoryTools         Category = "Tools"
	CategoryOther         Category = "Other"
)

// DefaultCategory preselected on the creation form.
const DefaultCategory = CategoryWork

// Categories in display order.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategoryLearning,
	CategoryEntertainment,
	CategoryShopping,
	CategorySocial,
	CategoryNews,
	CategoryTools,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory matches s case-insensitively against the fixed set.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// CategoryOrOther maps free-form group names (imports) onto the fixed set.
func CategoryOrOther(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryOther
}
