package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Length limits for post and tag fields, counted in characters.
const (
	MaxPostTitleLength    = 300
	MaxPostContentLength  = 50000
	MaxPostCategoryLength = 100
	MaxTagTitleLength     = 50
)

func checkLength(field, value string, max int) error {
	n := utf8.RuneCountInString(value)
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if n > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}

// ValidatePostTitle checks a post title.
func ValidatePostTitle(title string) error {
	return checkLength("title", title, MaxPostTitleLength)
}

// ValidatePostContent checks a post body.
func ValidatePostContent(content string) error {
	return checkLength("content", content, MaxPostContentLength)
}

// ValidatePostCategory checks an optional category. An empty category is allowed.
func ValidatePostCategory(category string) error {
	if utf8.RuneCountInString(category) > MaxPostCategoryLength {
		return fmt.Errorf("category must not exceed %d characters", MaxPostCategoryLength)
	}
	return nil
}

// NormalizeTagTitle trims surrounding whitespace from a tag title.
func NormalizeTagTitle(title string) string {
	return strings.TrimSpace(title)
}

// ValidateTagTitle checks an already normalized tag title.
func ValidateTagTitle(title string) error {
	return checkLength("tag title", title, MaxTagTitleLength)
}
