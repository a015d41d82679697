package seed

import (
	"fmt"
	"strings"
	"unicode"

	"scribe/internal/service"
	"scribe/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

var categories = []string{"general", "tutorials", "opinion", "release notes", "links"}

// Factory builds random users and posts. It does not persist anything.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a Factory. A zero seed picks a random one.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// Username returns a random username that passes validation.
func (f *Factory) Username() string {
	return sanitizeUsername(f.faker.Username(), f.faker.Number(100, 9999))
}

// sanitizeUsername reduces name to letters and digits and appends suffix.
func sanitizeUsername(name string, suffix int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	tail := fmt.Sprintf("_%d", suffix)
	if limit := 30 - len(tail); len(base) > limit {
		base = base[:limit]
	}
	return base + tail
}

// Post returns a random post for authorID tagged with up to three of tags.
func (f *Factory) Post(authorID uint, tags []string) service.CreatePostInput {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), ".")
	if len(title) > validation.MaxPostTitleLength {
		title = title[:validation.MaxPostTitleLength]
	}

	in := service.CreatePostInput{
		AuthorID: authorID,
		Title:    title,
		Content:  f.faker.Paragraph(f.faker.Number(1, 3), f.faker.Number(2, 5), 12, "\n\n"),
	}

	if f.faker.Number(0, 3) > 0 {
		category := f.faker.RandomString(categories)
		in.Category = &category
	}

	if len(tags) > 0 {
		n := f.faker.Number(0, min(3, len(tags)))
		for i := 0; i < n; i++ {
			in.Tags = append(in.Tags, f.faker.RandomString(tags))
		}
	}
	return in
}
