package seed

import (
	_ "embed"
	"fmt"

	"scribe/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// Fixtures is hand-written demo content.
type Fixtures struct {
	Tags  []string      `yaml:"tags"`
	Users []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Private  bool          `yaml:"private"`
	Posts    []FixturePost `yaml:"posts"`
}

type FixturePost struct {
	Title    string   `yaml:"title"`
	Content  string   `yaml:"content"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
}

// DefaultFixtures returns the fixtures embedded in the binary.
func DefaultFixtures() (*Fixtures, error) {
	return LoadFixtures(defaultFixtures)
}

// LoadFixtures parses YAML fixtures and checks them against the same rules
// the API applies.
func LoadFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixtures) validate() error {
	for _, tag := range f.Tags {
		if err := validation.ValidateTagTitle(validation.NormalizeTagTitle(tag)); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	for _, u := range f.Users {
		if err := validation.ValidateUsername(u.Username); err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
		if err := validation.ValidatePassword(u.Password); err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
		for _, p := range u.Posts {
			if err := validation.ValidatePostTitle(p.Title); err != nil {
				return fmt.Errorf("user %q post %q: %w", u.Username, p.Title, err)
			}
			if err := validation.ValidatePostContent(p.Content); err != nil {
				return fmt.Errorf("user %q post %q: %w", u.Username, p.Title, err)
			}
		}
	}
	return nil
}
