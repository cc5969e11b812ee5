// Package votes keeps the client-side record of which listings this visitor
// already liked or rated. It is advisory only: clearing the cookie or the
// file resets it.
package votes

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const CookieName = "appser_votes"

type Vote struct {
	Liked bool `json:"liked,omitempty" yaml:"liked,omitempty"`
	Rated bool `json:"rated,omitempty" yaml:"rated,omitempty"`
}

// Book maps listing id to this visitor's vote.
type Book map[string]Vote

func (b Book) Liked(appID string) bool { return b[appID].Liked }
func (b Book) Rated(appID string) bool { return b[appID].Rated }

func (b *Book) MarkLiked(appID string) {
	b.update(appID, func(v *Vote) { v.Liked = true })
}

func (b *Book) MarkRated(appID string) {
	b.update(appID, func(v *Vote) { v.Rated = true })
}

func (b *Book) update(appID string, fn func(*Vote)) {
	if *b == nil {
		*b = make(Book)
	}
	v := (*b)[appID]
	fn(&v)
	(*b)[appID] = v
}

// EncodeCookie serialises the book into a cookie-safe value.
func EncodeCookie(b Book) string {
	if len(b) == 0 {
		return ""
	}
	data, err := json.Marshal(b)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCookie never fails: a missing or malformed value is an empty book.
func DecodeCookie(value string) Book {
	b := make(Book)
	if value == "" {
		return b
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return b
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return make(Book)
	}
	return b
}

// Load reads a YAML vote file; a missing file is an empty book.
func Load(path string) (Book, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(Book), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read votes file: %w", err)
	}
	b := make(Book)
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse votes file: %w", err)
	}
	if b == nil {
		b = make(Book)
	}
	return b, nil
}

func Save(path string, b Book) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create votes directory: %w", err)
	}
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write votes file: %w", err)
	}
	return nil
}
