package model

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/m-mizutani/goerr/v2"
)

type FactID string

// NewFactID derives the identity of a fact from its text. Identical text
// always yields the identical ID, so re-inserting the same fact deduplicates.
func NewFactID(content string) FactID {
	sum := sha256.Sum256([]byte(content))
	return FactID(hex.EncodeToString(sum[:])[:16])
}

type Kind string

const (
	KindFact  Kind = "fact"
	KindClue  Kind = "clue"
	KindEvent Kind = "event"
)

// Validate checks if the knowledge kind is valid
func (k Kind) Validate() error {
	switch k {
	case KindFact, KindClue, KindEvent:
		return nil
	default:
		return goerr.New("invalid knowledge kind", goerr.V("kind", k))
	}
}

// Fact is a unit of knowledge. Facts are immutable once stored.
type Fact struct {
	ID       FactID
	Content  string
	Tag      Tag
	Kind     Kind
	Metadata map[string]string
}

// NewFact builds a fact with its content-derived ID.
func NewFact(content string, tag Tag, kind Kind) *Fact {
	return &Fact{
		ID:      NewFactID(content),
		Content: content,
		Tag:     tag,
		Kind:    kind,
	}
}

// Validate checks if the fact can be stored.
func (f *Fact) Validate() error {
	if f.Content == "" {
		return goerr.New("fact content is empty")
	}
	if err := f.Tag.Validate(); err != nil {
		return err
	}
	if err := f.Kind.Validate(); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = NewFactID(f.Content)
	}
	return nil
}
