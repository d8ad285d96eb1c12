package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Tag is a permission label attached to every stored fact. A fact is either
// public to the whole room or private to exactly one character.
type Tag string

const (
	// TagPublic marks knowledge readable by every character.
	TagPublic Tag = "Public"

	privateTagPrefix = "Private_"
)

// PrivateTag returns the private permission tag of the given character.
func PrivateTag(char CharacterID) Tag {
	return Tag(privateTagPrefix + string(char))
}

// IsPrivate reports whether the tag is a character-private tag.
func (t Tag) IsPrivate() bool {
	return strings.HasPrefix(string(t), privateTagPrefix) && len(t) > len(privateTagPrefix)
}

// Owner returns the character a private tag belongs to, or empty for Public.
func (t Tag) Owner() CharacterID {
	if !t.IsPrivate() {
		return ""
	}
	return CharacterID(strings.TrimPrefix(string(t), privateTagPrefix))
}

// Validate checks if the tag is well-formed
func (t Tag) Validate() error {
	if t == TagPublic || t.IsPrivate() {
		return nil
	}
	return goerr.New("invalid permission tag", goerr.V("tag", t))
}

// Scope is the set of permission tags one character may read: always Public
// plus exactly one private tag, the character's own. Scopes can only be built
// through NewScope, so a scope holding another character's private tag cannot
// be constructed.
type Scope struct {
	character CharacterID
}

// NewScope returns the knowledge scope of the given character.
func NewScope(char CharacterID) Scope {
	return Scope{character: char}
}

// Character returns the character that owns the scope.
func (s Scope) Character() CharacterID {
	return s.character
}

// PrivateTag returns the scope owner's private tag.
func (s Scope) PrivateTag() Tag {
	return PrivateTag(s.character)
}

// AllowedTags returns the ordered tag set the scope may read.
func (s Scope) AllowedTags() []Tag {
	return []Tag{TagPublic, s.PrivateTag()}
}

// Allows reports whether the scope may read facts carrying the tag.
func (s Scope) Allows(t Tag) bool {
	return t == TagPublic || t == s.PrivateTag()
}
