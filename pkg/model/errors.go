package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrStoreUnavailable indicates the vector index or the embedding
	// service could not be reached.
	ErrStoreUnavailable = goerr.New("knowledge store unavailable")

	// ErrMalformedJudgment indicates the conflict judgment returned by the
	// language model could not be parsed into a numeric result.
	ErrMalformedJudgment = goerr.New("malformed judgment response")

	// ErrGenerationFailed indicates the language model failed to produce
	// an utterance for the turn.
	ErrGenerationFailed = goerr.New("utterance generation failed")

	// ErrInvalidScope indicates an attempted cross-character permission
	// violation. This is a programming invariant violation and is rejected
	// before any store mutation.
	ErrInvalidScope = goerr.New("knowledge scope violation")

	ErrCharacterNotFound = goerr.New("character not found")
	ErrRoomNotFound      = goerr.New("room not found")
	ErrRoomExists        = goerr.New("room already exists")
)
