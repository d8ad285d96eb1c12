package room

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kagemusha-ai/kagemusha/pkg/adapter"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Transcript is the room's append-only conversation history. It is the only
// mutable state shared between engines, so all appends go through one lock
// and messages gain a total order.
type Transcript struct {
	mu       sync.Mutex
	messages []*model.Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds one message to the end of the log.
func (t *Transcript) Append(msg *model.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// Messages returns a snapshot copy of the log in append order.
func (t *Transcript) Messages() []*model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*model.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages in the log.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Archive serializes the transcript to the given storage key.
func (t *Transcript) Archive(ctx context.Context, st adapter.Storage, key string) error {
	raw, err := json.MarshalIndent(t.Messages(), "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal transcript")
	}

	w, err := st.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open transcript archive", goerr.V("key", key))
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write transcript archive", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize transcript archive", goerr.V("key", key))
	}

	return nil
}
