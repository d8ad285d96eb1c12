package room_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/repository"
	"github.com/kagemusha-ai/kagemusha/pkg/room"
	"github.com/kagemusha-ai/kagemusha/pkg/scenario"
	"github.com/m-mizutani/gt"
)

type mockEmbedder struct{}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type mockLLM struct {
	mu           sync.Mutex
	judgeReply   string
	respondReply string
}

func (m *mockLLM) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.Contains(userPrompt, "conflict_score") {
		return m.judgeReply, nil
	}
	return m.respondReply, nil
}

func manorScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Title: "山庄疑案",
		Scene: scenario.Scene{
			Name:        "书房",
			Environment: "暴风雪夜，山庄书房内发现了管家的尸体。",
		},
		Characters: []scenario.Character{
			{
				Name:    "李医生",
				Persona: "你是李医生，山庄的家庭医生。",
				Secret:  "你给管家开了过量的镇静剂。",
				Goals: []model.Goal{
					{Priority: 1, Description: "隐藏你与管家死亡的关联", Conceal: true},
				},
			},
			{
				Name:    "王管家",
				Persona: "你是死者的弟弟，性格直率。",
				Goals: []model.Goal{
					{Priority: 1, Description: "找出杀害哥哥的凶手"},
				},
			},
		},
	}
}

func newTestRoom(t *testing.T, llm *mockLLM) *room.Room {
	t.Helper()
	rm, err := room.New(context.Background(), room.NewInput{
		ID:       "room_test",
		Scenario: manorScenario(),
		Embedder: &mockEmbedder{},
		Index:    repository.NewMemory(),
		LLM:      llm,
	})
	gt.NoError(t, err)
	return rm
}

func TestRoomSetup(t *testing.T) {
	rm := newTestRoom(t, &mockLLM{})

	gt.Equal(t, rm.ID(), "room_test")
	gt.Equal(t, rm.Title(), "山庄疑案")
	gt.Equal(t, rm.Characters(), []model.CharacterID{"李医生", "王管家"})
	gt.Equal(t, rm.Transcript().Len(), 0)
}

func TestRoomGeneratesID(t *testing.T) {
	rm, err := room.New(context.Background(), room.NewInput{
		Scenario: manorScenario(),
		Embedder: &mockEmbedder{},
		Index:    repository.NewMemory(),
		LLM:      &mockLLM{},
	})
	gt.NoError(t, err)
	gt.True(t, strings.HasPrefix(string(rm.ID()), "room_"))
}

func TestRoomAsk(t *testing.T) {
	llm := &mockLLM{
		judgeReply:   `{"conflict_score": 0, "reason": "一致"}`,
		respondReply: "我当晚一直在房间里。",
	}
	rm := newTestRoom(t, llm)

	msg, err := rm.Ask(context.Background(), "侦探", "李医生", "你当晚去过书房吗？")
	gt.NoError(t, err)
	gt.NotNil(t, msg)
	gt.Equal(t, msg.Sender, "李医生")
	gt.Equal(t, msg.RoomID, "room_test")

	// Inbound question plus the reply, in order.
	messages := rm.Transcript().Messages()
	gt.Equal(t, len(messages), 2)
	gt.Equal(t, messages[0].Sender, "侦探")
	gt.Equal(t, messages[0].Content, "你当晚去过书房吗？")
	gt.Equal(t, messages[0].Strategy, model.Strategy(""))
	gt.Equal(t, messages[1], msg)
}

func TestRoomAskUnknownCharacter(t *testing.T) {
	rm := newTestRoom(t, &mockLLM{})

	_, err := rm.Ask(context.Background(), "侦探", "不存在的人", "你是谁？")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrCharacterNotFound))
	gt.Equal(t, rm.Transcript().Len(), 0)
}

func TestRoomSilentTurn(t *testing.T) {
	llm := &mockLLM{
		judgeReply:   `{"conflict_score": 0, "reason": "一致"}`,
		respondReply: "",
	}
	rm := newTestRoom(t, llm)

	msg, err := rm.Ask(context.Background(), "侦探", "李医生", "你有什么要说的？")
	gt.NoError(t, err)
	gt.Nil(t, msg)
	gt.Equal(t, rm.Transcript().Len(), 1)
}

func TestRoomSuspicionOf(t *testing.T) {
	rm := newTestRoom(t, &mockLLM{})

	score, err := rm.SuspicionOf("李医生", "侦探")
	gt.NoError(t, err)
	gt.Equal(t, score, 0)

	_, err = rm.SuspicionOf("不存在的人", "侦探")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrCharacterNotFound))
}

func TestRoomRequiresScenario(t *testing.T) {
	_, err := room.New(context.Background(), room.NewInput{})
	gt.Error(t, err)
}

func TestRegistry(t *testing.T) {
	registry := room.NewRegistry()
	rm := newTestRoom(t, &mockLLM{})

	gt.NoError(t, registry.Register(rm))

	err := registry.Register(rm)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrRoomExists))

	got, err := registry.Get("room_test")
	gt.NoError(t, err)
	gt.Equal(t, got, rm)

	_, err = registry.Get("room_gone")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrRoomNotFound))

	gt.Equal(t, registry.List(), []model.RoomID{"room_test"})

	registry.Delete("room_test")
	_, err = registry.Get("room_test")
	gt.Error(t, err)
}

func TestTranscriptConcurrentAppend(t *testing.T) {
	transcript := room.NewTranscript()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transcript.Append(&model.Message{
				ID:      model.NewMessageID(),
				Sender:  "侦探",
				Content: "并发追问",
			})
		}()
	}
	wg.Wait()

	gt.Equal(t, transcript.Len(), 100)
	gt.Equal(t, len(transcript.Messages()), 100)
}
