package scenario_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/kagemusha-ai/kagemusha/pkg/knowledge"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/repository"
	"github.com/kagemusha-ai/kagemusha/pkg/scenario"
	"github.com/m-mizutani/gt"
)

type mockEmbedder struct{}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func TestLoad(t *testing.T) {
	sc, err := scenario.Load("testdata/manor.yml")
	gt.NoError(t, err)

	gt.Equal(t, sc.Title, "山庄疑案")
	gt.Equal(t, sc.Scene.Name, "书房")
	gt.Equal(t, len(sc.Scene.Objects), 2)
	gt.Equal(t, len(sc.Characters), 2)

	doctor := sc.Characters[0]
	gt.Equal(t, doctor.Name, "李医生")
	gt.Equal(t, doctor.Secret, "你给管家开了过量的镇静剂。")
	gt.Equal(t, len(doctor.Goals), 2)
	gt.Equal(t, doctor.Goals[0].Priority, 1)
	gt.True(t, doctor.Goals[0].Conceal)
	gt.Equal(t, doctor.Goals[0].SubGoals, []string{"避免谈及处方笺"})

	persona := doctor.Model()
	gt.Equal(t, persona.Name, "李医生")
	gt.Equal(t, persona.PersonalityTags, []string{"冷静", "谨慎"})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := scenario.Load("testdata/no-such-file.yml")
	gt.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *scenario.Scenario {
		return &scenario.Scenario{
			Title: "测试剧本",
			Characters: []scenario.Character{
				{Name: "甲", Persona: "你是甲。"},
				{Name: "乙", Persona: "你是乙。"},
			},
		}
	}

	gt.NoError(t, base().Validate())

	sc := base()
	sc.Title = ""
	gt.Error(t, sc.Validate())

	sc = base()
	sc.Characters = nil
	gt.Error(t, sc.Validate())

	sc = base()
	sc.Characters[1].Name = "甲"
	gt.Error(t, sc.Validate())

	sc = base()
	sc.Characters[0].Persona = ""
	gt.Error(t, sc.Validate())

	sc = base()
	sc.Scene.Objects = []scenario.Object{
		{Item: "钥匙", State: "失踪", Permission: "Secret"},
	}
	gt.Error(t, sc.Validate())

	sc = base()
	sc.Scene.Objects = []scenario.Object{
		{Item: "钥匙", State: "失踪", Permission: "Private_丙"},
	}
	gt.Error(t, sc.Validate())
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	sc, err := scenario.Load("testdata/manor.yml")
	gt.NoError(t, err)

	index := repository.NewMemory()
	store := knowledge.New(&mockEmbedder{}, index, "room_test")
	gt.NoError(t, scenario.Seed(ctx, store, sc))

	// Doctor: environment, scene name, public clue, private clue, secret and
	// one private fact. The brother gets only the shared scene knowledge.
	gt.Equal(t, index.Count(fmt.Sprintf("game_%s_agent_%s", "room_test", "李医生")), 6)
	gt.Equal(t, index.Count(fmt.Sprintf("game_%s_agent_%s", "room_test", "王先生")), 3)

	doctor := model.NewScope("李医生")
	hits, err := store.Search(ctx, doctor, "处方笺", nil, 10, 0)
	gt.NoError(t, err)
	gt.Equal(t, len(hits), 6)

	// The brother sees the public clue but never the doctor's prescription.
	brother := model.NewScope("王先生")
	hits, err = store.Search(ctx, brother, "书房里有什么", nil, 10, 0)
	gt.NoError(t, err)
	gt.Equal(t, len(hits), 3)
	for _, hit := range hits {
		gt.Equal(t, hit.Fact.Tag, model.TagPublic)
	}
}
