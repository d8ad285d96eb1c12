package engine

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/judge.md
var judgePromptRaw string

//go:embed prompt/respond.md
var respondPromptRaw string

var (
	judgePromptTmpl   = template.Must(template.New("judge").Parse(judgePromptRaw))
	respondPromptTmpl = template.Must(template.New("respond").Parse(respondPromptRaw))
)

const (
	judgeSystemPrompt = "你是专业的逻辑分析师。"
	judgeTemperature  = 0.1
)

func buildJudgePrompt(name model.CharacterID, memories []string, speaker model.CharacterID, claim string) (string, error) {
	var buf bytes.Buffer
	err := judgePromptTmpl.Execute(&buf, map[string]any{
		"Name":     name,
		"Memories": memories,
		"Speaker":  speaker,
		"Claim":    claim,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render judge prompt")
	}
	return buf.String(), nil
}

func buildRespondPrompt(name model.CharacterID, strategy model.Strategy, memories []string, speaker model.CharacterID, claim string) (string, error) {
	var buf bytes.Buffer
	err := respondPromptTmpl.Execute(&buf, map[string]any{
		"Name":        name,
		"Strategy":    strategy,
		"Instruction": strategy.Instruction(),
		"Memories":    memories,
		"Speaker":     speaker,
		"Claim":       claim,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render respond prompt")
	}
	return buf.String(), nil
}
