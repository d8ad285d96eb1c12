package engine

import (
	"encoding/json"
	"strings"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// judgment is the structured result the evaluator must return.
type judgment struct {
	ConflictScore float64 `json:"conflict_score"`
	Reason        string  `json:"reason"`
}

// parseJudgment decodes a conflict judgment from raw model output. Models
// wrap JSON in markdown fences or chatter around it, so known wrapping is
// stripped before decoding. Anything still unparseable, or a score outside
// [0,100], is a malformed judgment.
func parseJudgment(raw string) (*judgment, error) {
	cleaned := extractJSONObject(stripCodeFences(raw))

	var j judgment
	if err := json.Unmarshal([]byte(cleaned), &j); err != nil {
		return nil, goerr.Wrap(model.ErrMalformedJudgment, "judgment is not valid JSON",
			goerr.V("raw", raw))
	}
	if j.ConflictScore < 0 || j.ConflictScore > 100 {
		return nil, goerr.Wrap(model.ErrMalformedJudgment, "conflict score out of range",
			goerr.V("score", j.ConflictScore))
	}

	return &j, nil
}

// stripCodeFences removes ```...``` wrapping, dropping a language identifier
// on the opening fence.
func stripCodeFences(s string) string {
	for {
		open := strings.Index(s, "```")
		if open < 0 {
			return s
		}
		end := strings.Index(s[open+3:], "```")
		if end < 0 {
			return s
		}
		end += open + 3

		content := s[open+3 : end]
		if nl := strings.Index(content, "\n"); nl >= 0 {
			content = content[nl+1:]
		}
		s = s[:open] + content + s[end+3:]
	}
}

// extractJSONObject narrows the text to the first balanced JSON object.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	s = s[start:]

	depth := 0
	inString := false
	escape := false
	for i, c := range s {
		if escape {
			escape = false
			continue
		}
		switch c {
		case '\\':
			escape = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1]
				}
			}
		}
	}
	return s
}
