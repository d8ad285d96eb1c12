package scenario

import (
	"os"

	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Scenario is the parsed script of one game: the scene every character
// shares and the characters with their private knowledge and goals.
type Scenario struct {
	Title      string      `yaml:"title"`
	Scene      Scene       `yaml:"scene"`
	Characters []Character `yaml:"characters"`
}

type Scene struct {
	Name        string   `yaml:"name"`
	Environment string   `yaml:"environment"`
	Objects     []Object `yaml:"objects"`
}

// Object is a key item of the scene. Permission is either "Public" or the
// private tag of the character who knows about it.
type Object struct {
	Item       string `yaml:"item"`
	State      string `yaml:"state"`
	Permission string `yaml:"permission"`
}

type Character struct {
	Name          string       `yaml:"name"`
	Persona       string       `yaml:"persona"`
	Personality   []string     `yaml:"personality"`
	SpeakingStyle string       `yaml:"speaking_style"`
	Secret        string       `yaml:"secret"`
	PrivateFacts  []string     `yaml:"private_facts"`
	Goals         []model.Goal `yaml:"goals"`
}

// Model converts the scenario character into its session persona.
func (c *Character) Model() *model.Character {
	return &model.Character{
		Name:            model.CharacterID(c.Name),
		Persona:         c.Persona,
		PersonalityTags: c.Personality,
		SpeakingStyle:   c.SpeakingStyle,
		Goals:           c.Goals,
	}
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read scenario file", goerr.V("path", path))
	}

	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse scenario file", goerr.V("path", path))
	}

	if err := sc.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid scenario", goerr.V("path", path))
	}

	return &sc, nil
}

// Validate checks the scenario is playable: unique character names and
// object permissions that resolve to Public or a known character.
func (sc *Scenario) Validate() error {
	if sc.Title == "" {
		return goerr.New("scenario title is empty")
	}
	if len(sc.Characters) == 0 {
		return goerr.New("scenario has no characters")
	}

	names := make(map[string]struct{}, len(sc.Characters))
	for _, c := range sc.Characters {
		if c.Name == "" {
			return goerr.New("character name is empty")
		}
		if _, ok := names[c.Name]; ok {
			return goerr.New("duplicate character name", goerr.V("name", c.Name))
		}
		names[c.Name] = struct{}{}

		if c.Persona == "" {
			return goerr.New("character persona is empty", goerr.V("name", c.Name))
		}
	}

	for _, obj := range sc.Scene.Objects {
		tag := model.Tag(obj.Permission)
		if err := tag.Validate(); err != nil {
			return goerr.Wrap(err, "invalid object permission", goerr.V("item", obj.Item))
		}
		if tag.IsPrivate() {
			if _, ok := names[string(tag.Owner())]; !ok {
				return goerr.New("object permission references unknown character",
					goerr.V("item", obj.Item), goerr.V("permission", obj.Permission))
			}
		}
	}

	return nil
}
