package model

// Goal is a ranked objective of a character. The goal list is fixed at agent
// construction; the top-priority goal drives strategy selection.
type Goal struct {
	Priority    int      `yaml:"priority"`
	Description string   `yaml:"description"`
	Conceal     bool     `yaml:"conceal"`
	SubGoals    []string `yaml:"sub_goals"`
}

// TopGoal returns the most urgent goal (lowest priority value). The second
// return value is false when the list is empty.
func TopGoal(goals []Goal) (Goal, bool) {
	if len(goals) == 0 {
		return Goal{}, false
	}
	top := goals[0]
	for _, g := range goals[1:] {
		if g.Priority < top.Priority {
			top = g
		}
	}
	return top, true
}
