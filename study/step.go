// Package study holds the record types exchanged with the study backend:
// task steps, image themes, answer choices and task progress. Steps and
// themes are polymorphic and travel with a discriminator member.
package study

import "time"

// Step is one screen of a study task.
type Step interface {
	StepIdentifier() string
}

// InstructionStep shows text and an optional image.
type InstructionStep struct {
	Identifier string     `json:"identifier"`
	Title      string     `json:"title,omitempty"`
	Text       string     `json:"text,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	Image      ImageTheme `json:"image,omitempty"`
}

// FormStep asks the participant to pick among choices.
type FormStep struct {
	Identifier string     `json:"identifier"`
	Title      string     `json:"title,omitempty"`
	Text       string     `json:"text,omitempty"`
	Choices    []Choice   `json:"choices"`
	Optional   bool       `json:"optional,omitempty"`
	Image      ImageTheme `json:"image,omitempty"`
}

// ActiveStep runs a timed activity. Duration is in seconds.
type ActiveStep struct {
	Identifier string   `json:"identifier"`
	Title      string   `json:"title,omitempty"`
	Text       string   `json:"text,omitempty"`
	Duration   float64  `json:"duration"`
	Commands   []string `json:"commands,omitempty"`

	// SpokenInstructions maps a second offset ("0", "5", ...) to text.
	SpokenInstructions map[string]string `json:"spokenInstructions,omitempty"`
}

// CompletionStep ends a task.
type CompletionStep struct {
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title,omitempty"`
	Text        string    `json:"text,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// SectionStep groups nested steps.
type SectionStep struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title,omitempty"`
	Steps      []Step `json:"steps"`
}

// UIStep is the generic step used for labels this client does not know.
// Type keeps the label it was decoded from, under whichever discriminator
// field the registry uses, and is written back first when encoding.
type UIStep struct {
	Type       string `json:"-"`
	Identifier string `json:"identifier"`
	Title      string `json:"title,omitempty"`
	Text       string `json:"text,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (s InstructionStep) StepIdentifier() string { return s.Identifier }
func (s FormStep) StepIdentifier() string        { return s.Identifier }
func (s ActiveStep) StepIdentifier() string      { return s.Identifier }
func (s CompletionStep) StepIdentifier() string  { return s.Identifier }
func (s SectionStep) StepIdentifier() string     { return s.Identifier }
func (s UIStep) StepIdentifier() string          { return s.Identifier }

// Walk calls fn for every step in depth-first order, descending into
// sections, until fn returns false.
func Walk(steps []Step, fn func(Step) bool) bool {
	for _, s := range steps {
		if !fn(s) {
			return false
		}
		if sec, ok := s.(SectionStep); ok {
			if !Walk(sec.Steps, fn) {
				return false
			}
		}
	}
	return true
}
