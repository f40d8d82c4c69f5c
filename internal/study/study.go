package study

import (
	"fmt"

	"github.com/mohammad-safakhou/roteiro/internal/pipeline"
)

// Output keys written by the study stages, in execution order.
const (
	KeySummary   = "summary"
	KeyExamples  = "examples"
	KeyExercises = "exercises"
	KeyAnswerKey = "answer_key"
)

const notInformed = "not informed"

// Request is the immutable study-material input.
type Request struct {
	Topic     string `json:"topic"`
	Audience  string `json:"audience,omitempty"`
	Objective string `json:"objective,omitempty"`
	// AnswerKey appends the answer-key stage to the pipeline.
	AnswerKey bool `json:"answer_key"`
}

// ValidationError reports which input condition failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks required fields before any model call.
func (r Request) Validate() error {
	if r.Topic == "" {
		return &ValidationError{Field: "topic", Reason: "topic is required"}
	}
	return nil
}

func orNotInformed(v string) string {
	if v == "" {
		return notInformed
	}
	return v
}

// Stages resolves the enabled stage list once for the request: summary,
// examples and exercises always, the answer key only when toggled on.
func Stages(req Request) []pipeline.Stage {
	audience := orNotInformed(req.Audience)
	objective := orNotInformed(req.Objective)

	stages := []pipeline.Stage{
		{
			Name: "summary",
			Key:  KeySummary,
			Build: func(s pipeline.State) (string, string) {
				system := "You turn technical and academic topics into short, precise explanations."
				human := fmt.Sprintf(`SUMMARY

Theme: %s
Audience: %s
Objective: %s

Write a didactic overview of the theme for the stated audience, aligned
with the objective. Include: a definition (2-3 sentences), why it matters
(1-2), where it applies (1-2) and 3-5 key ideas as bullets.
150-220 words, markdown, with a title.`, req.Topic, audience, objective)
				return system, human
			},
		},
		{
			Name: "examples",
			Key:  KeyExamples,
			Build: func(s pipeline.State) (string, string) {
				system := "You show the concept in action through brief, concrete cases."
				human := fmt.Sprintf(`EXAMPLES

Theme: %s
Audience: %s
Theme overview for reference:
%s

Produce 4 short, contextualised cases about the theme. Pattern (up to 5
lines each): bold title; scenario; input data when relevant; how to apply
it in 1-2 sentences; the result.
Deliver a numbered list (1-4) in markdown.`, req.Topic, audience, s.Get(KeySummary))
				return system, human
			},
		},
		{
			Name: "exercises",
			Key:  KeyExercises,
			Build: func(s pipeline.State) (string, string) {
				system := "You create quick activities that anchor the essential concepts."
				human := fmt.Sprintf(`EXERCISES

Theme: %s
Theme overview for reference:
%s

Create 3 simple activities about the theme. Vary the format (multiple
choice, true/false, fill-in, short solution). Clear statements. Do NOT
include the solutions.
Deliver a numbered list (1-3) in markdown.`, req.Topic, s.Get(KeySummary))
				return system, human
			},
		},
	}

	if req.AnswerKey {
		stages = append(stages, pipeline.Stage{
			Name: "answer_key",
			Key:  KeyAnswerKey,
			Build: func(s pipeline.State) (string, string) {
				system := "You check consistency and briefly explain why each response is right."
				human := fmt.Sprintf(`ANSWER KEY

Theme: %s
Activities delivered earlier:
%s

Based on the activities above, produce the official answer key for items
1-3. For each item give:
- **Response:** (letter/value/solution)
- **Comment:** a brief justification (1-2 sentences) citing the key concept.
Deliver a numbered list (1-3) in markdown.`, req.Topic, s.Get(KeyExercises))
				return system, human
			},
		})
	}

	return stages
}

// Section pairs an output key with its presentation title.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Sections returns the rendering order for the resolved stage list.
func Sections(answerKey bool) []Section {
	sections := []Section{
		{Key: KeySummary, Title: "Summary"},
		{Key: KeyExamples, Title: "Examples"},
		{Key: KeyExercises, Title: "Exercises"},
	}
	if answerKey {
		sections = append(sections, Section{Key: KeyAnswerKey, Title: "Answer Key"})
	}
	return sections
}
