package llm

import (
	"context"
	"strings"
)

// StubProvider is a deterministic offline substitute for the real
// capability. It scans the concatenated prompt text for stage marker words
// and returns a fixed, structurally valid body: a markdown table where a
// table is expected, lists where lists are expected, prose otherwise. The
// routing is a heuristic over prompt text — a prompt that embeds an earlier
// stage's marker word is routed to that earlier stage's body. That hazard
// is intentional and pinned by tests.
type StubProvider struct{}

// NewStubProvider creates the stub capability
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

// Generate routes the prompt to a canned body. It never fails and performs
// no I/O, so it is usable in tests and fully offline runs.
func (p *StubProvider) Generate(_ context.Context, messages []Message) (string, error) {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Content)
	}
	prompt := strings.ToUpper(sb.String())

	switch {
	case strings.Contains(prompt, "LODGING") && strings.Contains(prompt, "TABLE"):
		return stubLodging, nil
	case strings.Contains(prompt, "LEISURE"):
		return stubLeisure, nil
	case strings.Contains(prompt, "FOOD"):
		return stubFood, nil
	case strings.Contains(prompt, "FINAL REPORT"):
		return stubReport, nil
	case strings.Contains(prompt, "SUMMARY"):
		return stubSummary, nil
	case strings.Contains(prompt, "EXAMPLES"):
		return stubExamples, nil
	case strings.Contains(prompt, "ANSWER KEY"):
		return stubAnswerKey, nil
	case strings.Contains(prompt, "EXERCISES"):
		return stubExercises, nil
	}
	return stubPlan, nil
}

const stubPlan = `1) ACCOMMODATION — Shortlist well-located stays with good value for the dates.
2) SIGHTSEEING — Map the essential attractions and events within the period.
3) GASTRONOMY — Survey restaurants and typical local dishes.

**Criteria**
- Proximity to transit and the city centre
- Consistent reviews
- Fit with budget and preferences
- Variety of experiences

Rationale: splitting the research into three fixed pillars keeps decisions simple.`

const stubLodging = `| Name | Address | Website | Phone |
| --- | --- | --- | --- |
| Hotel Central | 123 Main St | https://hotelcentral.example | +351 21 000 000 |
| Boutique Vista | 456 Hill Ave | https://boutiquevista.example | +351 21 111 111 |
| Harbour Inn | 789 Quay Rd | https://harbourinn.example | +351 21 222 222 |

**Sources**: [Local Tourism Board](https://tourism.example), [Sample Guides](https://guides.example)`

const stubLeisure = `- Historic Castle — Panoramic city views. <https://castle.example>
- Art Museum — Modern collections. <https://museum.example>
- Central Market — Local flavours. <https://market.example>

**Events in the period**
- Summer Festival — Open-air music. <https://festival.example>
- Book Fair — Local authors. <https://bookfair.example>

**Sources**: [Cultural Agenda](https://agenda.example)`

const stubFood = `| Name | District | Price Range | Cuisine | Website |
| --- | --- | --- | --- | --- |
| Old Town Tavern | Centre | $$ | Portuguese | https://tavern.example |
| Sea & Grill | Riverside | $$$ | Fish and grills | https://seagrill.example |

**Typical dishes**: Bacalhau à Brás, Pastel de Nata, Caldo Verde, Francesinha.

**Sources**: [Dining Guide](https://dining.example)`

const stubReport = `Introduction: this itinerary brings together stays, attractions and dining options for a balanced visit.

Stays: see the comparison above.

Attractions: cultural highlights and events within the period.

Dining: recommended restaurants and typical dishes.

Day by day: day 1 — historic centre; day 2 — museums; day 3 — waterfront.

Quick tips: buy tickets ahead; use public transport; mind your belongings.

Sources: consolidated at the end of each section.`

const stubSummary = `# Overview

A short, didactic explanation of the requested theme: what it is, why it
matters, and where it applies in practice.

**Key ideas**
- Core definition in plain language
- One concrete application
- Common pitfalls to avoid`

const stubExamples = `1. **At the checkout** — scenario, input data, how the idea applies, outcome.
2. **On the factory floor** — scenario, input data, how the idea applies, outcome.
3. **In the classroom** — scenario, input data, how the idea applies, outcome.
4. **At home** — scenario, input data, how the idea applies, outcome.`

const stubExercises = `1. Multiple choice: which option best describes the core concept? (a) first option (b) second option (c) third option
2. True or false: the concept only applies in theory.
3. Short response: describe one practical application in two sentences.`

const stubAnswerKey = `1. **Response:** (b) — **Comment:** it captures the defining property of the concept.
2. **Response:** false — **Comment:** the concept shows up in everyday practice.
3. **Response:** open — **Comment:** accept any application naming the concept and its effect.`
