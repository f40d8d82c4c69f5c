package trip

import (
	"fmt"
	"time"

	"github.com/mohammad-safakhou/roteiro/internal/pipeline"
)

// Output keys written by the trip stages, in execution order.
const (
	KeyPlan    = "plan"
	KeyLodging = "hotels"
	KeyLeisure = "leisure"
	KeyFood    = "food"
	KeyFinal   = "final"
)

const notInformed = "not informed"

const dateLayout = "2006-01-02"

// Request is the immutable trip input. Dates are ISO (YYYY-MM-DD) strings
// as they arrive from forms, flags and environment variables.
type Request struct {
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Budget      string `json:"budget,omitempty"`
	Preferences string `json:"preferences,omitempty"`
}

// ValidationError reports which input condition failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks required fields and date ordering. It runs before any
// model call is attempted.
func (r Request) Validate() error {
	if r.Destination == "" {
		return &ValidationError{Field: "destination", Reason: "destination is required"}
	}
	if r.StartDate == "" {
		return &ValidationError{Field: "start_date", Reason: "start date is required"}
	}
	if r.EndDate == "" {
		return &ValidationError{Field: "end_date", Reason: "end date is required"}
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return &ValidationError{Field: "start_date", Reason: "use ISO format YYYY-MM-DD"}
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return &ValidationError{Field: "end_date", Reason: "use ISO format YYYY-MM-DD"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "end_date", Reason: "end date must not be before start date"}
	}
	return nil
}

func orNotInformed(v string) string {
	if v == "" {
		return notInformed
	}
	return v
}

// Stages returns the five trip stages in their fixed order. Each builder
// interpolates every request field it declares and the prior outputs the
// stage depends on; optional fields render as an explicit placeholder
// rather than a gap.
func Stages(req Request) []pipeline.Stage {
	budget := orNotInformed(req.Budget)
	prefs := orNotInformed(req.Preferences)

	return []pipeline.Stage{
		{
			Name: "planner",
			Key:  KeyPlan,
			Build: func(s pipeline.State) (string, string) {
				system := "You structure objective, practical plans in three fixed steps."
				human := fmt.Sprintf(`TRIP RESEARCH PLAN

Destination: %s
Dates: %s to %s
Budget: %s
Preferences: %s

Your role: trip itinerary writer.
Goal: produce a research plan split into EXACTLY 3 numbered subtasks:
1) ACCOMMODATION; 2) SIGHTSEEING; 3) GASTRONOMY.

Output rules (markdown):
- List the 3 numbered subtasks, one sentence each.
- Then 3-5 selection criteria (bullets) weighing budget and preferences.
- Close with 1-2 lines of rationale.
Return only that content.`, req.Destination, req.StartDate, req.EndDate, budget, prefs)
				return system, human
			},
		},
		{
			Name: "lodging",
			Key:  KeyLodging,
			Build: func(s pipeline.State) (string, string) {
				system := "You verify hotel information and organise contact details."
				human := fmt.Sprintf(`LODGING

Destination: %s
Period: %s – %s
Budget: %s
Preferences: %s
Research plan:
%s

Deliver a markdown table with the columns Name | Address | Website | Phone.
Include 5-8 options and close with 2-4 sources (title + URL).`, req.Destination, req.StartDate, req.EndDate, budget, prefs, s.Get(KeyPlan))
				return system, human
			},
		},
		{
			Name: "leisure",
			Key:  KeyLeisure,
			Build: func(s pipeline.State) (string, string) {
				system := "You find attractions and events relevant to the dates."
				human := fmt.Sprintf(`LEISURE & EVENTS

Destination: %s
Period: %s – %s
Research plan:
%s

List 8-12 essential sights, each with a short description and link.
Then 3-5 events taking place within the period, same format.
Use lists only and close with 2-4 sources (title + URL).`, req.Destination, req.StartDate, req.EndDate, s.Get(KeyPlan))
				return system, human
			},
		},
		{
			Name: "food",
			Key:  KeyFood,
			Build: func(s pipeline.State) (string, string) {
				system := "You know the local dining scene and its specialities."
				human := fmt.Sprintf(`FOOD & DINING

Destination: %s
Preferences: %s
Research plan:
%s

1) Recommend 8-12 restaurants, delivered as a markdown table with the
   columns Name | District | Price Range | Cuisine | Website.
2) List 5-8 typical local dishes with a one-line explanation.
Close with 2-4 sources (title + URL).`, req.Destination, prefs, s.Get(KeyPlan))
				return system, human
			},
		},
		{
			Name: "writer",
			Key:  KeyFinal,
			Build: func(s pipeline.State) (string, string) {
				system := "You write clearly, didactically and in an organised way."
				human := fmt.Sprintf(`FINAL REPORT

Use the research plan and the LODGING, LEISURE and FOOD deliverables to
compose the final text (500-700 words).
Include:
- a brief introduction;
- one section each for where to stay, what to do and where to eat,
  incorporating the tables and lists where they help;
- a suggested high-level day-by-day itinerary;
- quick tips (transport, safety);
- a consolidated sources section.

Context:
- Destination: %s
- Dates: %s to %s
- Budget: %s
- Preferences: %s

=== PLAN ===
%s

=== LODGING ===
%s

=== LEISURE ===
%s

=== FOOD ===
%s`, req.Destination, req.StartDate, req.EndDate, budget, prefs,
					s.Get(KeyPlan), s.Get(KeyLodging), s.Get(KeyLeisure), s.Get(KeyFood))
				return system, human
			},
		},
	}
}

// Section pairs an output key with its presentation title.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Sections returns the fixed rendering order for trip outputs.
func Sections() []Section {
	return []Section{
		{Key: KeyPlan, Title: "Plan"},
		{Key: KeyLodging, Title: "Lodging"},
		{Key: KeyLeisure, Title: "Leisure & Events"},
		{Key: KeyFood, Title: "Food & Dining"},
		{Key: KeyFinal, Title: "Final Report"},
	}
}
