package pipeline

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/janhq/deck-server/internal/domain/slide"
)

// PlannerOutput is the planner stage answer.
type PlannerOutput struct {
	Sections []PlanSection `json:"sections" jsonschema:"minItems=1"`
}

// PlanSection is one planned slide.
type PlanSection struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Goal       string           `json:"goal"`
	SlideType  slide.Type       `json:"slideType"`
	LayoutHint slide.LayoutHint `json:"layoutHint,omitempty"`
	SourceKeys []string         `json:"sourceKeys"`
	Images     []string         `json:"images,omitempty"`
}

// SlidesOutput is the storyboard and polish stage answer.
type SlidesOutput struct {
	Slides []slide.Slide `json:"slides" jsonschema:"minItems=1"`
}

// PatchesOutput is the critic and fact-repair stage answer.
type PatchesOutput struct {
	Patches []Patch `json:"patches"`
}

// Patch replaces the slide at Index.
type Patch struct {
	Index int         `json:"index" jsonschema:"minimum=0"`
	Slide slide.Slide `json:"slide"`
}

var (
	schemaOnce sync.Once
	schemas    map[string]string
)

// Schemas returns the JSON schemas handed to the generative stages, keyed by
// output name.
func Schemas() map[string]string {
	schemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			AllowAdditionalProperties: true,
			DoNotReference:            true,
			ExpandedStruct:            true,
		}
		schemas = map[string]string{}
		for name, v := range map[string]any{
			"plan":    &PlannerOutput{},
			"slides":  &SlidesOutput{},
			"patches": &PatchesOutput{},
		} {
			s := reflector.Reflect(v)
			data, err := json.Marshal(s)
			if err != nil {
				continue
			}
			schemas[name] = string(data)
		}
	})
	return schemas
}

func schemaFor(name string) string {
	return Schemas()[name]
}
