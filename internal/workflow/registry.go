// Package workflow implements the step-gated conversion pipeline engine:
// a fixed ordered list of steps, per-step result and log storage, an
// accessibility gate for navigation, and per-step advancement rules.
package workflow

// StepKind identifies one stage of the conversion pipeline.
type StepKind string

const (
	StepAnalyze  StepKind = "analyze"
	StepContext  StepKind = "context"
	StepConvert  StepKind = "convert"
	StepValidate StepKind = "validate"
	StepDeploy   StepKind = "deploy"
)

// StepDef describes a single pipeline step.
type StepDef struct {
	Kind  StepKind `json:"kind"`
	Label string   `json:"label"`
}

// Registry is the static ordered list of pipeline steps. It carries no
// mutable state; step indices are positions in this list.
type Registry struct {
	steps []StepDef
}

// NewRegistry builds a registry from an ordered step list.
func NewRegistry(steps []StepDef) *Registry {
	return &Registry{steps: steps}
}

// DefaultRegistry returns the reference five-step conversion pipeline.
func DefaultRegistry() *Registry {
	return NewRegistry([]StepDef{
		{Kind: StepAnalyze, Label: "Analyze"},
		{Kind: StepContext, Label: "Context"},
		{Kind: StepConvert, Label: "Convert"},
		{Kind: StepValidate, Label: "Validate"},
		{Kind: StepDeploy, Label: "Deploy"},
	})
}

// Len returns the number of steps in the pipeline.
func (r *Registry) Len() int {
	return len(r.steps)
}

// Step returns the definition at index. ok is false when the index is out
// of range.
func (r *Registry) Step(index int) (StepDef, bool) {
	if index < 0 || index >= len(r.steps) {
		return StepDef{}, false
	}
	return r.steps[index], true
}

// Kind returns the step kind at index, or "" when out of range.
func (r *Registry) Kind(index int) StepKind {
	def, ok := r.Step(index)
	if !ok {
		return ""
	}
	return def.Kind
}

// IndexOf returns the position of a step kind, or -1 when the pipeline has
// no such step.
func (r *Registry) IndexOf(kind StepKind) int {
	for i, def := range r.steps {
		if def.Kind == kind {
			return i
		}
	}
	return -1
}

// Steps returns a copy of the ordered step definitions.
func (r *Registry) Steps() []StepDef {
	out := make([]StepDef, len(r.steps))
	copy(out, r.steps)
	return out
}
