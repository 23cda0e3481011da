package workflow

import (
	"time"
)

// StepStatus is the lifecycle state of a step's last recorded result.
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusProcessing StepStatus = "processing"
	StatusSuccess    StepStatus = "success"
	StatusError      StepStatus = "error"
)

// Payload is a step-kind-specific result variant. Implementations are the
// five *Outcome types below; Kind tags the variant.
type Payload interface {
	Kind() StepKind
}

// StepResult is the last-known outcome for one step. Recording a new result
// for the same index replaces the prior one; no history is retained.
type StepResult struct {
	Status     StepStatus `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
	DurationMS int64      `json:"duration_ms,omitempty"`
	Error      string     `json:"error,omitempty"`
	Payload    Payload    `json:"payload,omitempty"`
}

// AnalyzeOutcome is the classifier's verdict on the source snippet.
type AnalyzeOutcome struct {
	Classification string `json:"classification"`
	ResourceType   string `json:"resource_type,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Convertible    bool   `json:"convertible"`
}

func (AnalyzeOutcome) Kind() StepKind { return StepAnalyze }

// ContextChunk is one retrieved reference document fragment.
type ContextChunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// ContextOutcome holds the chunks retrieved for the conversion.
type ContextOutcome struct {
	Chunks []ContextChunk `json:"chunks"`
}

func (ContextOutcome) Kind() StepKind { return StepContext }

// ConvertOutcome holds the generated playbook.
type ConvertOutcome struct {
	Playbook string `json:"playbook"`
	Raw      string `json:"raw,omitempty"`
}

func (ConvertOutcome) Kind() StepKind { return StepConvert }

// ValidationIssue is a single finding from the validation agent.
type ValidationIssue struct {
	Rule        string `json:"rule,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// ValidateOutcome is the validation verdict for a generated playbook.
// Passed reflects the lint result; the validation call itself having
// completed is tracked by the surrounding StepResult status.
type ValidateOutcome struct {
	Passed          bool              `json:"validation_passed"`
	ExitCode        int               `json:"exit_code"`
	Message         string            `json:"message,omitempty"`
	Issues          []ValidationIssue `json:"issues,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Analysis        string            `json:"agent_analysis,omitempty"`
}

func (ValidateOutcome) Kind() StepKind { return StepValidate }

// BlockingIssues counts issues at error severity.
func (v ValidateOutcome) BlockingIssues() int {
	n := 0
	for _, issue := range v.Issues {
		if issue.Severity == "error" || issue.Severity == "fatal" {
			n++
		}
	}
	return n
}

// DeployOutcome records the terminal deployment hand-off.
type DeployOutcome struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Target string `json:"target,omitempty"`
}

func (DeployOutcome) Kind() StepKind { return StepDeploy }

// LogEntry is one timestamped line in a step's log stream. The engine
// assigns the timestamp, not the caller.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}
