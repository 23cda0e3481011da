package workflow

// Predicate decides whether a successful result is good enough to mark its
// step completed. Predicates are only consulted for results with status
// success; any other status never advances.
type Predicate func(res *StepResult) bool

// PredicateSet maps each step kind to its advancement rule. Registering a
// new kind touches neither the gate nor the stores.
type PredicateSet map[StepKind]Predicate

// PredicateOptions tune the built-in rules.
type PredicateOptions struct {
	// ValidateRequiresPass demands zero blocking issues before the
	// Validate step counts as completed. When false (the reference
	// behavior) a validation run that completed at all is sufficient.
	ValidateRequiresPass bool
}

// DefaultPredicates returns the advancement rules for the reference
// pipeline.
func DefaultPredicates(opts PredicateOptions) PredicateSet {
	return PredicateSet{
		StepAnalyze: func(res *StepResult) bool {
			p, ok := res.Payload.(AnalyzeOutcome)
			return ok && p.Convertible
		},
		StepContext: func(res *StepResult) bool {
			p, ok := res.Payload.(ContextOutcome)
			return ok && len(p.Chunks) > 0
		},
		StepConvert: func(res *StepResult) bool {
			p, ok := res.Payload.(ConvertOutcome)
			return ok && p.Playbook != ""
		},
		StepValidate: func(res *StepResult) bool {
			p, ok := res.Payload.(ValidateOutcome)
			if !ok {
				return false
			}
			if opts.ValidateRequiresPass {
				return p.Passed && p.BlockingIssues() == 0
			}
			return true
		},
		// Terminal step: there is no step after deploy, but marking it
		// completed lets the summary report a finished pipeline.
		StepDeploy: func(res *StepResult) bool {
			_, ok := res.Payload.(DeployOutcome)
			return ok
		},
	}
}

// Eval applies the rule for kind. Unknown kinds and non-success results
// never advance.
func (ps PredicateSet) Eval(kind StepKind, res *StepResult) bool {
	if res == nil || res.Status != StatusSuccess {
		return false
	}
	pred, ok := ps[kind]
	if !ok {
		return false
	}
	return pred(res)
}
