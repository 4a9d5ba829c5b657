package workflow

// Step identifies a stage of the listing workflow.
type Step string

// Workflow steps. The machine is cyclic: publishing always returns to
// capture so the next item can start immediately.
const (
	StepCapture      Step = "capture"
	StepPreview      Step = "preview"
	StepMarketplaces Step = "marketplaces"
	StepPublishing   Step = "publishing"
)

var transitions = map[Step]map[Step]struct{}{
	StepCapture: {StepPreview: {}},
	StepPreview: {
		StepCapture:      {},
		StepMarketplaces: {},
	},
	StepMarketplaces: {
		StepPreview:    {},
		StepPublishing: {},
	},
	StepPublishing: {StepCapture: {}},
}

// CanTransition returns whether the workflow may move from one step to the
// other.
func CanTransition(from, to Step) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
