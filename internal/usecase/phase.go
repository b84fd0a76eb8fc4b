package usecase

// Phase is the orchestrator's position in a run.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseRunningSource  Phase = "running_source"
	PhaseBetweenSources Phase = "between_sources"
	PhaseFinalizing     Phase = "finalizing"
	PhaseDone           Phase = "done"
)

// Progress is a snapshot of the orchestrator. StageIndex is -1 outside source stages.
type Progress struct {
	Phase      Phase
	StageIndex int
	Stage      string
}
