package organize

// Observer receives run progress. The engine calls it synchronously from the single
// worker running the plan, so implementations only need to be safe against their own
// readers.
type Observer interface {
	// OnStart is called once with the number of files about to be processed.
	OnStart(files int)
	// OnOutcome is called for every outcome, in emission order.
	OnOutcome(o Outcome)
}

type nopObserver struct{}

func (nopObserver) OnStart(int)       {}
func (nopObserver) OnOutcome(Outcome) {}
