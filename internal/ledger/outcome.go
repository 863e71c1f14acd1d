package ledger

// Status distinguishes how an event was settled. Skipped covers data-dependent
// conditions that abort processing without being errors (zero-value transfer,
// pool id beyond poolLength); Failed means an external read failed and the
// event should be surfaced to the delivery layer.
type Status int

const (
	Applied Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is returned by every ledger operation alongside the error. Reason is
// set for Skipped and Failed outcomes so handlers and tests can assert which
// branch ran.
type Outcome struct {
	Status Status
	Reason string
}

func applied() Outcome {
	return Outcome{Status: Applied}
}

func skipped(reason string) Outcome {
	return Outcome{Status: Skipped, Reason: reason}
}

func failed(reason string) Outcome {
	return Outcome{Status: Failed, Reason: reason}
}
