package models

// Outcome is the result of one processing attempt. Domain failures are
// carried as a reason string rather than an error so that pipeline stages
// cannot leak an unhandled fault past the processor boundary.
type Outcome struct {
	Delivered bool
	Reason    string
}

// DeliveredOutcome reports a successful attempt.
func DeliveredOutcome() Outcome {
	return Outcome{Delivered: true}
}

// Failure reports a failed attempt with the reason that will drive the retry
// decision and, on exhaustion, the status report.
func Failure(reason string) Outcome {
	return Outcome{Reason: reason}
}
