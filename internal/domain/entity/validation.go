package entity

// StateValidation is the oracle's opinion on whether the page is ready for
// the next step.
type StateValidation struct {
	Valid          bool     `json:"valid"`
	Issues         []string `json:"issues"`
	ReadyToProceed bool     `json:"ready_to_proceed"`
}
