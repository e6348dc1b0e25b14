package models

import "time"

// Relay status trail. Informational only: the gateway branches on the
// classification fields (InputError, Timeout, ResultValid), never on Status.
const (
	StatusStarted  = "started"
	StatusSending  = "sending"
	StatusReceived = "received"
	StatusRead     = "read"
	StatusParsed   = "parsed"
	StatusOK       = "ok"
)

// CompareResult classifies how a backup response diverged from the primary
// response when comparison mode is enabled.
type CompareResult string

const (
	CompareBothFailed                    CompareResult = "both_failed"
	CompareBackupSucceeded               CompareResult = "backup_succeeded"
	CompareBackupFailed                  CompareResult = "backup_failed"
	CompareBothReturnedError             CompareResult = "both_returned_error"
	CompareBackupReturnedError           CompareResult = "backup_returned_error"
	CompareBackupReturnedResult          CompareResult = "backup_returned_result"
	CompareBothSucceededSameResult       CompareResult = "both_succeeded_same_result"
	CompareBothSucceededDifferentResult  CompareResult = "both_succeeded_different_result"
	CompareBothSucceededComparisonFailed CompareResult = "both_succeeded_comparison_failed"
)

// RequestRecord captures one relay attempt against one backend address.
// It is created and filled by the relay, stamped with identity fields by the
// gateway, and never mutated after that.
//
// Exactly one terminal condition holds: InputError is set and no network call
// was made (Code stays 0), or the call completed and Code/ResultValid describe
// the response, or Error/Timeout describe a transport failure.
type RequestRecord struct {
	ReqID            string        `json:"req_id"`
	ClientID         string        `json:"client_id"`
	Network          string        `json:"network"`
	ProviderInstance string        `json:"provider_instance,omitempty"`
	Backup           bool          `json:"backup"`
	Address          string        `json:"address"`
	Payload          string        `json:"payload"`
	Response         string        `json:"response,omitempty"`
	Status           string        `json:"status"`
	Code             int           `json:"code"`
	Date             time.Time     `json:"date"`
	ResponseTime     float64       `json:"response_time,omitempty"` // seconds
	InputError       string        `json:"input_error,omitempty"`
	Error            string        `json:"error,omitempty"`
	Timeout          bool          `json:"timeout"`
	ResultValid      bool          `json:"result_valid"`
	CompareResult    CompareResult `json:"compare_result,omitempty"`
}
