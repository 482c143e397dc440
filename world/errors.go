package world

import "errors"

// Error kinds from the error taxonomy (§7). Each is a sentinel checked with
// errors.Is; callers wrap it with context via fmt.Errorf("...: %w", err).
var (
	ErrIoFailure                   = errors.New("world: io failure")
	ErrBlobNotFound                = errors.New("world: blob not found")
	ErrBlobHashMismatch            = errors.New("world: blob hash mismatch")
	ErrCapabilityMissing           = errors.New("world: capability missing")
	ErrCapabilityExpired           = errors.New("world: capability expired")
	ErrCapabilityNotAllowed        = errors.New("world: capability not allowed for scope")
	ErrPolicyDenied                = errors.New("world: policy denied")
	ErrModuleCallFailed            = errors.New("world: module call failed")
	ErrModuleChangeInvalid         = errors.New("world: module change invalid")
	ErrRuleDecisionMergeConflict   = errors.New("world: rule decision merge conflict")
	ErrJournalMismatch             = errors.New("world: journal mismatch")
	ErrDistributedValidationFailed = errors.New("world: distributed validation failed")
	ErrGovernanceFinalityInvalid   = errors.New("world: governance finality invalid")
	ErrReplicationConflict         = errors.New("world: replication writer or sequence conflict")

	ErrActionIDMismatch    = errors.New("world: action id mismatch across decisions")
	ErrMissingOverride     = errors.New("world: modify verdict missing override action")
	ErrConflictingOverride = errors.New("world: conflicting override actions")

	ErrReceiptUnknownIntent = errors.New("world: receipt references unknown intent")
)
