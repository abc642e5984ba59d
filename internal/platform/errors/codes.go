// Package errors provides structured, coded error handling for LedgerVest.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Parameter validation errors
	CodeInvalidParameter Code = "INVALID_PARAMETER"
	CodeInvalidAddress   Code = "INVALID_ADDRESS"
	CodeInvalidAmount    Code = "INVALID_AMOUNT"

	// Campaign errors
	CodeContributionTooSmall   Code = "CONTRIBUTION_TOO_SMALL"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeInsufficientApprovals  Code = "INSUFFICIENT_APPROVALS"
	CodeInsufficientFunds      Code = "INSUFFICIENT_FUNDS"
	CodeRequestAlreadyFinal    Code = "REQUEST_ALREADY_FINALIZED"
	CodeRequestAlreadyApproved Code = "REQUEST_ALREADY_APPROVED"

	// Ledger errors
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Journal errors
	CodeJournalDiverged Code = "JOURNAL_DIVERGED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidParameter,
		CodeInvalidAddress,
		CodeInvalidAmount,
		CodeContributionTooSmall:
		return http.StatusBadRequest

	// Forbidden - caller lacks the required role
	case CodeUnauthorized:
		return http.StatusForbidden

	// Precondition failed - state doesn't allow the operation
	case CodeInsufficientApprovals,
		CodeInsufficientFunds,
		CodeInsufficientBalance:
		return http.StatusPreconditionFailed

	// Conflict - terminal or duplicate state
	case CodeRequestAlreadyFinal,
		CodeRequestAlreadyApproved:
		return http.StatusConflict

	// Not found - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
