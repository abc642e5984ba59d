package domain

import apperrors "github.com/ledgervest/ledgervest/internal/platform/errors"

var (
	// ErrNonPositiveMinimum indicates a zero or negative minimum contribution.
	ErrNonPositiveMinimum = apperrors.New(apperrors.CodeInvalidParameter, "minimum contribution must be positive")
	// ErrInvalidManager indicates a missing campaign manager address.
	ErrInvalidManager = apperrors.New(apperrors.CodeInvalidParameter, "campaign manager address is required")
	// ErrInvalidRecipient indicates a missing spending request recipient.
	ErrInvalidRecipient = apperrors.New(apperrors.CodeInvalidParameter, "spending request recipient is required")
	// ErrNonPositiveValue indicates a zero or negative spending request value.
	ErrNonPositiveValue = apperrors.New(apperrors.CodeInvalidParameter, "spending request value must be positive")
	// ErrInvalidThreshold indicates an approval threshold outside 1..100.
	ErrInvalidThreshold = apperrors.New(apperrors.CodeInvalidParameter, "approval threshold must be between 1 and 100")
	// ErrContributionTooSmall indicates a contribution below the campaign minimum.
	ErrContributionTooSmall = apperrors.New(apperrors.CodeContributionTooSmall, "contribution is below the campaign minimum")
	// ErrNotManager indicates a manager-only operation attempted by another address.
	ErrNotManager = apperrors.New(apperrors.CodeUnauthorized, "only the campaign manager may perform this operation")
	// ErrNotApprover indicates a vote from an address that never met the minimum contribution.
	ErrNotApprover = apperrors.New(apperrors.CodeUnauthorized, "only approvers may vote on spending requests")
	// ErrRequestNotFound indicates a spending request index out of range.
	ErrRequestNotFound = apperrors.New(apperrors.CodeNotFound, "spending request does not exist")
	// ErrAlreadyApproved indicates a repeat vote on the same spending request.
	ErrAlreadyApproved = apperrors.New(apperrors.CodeRequestAlreadyApproved, "caller already approved this spending request")
	// ErrRequestFinalized indicates an operation on a spending request in terminal state.
	ErrRequestFinalized = apperrors.New(apperrors.CodeRequestAlreadyFinal, "spending request is already finalized")
	// ErrInsufficientApprovals indicates finalization without quorum.
	ErrInsufficientApprovals = apperrors.New(apperrors.CodeInsufficientApprovals, "spending request lacks the required approvals")
	// ErrInsufficientFunds indicates a finalization that would overdraw the campaign.
	ErrInsufficientFunds = apperrors.New(apperrors.CodeInsufficientFunds, "spending request value exceeds campaign balance")
)
