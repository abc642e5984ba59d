package event

// Amounts in payloads are decimal strings of base units: JSON numbers cannot
// carry arbitrary-precision integers safely.

// CampaignCreatedPayload captures the payload for campaign.created events.
type CampaignCreatedPayload struct {
	Manager              string `json:"manager"`
	MinimumContribution  string `json:"minimum_contribution"`
	Title                string `json:"title,omitempty"`
	Description          string `json:"description,omitempty"`
	TargetAmount         string `json:"target_amount,omitempty"`
	ContactEmail         string `json:"contact_email,omitempty"`
	ApprovalThresholdPct int    `json:"approval_threshold_pct"`
	CreationFee          string `json:"creation_fee,omitempty"`
}

// ContributionReceivedPayload captures the payload for
// campaign.contribution_received events.
type ContributionReceivedPayload struct {
	Contributor    string `json:"contributor"`
	Amount         string `json:"amount"`
	NewBalance     string `json:"new_balance"`
	NewApprover    bool   `json:"new_approver"`
	ApproversCount int    `json:"approvers_count"`
}

// RequestCreatedPayload captures the payload for campaign.request_created events.
type RequestCreatedPayload struct {
	RequestIndex int    `json:"request_index"`
	Description  string `json:"description,omitempty"`
	Value        string `json:"value"`
	Recipient    string `json:"recipient"`
}

// RequestApprovedPayload captures the payload for campaign.request_approved events.
type RequestApprovedPayload struct {
	RequestIndex  int    `json:"request_index"`
	Approver      string `json:"approver"`
	ApprovalCount int    `json:"approval_count"`
}

// RequestFinalizedPayload captures the payload for campaign.request_finalized events.
type RequestFinalizedPayload struct {
	RequestIndex int    `json:"request_index"`
	Recipient    string `json:"recipient"`
	Value        string `json:"value"`
	Disbursed    string `json:"disbursed"`
	Fee          string `json:"fee,omitempty"`
	NewBalance   string `json:"new_balance"`
}

// ThresholdChangedPayload captures the payload for
// campaign.approval_threshold_changed events.
type ThresholdChangedPayload struct {
	ApprovalThresholdPct int `json:"approval_threshold_pct"`
}
