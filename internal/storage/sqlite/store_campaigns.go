package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/storage"
)

// querier abstracts *sql.DB and *sql.Tx so reads and commit-time writes share
// the same helpers.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetCampaign loads a full campaign aggregate: row, approver set, requests,
// and per-request approvals.
func (s *Store) GetCampaign(ctx context.Context, addr common.Address) (*domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getCampaign(ctx, s.sqlDB, addr)
}

func getCampaign(ctx context.Context, q querier, addr common.Address) (*domain.Campaign, error) {
	row := q.QueryRowContext(ctx, `
SELECT address, manager, minimum_contribution, title, description, target_amount,
       contact_email, approval_threshold_pct, balance, approvers_count, created_at, updated_at
FROM campaigns WHERE address = ?`, addr.Hex())

	var (
		addressHex, managerHex, minimumStr, balanceStr, targetStr string
		title, description, contactEmail                          string
		thresholdPct, approversCount                              int
		createdAt, updatedAt                                      int64
	)
	err := row.Scan(&addressHex, &managerHex, &minimumStr, &title, &description, &targetStr,
		&contactEmail, &thresholdPct, &balanceStr, &approversCount, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan campaign: %w", err)
	}

	minimum, err := parseStoredAmount(minimumStr)
	if err != nil {
		return nil, fmt.Errorf("campaign %s minimum: %w", addressHex, err)
	}
	balance, err := parseStoredAmount(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("campaign %s balance: %w", addressHex, err)
	}
	target, err := parseStoredAmount(targetStr)
	if err != nil {
		return nil, fmt.Errorf("campaign %s target: %w", addressHex, err)
	}

	campaign := &domain.Campaign{
		Address:              common.HexToAddress(addressHex),
		Manager:              common.HexToAddress(managerHex),
		MinimumContribution:  minimum,
		Title:                title,
		Description:          description,
		TargetAmount:         target,
		ContactEmail:         contactEmail,
		ApprovalThresholdPct: thresholdPct,
		Balance:              balance,
		Approvers:            make(map[common.Address]bool),
		ApproversCount:       approversCount,
		CreatedAt:            fromMillis(createdAt),
		UpdatedAt:            fromMillis(updatedAt),
	}

	if err := loadApprovers(ctx, q, campaign); err != nil {
		return nil, err
	}
	if err := loadRequests(ctx, q, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func loadApprovers(ctx context.Context, q querier, campaign *domain.Campaign) error {
	rows, err := q.QueryContext(ctx,
		"SELECT approver FROM approvers WHERE campaign_address = ?", campaign.Address.Hex())
	if err != nil {
		return fmt.Errorf("query approvers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var approverHex string
		if err := rows.Scan(&approverHex); err != nil {
			return fmt.Errorf("scan approver: %w", err)
		}
		campaign.Approvers[common.HexToAddress(approverHex)] = true
	}
	return rows.Err()
}

func loadRequests(ctx context.Context, q querier, campaign *domain.Campaign) error {
	rows, err := q.QueryContext(ctx, `
SELECT request_index, description, value, recipient, complete, approval_count, created_at
FROM requests WHERE campaign_address = ? ORDER BY request_index`, campaign.Address.Hex())
	if err != nil {
		return fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			index, approvalCount    int
			description, valueStr   string
			recipientHex            string
			complete                bool
			createdAt               int64
		)
		if err := rows.Scan(&index, &description, &valueStr, &recipientHex, &complete, &approvalCount, &createdAt); err != nil {
			return fmt.Errorf("scan request: %w", err)
		}
		value, err := parseStoredAmount(valueStr)
		if err != nil {
			return fmt.Errorf("request %d value: %w", index, err)
		}
		campaign.Requests = append(campaign.Requests, domain.SpendingRequest{
			Description:   description,
			Value:         value,
			Recipient:     common.HexToAddress(recipientHex),
			Complete:      complete,
			ApprovalCount: approvalCount,
			Approvals:     make(map[common.Address]bool),
			CreatedAt:     fromMillis(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return loadApprovals(ctx, q, campaign)
}

func loadApprovals(ctx context.Context, q querier, campaign *domain.Campaign) error {
	rows, err := q.QueryContext(ctx, `
SELECT request_index, approver FROM request_approvals WHERE campaign_address = ?`,
		campaign.Address.Hex())
	if err != nil {
		return fmt.Errorf("query approvals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var index int
		var approverHex string
		if err := rows.Scan(&index, &approverHex); err != nil {
			return fmt.Errorf("scan approval: %w", err)
		}
		if index < 0 || index >= len(campaign.Requests) {
			return fmt.Errorf("approval references missing request %d", index)
		}
		campaign.Requests[index].Approvals[common.HexToAddress(approverHex)] = true
	}
	return rows.Err()
}

// ListCampaignAddresses returns every campaign address in creation order.
func (s *Store) ListCampaignAddresses(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT address FROM campaigns ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query campaign addresses: %w", err)
	}
	defer rows.Close()

	var addresses []common.Address
	for rows.Next() {
		var addressHex string
		if err := rows.Scan(&addressHex); err != nil {
			return nil, fmt.Errorf("scan campaign address: %w", err)
		}
		addresses = append(addresses, common.HexToAddress(addressHex))
	}
	return addresses, rows.Err()
}

// ListCampaigns returns every campaign aggregate in creation order.
func (s *Store) ListCampaigns(ctx context.Context) ([]*domain.Campaign, error) {
	addresses, err := s.ListCampaignAddresses(ctx)
	if err != nil {
		return nil, err
	}
	campaigns := make([]*domain.Campaign, 0, len(addresses))
	for _, addr := range addresses {
		campaign, err := getCampaign(ctx, s.sqlDB, addr)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

// upsertCampaign writes the full aggregate inside a commit transaction.
// Approver and approval sets only grow, so members are inserted with
// OR IGNORE and never deleted.
func upsertCampaign(ctx context.Context, tx *sql.Tx, campaign *domain.Campaign) error {
	addressHex := campaign.Address.Hex()

	var position int64
	err := tx.QueryRowContext(ctx,
		"SELECT position FROM campaigns WHERE address = ?", addressHex).Scan(&position)
	if err == sql.ErrNoRows {
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position), 0) + 1 FROM campaigns").Scan(&position); err != nil {
			return fmt.Errorf("next campaign position: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("lookup campaign position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO campaigns (address, position, manager, minimum_contribution, title, description,
                       target_amount, contact_email, approval_threshold_pct, balance,
                       approvers_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(address) DO UPDATE SET
    approval_threshold_pct = excluded.approval_threshold_pct,
    balance = excluded.balance,
    approvers_count = excluded.approvers_count,
    updated_at = excluded.updated_at`,
		addressHex, position, campaign.Manager.Hex(), campaign.MinimumContribution.String(),
		campaign.Title, campaign.Description, campaign.TargetAmount.String(),
		campaign.ContactEmail, campaign.ApprovalThresholdPct, campaign.Balance.String(),
		campaign.ApproversCount, toMillis(campaign.CreatedAt), toMillis(campaign.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert campaign: %w", err)
	}

	for approver := range campaign.Approvers {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO approvers (campaign_address, approver) VALUES (?, ?)",
			addressHex, approver.Hex()); err != nil {
			return fmt.Errorf("upsert approver: %w", err)
		}
	}

	for index := range campaign.Requests {
		if err := upsertRequest(ctx, tx, addressHex, index, &campaign.Requests[index]); err != nil {
			return err
		}
	}
	return nil
}

func upsertRequest(ctx context.Context, tx *sql.Tx, addressHex string, index int, request *domain.SpendingRequest) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO requests (campaign_address, request_index, description, value, recipient,
                      complete, approval_count, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(campaign_address, request_index) DO UPDATE SET
    complete = excluded.complete,
    approval_count = excluded.approval_count`,
		addressHex, index, request.Description, request.Value.String(),
		request.Recipient.Hex(), request.Complete, request.ApprovalCount,
		toMillis(request.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert request %d: %w", index, err)
	}

	for approver := range request.Approvals {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO request_approvals (campaign_address, request_index, approver)
VALUES (?, ?, ?)`, addressHex, index, approver.Hex()); err != nil {
			return fmt.Errorf("upsert approval for request %d: %w", index, err)
		}
	}
	return nil
}

func parseStoredAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount %q", value)
	}
	return amount, nil
}
