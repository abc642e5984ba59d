package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/ledgervest/ledgervest/internal/cache"
	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/service"
	apperrors "github.com/ledgervest/ledgervest/internal/platform/errors"
	"github.com/ledgervest/ledgervest/internal/registry"
)

const (
	defaultEventsPageSize = 100
	maxEventsPageSize     = 500
)

// Handler serves the funding JSON API.
type Handler struct {
	service  *service.Service
	registry *registry.Registry
	cache    *cache.Cache
}

// NewHandler creates the API handler.
func NewHandler(svc *service.Service, reg *registry.Registry, summaryCache *cache.Cache) *Handler {
	return &Handler{service: svc, registry: reg, cache: summaryCache}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, err)
		return
	}
	var body struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	account, err := h.service.Deposit(r.Context(), addr, amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewFromAccount(account))
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, err)
		return
	}
	account, err := h.service.GetAccount(r.Context(), addr)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewFromAccount(account))
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var body struct {
		MinimumContribution string `json:"minimum_contribution"`
		Title               string `json:"title"`
		Description         string `json:"description"`
		TargetAmount        string `json:"target_amount"`
		ContactEmail        string `json:"contact_email"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	minimum, err := parseAmount(body.MinimumContribution)
	if err != nil {
		respondError(w, err)
		return
	}
	input := domain.CreateCampaignInput{
		Manager:             caller,
		MinimumContribution: minimum,
		Title:               body.Title,
		Description:         body.Description,
		ContactEmail:        body.ContactEmail,
	}
	if body.TargetAmount != "" {
		target, err := parseAmount(body.TargetAmount)
		if err != nil {
			respondError(w, err)
			return
		}
		input.TargetAmount = target
	}

	campaign, err := h.registry.CreateCampaign(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, summaryFromCampaign(campaign, false))
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListCampaigns(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	summaries := make([]campaignSummary, 0, len(campaigns))
	for _, campaign := range campaigns {
		summaries = append(summaries, summaryFromCampaign(campaign, false))
	}
	respondJSON(w, http.StatusOK, map[string]any{"campaigns": summaries})
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, err)
		return
	}

	key := summaryCacheKey(addr)
	if cached, ok := h.cache.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(cached); err != nil {
			log.Printf("write cached summary failed error=%v", err)
		}
		return
	}

	campaign, err := h.service.GetCampaign(r.Context(), addr)
	if err != nil {
		respondError(w, err)
		return
	}
	summary := summaryFromCampaign(campaign, true)
	if encoded, err := json.Marshal(summary); err == nil {
		h.cache.Set(r.Context(), key, encoded)
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleContribute(w http.ResponseWriter, r *http.Request) {
	addr, caller, err := h.addressAndCaller(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var body struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	campaign, err := h.service.Contribute(r.Context(), addr, caller, amount)
	if err != nil {
		respondError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), summaryCacheKey(addr))
	respondJSON(w, http.StatusOK, summaryFromCampaign(campaign, false))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	addr, caller, err := h.addressAndCaller(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var body struct {
		Description string `json:"description"`
		Value       string `json:"value"`
		Recipient   string `json:"recipient"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	value, err := parseAmount(body.Value)
	if err != nil {
		respondError(w, err)
		return
	}
	recipient, err := parseAddress(body.Recipient)
	if err != nil {
		respondError(w, err)
		return
	}

	index, err := h.service.CreateRequest(r.Context(), addr, caller, body.Description, value, recipient)
	if err != nil {
		respondError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), summaryCacheKey(addr))
	respondJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, err)
		return
	}
	campaign, err := h.service.GetCampaign(r.Context(), addr)
	if err != nil {
		respondError(w, err)
		return
	}
	requests := make([]requestView, 0, len(campaign.Requests))
	for i := range campaign.Requests {
		requests = append(requests, viewFromRequest(i, &campaign.Requests[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, err)
		return
	}
	index, err := requestIndex(r)
	if err != nil {
		respondError(w, err)
		return
	}
	campaign, err := h.service.GetCampaign(r.Context(), addr)
	if err != nil {
		respondError(w, err)
		return
	}
	if index < 0 || index >= len(campaign.Requests) {
		respondError(w, domain.ErrRequestNotFound)
		return
	}
	respondJSON(w, http.StatusOK, viewFromRequest(index, &campaign.Requests[index]))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	addr, caller, err := h.addressAndCaller(r)
	if err != nil {
		respondError(w, err)
		return
	}
	index, err := requestIndex(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.ApproveRequest(r.Context(), addr, caller, index); err != nil {
		respondError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), summaryCacheKey(addr))
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleFinalizeRequest(w http.ResponseWriter, r *http.Request) {
	addr, caller, err := h.addressAndCaller(r)
	if err != nil {
		respondError(w, err)
		return
	}
	index, err := requestIndex(r)
	if err != nil {
		respondError(w, err)
		return
	}

	disbursement, err := h.service.FinalizeRequest(r.Context(), addr, caller, index)
	if err != nil {
		respondError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), summaryCacheKey(addr))
	respondJSON(w, http.StatusOK, disbursementView{
		Recipient: disbursement.Recipient.Hex(),
		Amount:    disbursement.Amount.String(),
		Fee:       disbursement.Fee.String(),
	})
}

func (h *Handler) handleSetApprovalThreshold(w http.ResponseWriter, r *http.Request) {
	addr, caller, err := h.addressAndCaller(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var body struct {
		ApprovalThresholdPct int `json:"approval_threshold_pct"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.SetApprovalThreshold(r.Context(), addr, caller, body.ApprovalThresholdPct); err != nil {
		respondError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), summaryCacheKey(addr))
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, err)
		return
	}
	afterSeq, err := queryUint(r, "after_seq", 0)
	if err != nil {
		respondError(w, err)
		return
	}
	limit, err := queryUint(r, "limit", defaultEventsPageSize)
	if err != nil {
		respondError(w, err)
		return
	}
	if limit > maxEventsPageSize {
		limit = maxEventsPageSize
	}

	events, err := h.service.ListEvents(r.Context(), addr, afterSeq, int(limit))
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]eventView, 0, len(events))
	for _, evt := range events {
		views = append(views, viewFromEvent(evt))
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": views})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.service.Verify(r.Context(), addr)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, verifyView{
		Consistent: result.Consistent,
		LastSeq:    result.LastSeq,
		Diffs:      result.Diffs,
	})
}

func (h *Handler) addressAndCaller(r *http.Request) (common.Address, common.Address, error) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	caller, err := callerFromRequest(r)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return addr, caller, nil
}

func requestIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidParameter,
			"invalid request index", map[string]string{"index": raw})
	}
	return index, nil
}

func queryUint(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidParameter,
			"invalid query parameter", map[string]string{name: raw})
	}
	return value, nil
}

func summaryCacheKey(addr common.Address) string {
	return "campaign:" + addr.Hex()
}
