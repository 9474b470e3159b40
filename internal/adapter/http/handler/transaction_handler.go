package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanvo/fraudgate/internal/adapter/http/dto"
	"github.com/tanvo/fraudgate/internal/infrastructure/metrics"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// TransactionHandler handles transaction lifecycle HTTP requests.
type TransactionHandler struct {
	intakeUC *usecase.IntakeUseCase
	reviewUC *usecase.ReviewUseCase
	metrics  *metrics.Metrics
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(intakeUC *usecase.IntakeUseCase, reviewUC *usecase.ReviewUseCase, m *metrics.Metrics) *TransactionHandler {
	return &TransactionHandler{
		intakeUC: intakeUC,
		reviewUC: reviewUC,
		metrics:  m,
	}
}

// Transfer accepts a transfer for screening. The response is 202: the
// decision, and any balance movement, happen asynchronously.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.intakeUC.RequestTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to accept transfer", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.TransfersRequested.Inc()
		h.metrics.TransferAmount.Observe(txn.Amount.InexactFloat64())
	}

	writeJSON(w, http.StatusAccepted, dto.TransferAcceptedResponse{
		TransactionID: txn.TxID,
		Status:        string(txn.Status),
	})
}

// Review applies a manual verdict to a transaction.
func (h *TransactionHandler) Review(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txID")
	if txID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.reviewUC.Review(r.Context(), req.ToUseCaseInput(txID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to review transaction", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.Reviews.WithLabelValues(req.Action).Inc()
		if result.Applied {
			h.metrics.LedgerApplications.WithLabelValues("review").Inc()
		}
	}

	writeJSON(w, http.StatusOK, dto.ReviewFromResult(txID, result))
}

// Get retrieves a transaction by its external id.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txID")
	if txID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.intakeUC.GetTransaction(r.Context(), txID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}
