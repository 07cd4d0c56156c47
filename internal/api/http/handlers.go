package http

import (
	"net/http"
	"strings"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/utils"

	"github.com/gorilla/mux"
)

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "ok", nil, nil)
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in domain.TransactionInput
	if err := decode(r, &in); err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	if strings.TrimSpace(in.Staff) == "" {
		in.Staff = staffFrom(r.Context())
	}
	in.SwapID = ""

	receipt, err := h.svc.Ledger.CreateTransaction(r.Context(), in)
	if err != nil {
		if receipt == nil || receipt.TransactionID == "" {
			var steps []string
			if receipt != nil {
				steps = receipt.Steps
			}
			respondError(w, statusFor(err), err.Error(), steps)
			return
		}
		// The transaction was written before a later step failed.
		respond(w, statusFor(err), err.Error(), receipt.Steps, envelope{
			"transactionId": receipt.TransactionID,
			"legIds":        receipt.LegIDs,
		})
		return
	}

	message := "transaction recorded"
	if receipt.Mismatch != nil {
		message = "transaction recorded with settlement mismatch: " + receipt.Mismatch.String()
	}
	respond(w, http.StatusCreated, message, receipt.Steps, envelope{
		"transactionId": receipt.TransactionID,
		"legIds":        receipt.LegIDs,
		"reconciled":    receipt.Reconciled,
		"mismatch":      receipt.Mismatch,
		"inventory":     receipt.Inventory,
	})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, legs, err := h.svc.Ledger.GetTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	respond(w, http.StatusOK, "ok", nil, envelope{"transaction": tx, "legs": legs})
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch domain.TransactionPatch
	if err := decode(r, &patch); err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}

	receipt, err := h.svc.Ledger.UpdateTransaction(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		var steps []string
		if receipt != nil {
			steps = receipt.Steps
		}
		respondError(w, statusFor(err), err.Error(), steps)
		return
	}
	respond(w, http.StatusOK, "transaction updated", receipt.Steps, envelope{
		"transactionId": receipt.TransactionID,
		"inventory":     receipt.Inventory,
	})
}

func (h *Handler) listLegs(w http.ResponseWriter, r *http.Request) {
	legs, err := h.svc.Legs.ListLegs(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	respond(w, http.StatusOK, "ok", nil, envelope{"legs": legs})
}

func (h *Handler) addLeg(w http.ResponseWriter, r *http.Request) {
	var in domain.LegInput
	if err := decode(r, &in); err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	leg, err := h.svc.Legs.AddLeg(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	respond(w, http.StatusCreated, "leg recorded", []string{"leg " + leg.ID + " recorded"}, envelope{
		"legId": leg.ID,
		"leg":   leg,
	})
}

func (h *Handler) validateLegs(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Legs.ValidateLegs(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	message := "legs match transaction amount"
	if !result.Valid {
		message = result.Mismatch().String()
	}
	respond(w, http.StatusOK, message, nil, envelope{
		"valid":      result.Valid,
		"expected":   result.Expected,
		"sum":        result.Sum,
		"difference": result.Difference,
	})
}

func (h *Handler) processSwap(w http.ResponseWriter, r *http.Request) {
	var in domain.SwapInput
	if err := decode(r, &in); err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	if strings.TrimSpace(in.Staff) == "" {
		in.Staff = staffFrom(r.Context())
	}

	receipt, err := h.svc.Swaps.ProcessSwap(r.Context(), in)
	fields := envelope{
		"swapId":            receipt.Swap.SwapID,
		"state":             receipt.Swap.State,
		"sellTransactionId": receipt.Swap.SellTransactionID,
		"buyTransactionId":  receipt.Swap.BuyTransactionID,
	}
	if err != nil {
		respond(w, statusFor(err), err.Error(), receipt.Steps, fields)
		return
	}
	respond(w, http.StatusCreated, "swap recorded", receipt.Steps, fields)
}

func (h *Handler) recordAdjustment(w http.ResponseWriter, r *http.Request) {
	var in domain.AdjustmentInput
	if err := decode(r, &in); err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	if strings.TrimSpace(in.Staff) == "" {
		in.Staff = staffFrom(r.Context())
	}

	receipt, err := h.svc.Inventory.RecordAdjustment(r.Context(), in)
	if err != nil {
		var steps []string
		if receipt != nil {
			steps = receipt.Steps
		}
		respondError(w, statusFor(err), err.Error(), steps)
		return
	}
	respond(w, http.StatusCreated, "adjustment recorded", receipt.Steps, envelope{
		"adjustmentId": receipt.Adjustment.ID,
		"inventory":    receipt.Inventory,
		"cascaded":     receipt.Cascaded,
	})
}

type reconcileRequest struct {
	Date     string `json:"date"`
	Currency string `json:"currency"`
	Cascade  bool   `json:"cascade"`
	Through  string `json:"through"`
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := decode(r, &req); err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	date, err := queryDate("date", req.Date, true)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}

	if !req.Cascade {
		entry, err := h.svc.Inventory.Reconcile(r.Context(), date, req.Currency)
		if err != nil {
			respondError(w, statusFor(err), err.Error(), nil)
			return
		}
		respond(w, http.StatusOK, "inventory reconciled", nil, envelope{"inventory": []domain.DailyInventoryEntry{*entry}})
		return
	}

	through, err := queryDate("through", req.Through, false)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	entries, err := h.svc.Inventory.ReconcileForward(r.Context(), date, req.Currency, through)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	respond(w, http.StatusOK, "inventory reconciled", nil, envelope{"inventory": entries})
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := queryDate("from", q.Get("from"), false)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	to, err := queryDate("to", q.Get("to"), false)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}

	entries, err := h.svc.Inventory.GetInventory(r.Context(), mux.Vars(r)["currency"], from, to)
	if err != nil {
		respondError(w, statusFor(err), err.Error(), nil)
		return
	}
	respond(w, http.StatusOK, "ok", nil, envelope{"inventory": entries})
}

// queryDate parses an optional yyyy-mm-dd value; empty yields the zero time.
func queryDate(field, value string, required bool) (time.Time, error) {
	if value == "" {
		if required {
			return time.Time{}, domain.NewValidationError(field, "is required")
		}
		return time.Time{}, nil
	}
	d, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "%v", err)
	}
	return d, nil
}
