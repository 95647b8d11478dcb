/*
handlers.go - HTTP API handlers for the reconciliation engine

PURPOSE:
  Exposes the engine via REST. Handlers only do HTTP plumbing: decode,
  snapshot, delegate to the pure engine, encode. Every computation runs
  over one snapshot loaded at request start - handlers never re-read
  configuration mid-computation.

ENDPOINTS:
  Records:
    POST   /api/fees                    Record a fee obligation
    POST   /api/transactions            Append a ledger transaction
    POST   /api/general-transactions    Append a school-level entry
    POST   /api/salaries                Record a salary line

  Reports:
    GET    /api/reports/reconciliation  Full reconciliation report
    GET    /api/students/status         Per-student payment status

  Refunds:
    POST   /api/refunds/preview         Run the deduction waterfall

  Schedule:
    GET    /api/schedule/day?date=      Resolve a day's configuration
    GET    /api/schedule/penalty?late=  Lateness deduction
    POST   /api/schedule/overrides      Upsert a calendar override
    POST   /api/schedule/weekdays       Upsert a weekday default

  Admin:
    GET    /api/admin/settings          Current global settings
    PUT    /api/admin/settings          Replace global settings
    POST   /api/admin/config            Load a full JSON configuration

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input records
  - 422: Batch rejected by the aggregator
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/madrasa/finance-engine/factory"
	"github.com/madrasa/finance-engine/finance"
	"github.com/madrasa/finance-engine/refund"
	"github.com/madrasa/finance-engine/report"
	"github.com/madrasa/finance-engine/schedule"
	"github.com/madrasa/finance-engine/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           store.Store
	SettingsFactory *factory.SettingsFactory
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(st store.Store) *Handler {
	return &Handler{
		Store:           st,
		SettingsFactory: factory.NewSettingsFactory(),
	}
}

// =============================================================================
// RECORD INGESTION
// =============================================================================

func (h *Handler) CreateFee(w http.ResponseWriter, r *http.Request) {
	var req FeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.StudentID == "" || req.AcademicYearCode == "" {
		writeError(w, http.StatusBadRequest, "student_id and academic_year_code are required", nil)
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	if err := h.Store.SaveFee(r.Context(), rec); err != nil {
		writeStoreError(w, "Failed to save fee", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) AppendTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := finance.ParseTransactionKind(req.Kind); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown transaction kind", err)
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	if err := h.Store.AppendTransaction(r.Context(), rec); err != nil {
		writeStoreError(w, "Failed to append transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) AppendGeneralTransaction(w http.ResponseWriter, r *http.Request) {
	var req GeneralTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := finance.ParseGeneralKind(req.Kind); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown general transaction kind", err)
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	if err := h.Store.AppendGeneralTransaction(r.Context(), rec); err != nil {
		writeStoreError(w, "Failed to append general transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) CreateSalary(w http.ResponseWriter, r *http.Request) {
	var req SalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := finance.ParseSalaryStatus(req.Status); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown salary status", err)
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	if err := h.Store.SaveSalary(r.Context(), rec); err != nil {
		writeStoreError(w, "Failed to save salary", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// REPORTS
// =============================================================================

func (h *Handler) GetReconciliationReport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.LoadSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}

	rep, err := report.Build(report.Input{
		Fees:         snap.Fees,
		Transactions: snap.Transactions,
		General:      snap.General,
		Salaries:     snap.Salaries,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Reconciliation rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) GetStudentStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.LoadSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}

	students, err := finance.StudentLedgers(snap.Fees, snap.Transactions)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Classification rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// =============================================================================
// REFUNDS
// =============================================================================

func (h *Handler) PreviewRefund(w http.ResponseWriter, r *http.Request) {
	var req RefundPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := refund.Input{
		MonthsStudied:      req.MonthsStudied,
		TotalMonthsInYear:  req.TotalMonthsInYear,
		AdminFeePercentage: req.AdminFeePercentage,
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *finance.Money
	}{
		{"total_paid", req.TotalPaid, &in.TotalPaid},
		{"total_study_expenses", req.TotalStudyExpenses, &in.TotalStudyExpenses},
		{"monthly_tuition_fee", req.MonthlyTuitionFee, &in.MonthlyTuitionFee},
		{"registration_fee_amount", req.RegistrationFeeAmount, &in.RegistrationFeeAmount},
		{"other_non_refundable_fees", req.OtherNonRefundableFees, &in.OtherNonRefundableFees},
	} {
		m, err := moneyField(f.name, f.raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		*f.dst = m
	}
	if req.AdminFeeFixed != nil {
		fixed, err := moneyField("admin_fee_fixed", *req.AdminFeeFixed)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		in.AdminFeeFixed = &fixed
	}

	// Derive months from dates when both are supplied.
	if req.EnrollmentDate != "" && req.WithdrawalDate != "" {
		enrollment, err := schedule.ParseDate(req.EnrollmentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid enrollment_date", err)
			return
		}
		withdrawal, err := schedule.ParseDate(req.WithdrawalDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid withdrawal_date", err)
			return
		}
		in.MonthsStudied = refund.MonthsStudied(enrollment.Time(), withdrawal.Time())
	}

	writeJSON(w, http.StatusOK, refund.Compute(in))
}

// =============================================================================
// SCHEDULE
// =============================================================================

func (h *Handler) ResolveDay(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing date (use YYYY-MM-DD)", err)
		return
	}

	snap, err := h.Store.LoadSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}

	cfg := schedule.Resolve(date, snap.Overrides, snap.WeekSettings, snap.Settings)
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) GetPenalty(w http.ResponseWriter, r *http.Request) {
	late, err := strconv.ParseUint(r.URL.Query().Get("late"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing late minutes", err)
		return
	}

	// Capture the rate once; the whole response is computed under that
	// one snapshot.
	settings, err := h.Store.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	resp := PenaltyResponse{
		LateMinutes: uint32(late),
		Rate:        settings.LatenessPenaltyRate,
		Deduction:   schedule.LatenessDeduction(uint32(late), settings.LatenessPenaltyRate),
	}

	if rawDate := r.URL.Query().Get("date"); rawDate != "" {
		date, err := schedule.ParseDate(rawDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		snap, err := h.Store.LoadSnapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
			return
		}
		cfg := schedule.Resolve(date, snap.Overrides, snap.WeekSettings, snap.Settings)
		resp.Date = date.String()
		resp.DayConfig = &cfg
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SaveOverride(w http.ResponseWriter, r *http.Request) {
	var req factory.OverrideJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.SettingsFactory.Build(factory.ConfigJSON{Overrides: []factory.OverrideJSON{req}})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid override", err)
		return
	}
	for _, ov := range cfg.Overrides {
		if err := h.Store.SaveOverride(r.Context(), ov); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save override", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) SaveWeekDaySetting(w http.ResponseWriter, r *http.Request) {
	var req factory.WeekdayJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.SettingsFactory.Build(factory.ConfigJSON{Weekdays: []factory.WeekdayJSON{req}})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid weekday setting", err)
		return
	}
	for _, ws := range cfg.WeekSettings {
		if err := h.Store.SaveWeekDaySetting(r.Context(), ws); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save weekday setting", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// ADMIN
// =============================================================================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: settings})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req factory.ConfigJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.SettingsFactory.Build(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	if err := h.Store.SaveSettings(r.Context(), cfg.Global); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: cfg.Global})
}

// LoadConfig ingests a full JSON configuration document: global
// settings plus weekday defaults plus calendar overrides, in one call.
func (h *Handler) LoadConfig(w http.ResponseWriter, r *http.Request) {
	var req factory.ConfigJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.SettingsFactory.Build(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid configuration", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveSettings(ctx, cfg.Global); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	for _, ws := range cfg.WeekSettings {
		if err := h.Store.SaveWeekDaySetting(ctx, ws); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save weekday setting", err)
			return
		}
	}
	for _, ov := range cfg.Overrides {
		if err := h.Store.SaveOverride(ctx, ov); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save override", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: cfg.Global})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps invalid-input rejections to 400 and everything
// else to 500.
func writeStoreError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, finance.ErrInvalidInput) || errors.Is(err, finance.ErrUnknownKind) {
		writeError(w, http.StatusBadRequest, message, err)
		return
	}
	writeError(w, http.StatusInternalServerError, message, err)
}
