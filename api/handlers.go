/*
handlers.go - HTTP API handlers for the billing engine

PURPOSE:
  Exposes the billing calculator via REST. Handles multipart uploads, JSON
  serialization, and delegates every calculation to the billing, rates, and
  formats packages. The engine itself does no I/O; this layer is the
  "presentation collaborator" that feeds it tables.

ENDPOINTS:
  GET  /api/profiles        List format profiles
  POST /api/reports         Period billing report from an allocations table
  POST /api/schedule        Twelve-month schedule from a roster table
  GET  /healthz             Liveness
  GET  /metrics             Prometheus metrics

REQUEST FLOW:
  1. Parse multipart form (allocations file required; actuals and rate-card
     files optional)
  2. Resolve the format profile into schema + policy
  3. Run the calculator
  4. Serialize as JSON, CSV, or XLSX per the format query parameter

ERROR HANDLING:
  - 400: structural input failures (empty table, missing column), bad options
  - 404: unknown profile
  - 500: internal errors
  Row-level problems are never errors: they come back inside the report as
  warnings alongside the partial results.

SEE ALSO:
  - dto.go: Request/response data structures
  - render.go: CSV/XLSX renderings
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/formats"
	"github.com/warp/billing-engine/metrics"
	"github.com/warp/billing-engine/rates"
	"github.com/warp/billing-engine/tabular"
)

// maxUploadBytes caps a single multipart upload (32 MiB is far beyond any
// real roster).
const maxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *formats.Registry
	Log      *zap.SugaredLogger
}

// NewHandler creates a new handler with the given profile registry.
func NewHandler(registry *formats.Registry, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{Registry: registry, Log: log}
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns the registered format profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	names := h.Registry.Names()
	dtos := make([]ProfileDTO, 0, len(names))
	for _, name := range names {
		p, _ := h.Registry.Get(name)
		dto := ProfileDTO{Name: p.Name, Rounding: p.Policy.Rounding, Proration: p.Policy.Proration}
		if dto.Rounding == "" {
			dto.Rounding = string(billing.RoundHalfUp)
		}
		if dto.Proration == "" {
			dto.Proration = string(billing.ProrateCalendarDays)
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLER
// =============================================================================

// ProcessReport runs the period billing calculation over an uploaded
// allocations table.
func (h *Handler) ProcessReport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request", err)
		return
	}

	table, ok, err := h.formFile(r, "allocations")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable allocations file", err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing allocations file", nil)
		return
	}

	_, schema, policy, ok := h.resolveProfile(w, r.FormValue("profile"))
	if !ok {
		return
	}

	input := billing.Input{Name: table.Name, Header: table.Header, Rows: table.Rows}
	if raw := r.FormValue("period"); raw != "" {
		p, err := billing.ParsePeriod(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
			return
		}
		input.DefaultPeriod = p
	}

	calc := billing.NewCalculator(schema, policy)
	report, err := calc.Run(input)
	if err != nil {
		metrics.ReportFailures.Inc()
		writeError(w, http.StatusBadRequest, "Cannot process table", err)
		return
	}

	// Optional rate card: adds cost and margin columns.
	var costs map[int]rates.Cost
	card, fx, offshore, cardOK, err := h.rateCardOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate card options", err)
		return
	}
	if cardOK {
		costs = make(map[int]rates.Cost, len(report.Results))
		for _, res := range report.Results {
			costs[res.RowIndex] = card.Lookup(res.RateCode, string(res.Deputation), offshore, fx)
		}
	}

	metrics.ReportsProcessed.Inc()
	metrics.RowsProcessed.Add(float64(report.Included()))
	metrics.RowWarnings.Add(float64(len(report.Warnings)))
	metrics.ObserveProcess(time.Since(started))

	h.Log.Infow("report processed",
		"table", table.Name,
		"included", report.Included(),
		"warnings", len(report.Warnings),
		"elapsed", time.Since(started))

	switch strings.ToLower(r.FormValue("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, BuildReportDTO(report, costs))
	case "csv":
		writeTable(w, RenderReportTable(report, costs), tabular.FormatCSV, "billing_report")
	case "xlsx":
		writeTable(w, RenderReportTable(report, costs), tabular.FormatXLSX, "billing_report")
	default:
		writeError(w, http.StatusBadRequest, "Unknown format (use json, csv, or xlsx)", nil)
	}
}

// =============================================================================
// SCHEDULE HANDLER
// =============================================================================

// ProcessSchedule runs the twelve-month schedule expansion over an uploaded
// roster table.
func (h *Handler) ProcessSchedule(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request", err)
		return
	}

	table, ok, err := h.formFile(r, "allocations")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable allocations file", err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing allocations file", nil)
		return
	}

	profile, schema, policy, ok := h.resolveProfile(w, r.FormValue("profile"))
	if !ok {
		return
	}
	deputations, err := profile.DeputationTable()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Broken profile", err)
		return
	}

	year := time.Now().UTC().Year()
	if raw := r.FormValue("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year < 2000 || year > 2100 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
	}

	input := billing.Input{Name: table.Name, Header: table.Header, Rows: table.Rows}
	records, warnings, err := billing.NormalizeRoster(input, schema)
	if err != nil {
		metrics.ReportFailures.Inc()
		writeError(w, http.StatusBadRequest, "Cannot process table", err)
		return
	}

	adjustments, err := h.parseAdjustments(r.FormValue("adjustments"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid adjustments", err)
		return
	}

	overrides, err := h.actualOverrides(r, schema)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable actuals file", err)
		return
	}

	cfg := billing.ScheduleConfig{
		Year:        year,
		Policy:      policy,
		WorkingDays: policy.WorkingDays,
		Deputations: deputations,
	}
	rows := billing.BuildSchedule(records, cfg, adjustments, overrides)

	card, fx, offshore, cardOK, err := h.rateCardOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate card options", err)
		return
	}

	dto := ScheduleDTO{Year: year, Warnings: toWarningDTOs(warnings)}
	for _, row := range rows {
		var cost *rates.Cost
		if cardOK {
			c := card.Lookup(row.RateCode, string(row.Deputation), offshore, fx)
			cost = &c
		}
		dto.Rows = append(dto.Rows, toScheduleRowDTO(row, cost))
	}

	metrics.ReportsProcessed.Inc()
	metrics.RowsProcessed.Add(float64(len(rows)))
	metrics.RowWarnings.Add(float64(len(warnings)))
	metrics.ObserveProcess(time.Since(started))

	h.Log.Infow("schedule processed",
		"table", table.Name,
		"year", year,
		"rows", len(rows),
		"warnings", len(warnings))

	switch strings.ToLower(r.FormValue("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, dto)
	case "csv":
		writeTable(w, RenderScheduleTable(dto), tabular.FormatCSV, "billing_schedule")
	case "xlsx":
		writeTable(w, RenderScheduleTable(dto), tabular.FormatXLSX, "billing_schedule")
	default:
		writeError(w, http.StatusBadRequest, "Unknown format (use json, csv, or xlsx)", nil)
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// REQUEST PARSING HELPERS
// =============================================================================

// formFile reads one uploaded table; ok is false when the field is absent.
func (h *Handler) formFile(r *http.Request, field string) (tabular.Table, bool, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return tabular.Table{}, false, nil
	}
	if err != nil {
		return tabular.Table{}, false, err
	}
	defer file.Close()

	table, err := tabular.ReadNamed(header.Filename, file)
	if err != nil {
		return tabular.Table{}, false, err
	}
	return table, true, nil
}

func (h *Handler) resolveProfile(w http.ResponseWriter, name string) (formats.Profile, billing.Schema, billing.Policy, bool) {
	profile, ok := h.Registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown profile %q", name), nil)
		return formats.Profile{}, billing.Schema{}, billing.Policy{}, false
	}
	schema, err := profile.Schema()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Broken profile", err)
		return formats.Profile{}, billing.Schema{}, billing.Policy{}, false
	}
	policy, err := profile.BillingPolicy()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Broken profile", err)
		return formats.Profile{}, billing.Schema{}, billing.Policy{}, false
	}
	return profile, schema, policy, true
}

// rateCardOptions reads the optional rate-card upload plus its exchange-rate
// and offshore-country options. ok is false when no card was uploaded.
func (h *Handler) rateCardOptions(r *http.Request) (*rates.Card, rates.ExchangeRates, rates.Country, bool, error) {
	table, ok, err := h.formFile(r, "ratecard")
	if err != nil || !ok {
		return nil, nil, "", false, err
	}

	card, err := rates.ParseCardTable(table.Header, table.Rows)
	if err != nil {
		return nil, nil, "", false, err
	}

	fx := rates.DefaultExchangeRates()
	if raw := r.FormValue("exchange_rates"); raw != "" {
		var reqs []ExchangeRateRequest
		if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
			return nil, nil, "", false, fmt.Errorf("exchange_rates: %w", err)
		}
		for _, req := range reqs {
			method := rates.ConversionMethod(req.Method)
			if method == "" {
				method = rates.ConvertMultiply
			}
			fx[rates.Currency(strings.ToUpper(req.Currency))] =
				rates.NormalizeRate(decimal.NewFromFloat(req.Value), method)
		}
	}

	offshore := rates.Country(r.FormValue("offshore_country"))
	return card, fx, offshore, true, nil
}

func (h *Handler) parseAdjustments(raw string) (map[billing.EmployeeID]billing.Adjustment, error) {
	if raw == "" {
		return nil, nil
	}
	var reqs []AdjustmentRequest
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, err
	}

	out := make(map[billing.EmployeeID]billing.Adjustment, len(reqs))
	for _, req := range reqs {
		if req.EmployeeID == "" {
			return nil, fmt.Errorf("adjustment without employee_id")
		}
		var adj billing.Adjustment
		if req.ExitDate != "" {
			t, err := billing.ParseDate(req.ExitDate)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", req.EmployeeID, err)
			}
			adj.ExitDate = &t
		}
		if req.LeaveMonth != "" {
			m, ok := parseMonthName(req.LeaveMonth)
			if !ok {
				return nil, fmt.Errorf("%s: unknown month %q", req.EmployeeID, req.LeaveMonth)
			}
			adj.LeaveMonth = m
			adj.LeaveDays = req.LeaveDays
		}
		if req.Replacement != nil {
			t, err := billing.ParseDate(req.Replacement.JoinDate)
			if err != nil {
				return nil, fmt.Errorf("replacement for %s: %w", req.EmployeeID, err)
			}
			adj.Replacement = &billing.Replacement{
				EmployeeID: billing.EmployeeID(req.Replacement.EmployeeID),
				Name:       req.Replacement.Name,
				JoinDate:   t,
			}
		}
		out[billing.EmployeeID(req.EmployeeID)] = adj
	}
	return out, nil
}

// actualOverrides reads the optional "actuals" table: an employee column plus
// "<Mon> Actual" columns, matching the updated-actuals spreadsheet the team
// circulates mid-quarter.
func (h *Handler) actualOverrides(r *http.Request, schema billing.Schema) (billing.ActualOverrides, error) {
	table, ok, err := h.formFile(r, "actuals")
	if err != nil || !ok {
		return nil, err
	}
	return billing.ParseActualOverrides(billing.Input{
		Name:   table.Name,
		Header: table.Header,
		Rows:   table.Rows,
	}, schema)
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

func writeTable(w http.ResponseWriter, t tabular.Table, format tabular.Format, basename string) {
	switch format {
	case tabular.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", basename))
		if err := tabular.WriteXLSX(w, t, ""); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to render workbook", err)
		}
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", basename))
		if err := tabular.WriteCSV(w, t); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to render csv", err)
		}
	}
}
