/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model (decimal-based) from the external API contract
  (plain JSON numbers), allowing field renaming and API evolution without
  touching the engine.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - render.go: Tabular (CSV/XLSX) renderings of the same reports
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/rates"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// ResultDTO is one computed billing row.
type ResultDTO struct {
	Row         int     `json:"row"`
	EmployeeID  string  `json:"employee_id"`
	Name        string  `json:"name,omitempty"`
	Project     string  `json:"project,omitempty"`
	Deputation  string  `json:"deputation,omitempty"`
	Period      string  `json:"period"`
	Allocated   float64 `json:"allocated"`
	Rate        float64 `json:"rate"`
	Leave       float64 `json:"leave"`
	ExitDate    string  `json:"exit_date,omitempty"`
	Billable    float64 `json:"billable"`
	Amount      float64 `json:"amount"`
	Utilization float64 `json:"utilization"`
	Prorated    bool    `json:"prorated,omitempty"`

	// Rate-card columns, present only when a rate card was supplied.
	CostUSD    *float64 `json:"cost_usd,omitempty"`
	DGM        *float64 `json:"dgm,omitempty"`
	DGMPercent *float64 `json:"dgm_percent,omitempty"`
}

// WarningDTO is one excluded-row warning.
type WarningDTO struct {
	Row        int    `json:"row"`
	EmployeeID string `json:"employee_id,omitempty"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
}

// EmployeeSummaryDTO is one employee's per-period rollup.
type EmployeeSummaryDTO struct {
	EmployeeID      string  `json:"employee_id"`
	Period          string  `json:"period"`
	Rows            int     `json:"rows"`
	TotalAmount     float64 `json:"total_amount"`
	MeanUtilization float64 `json:"mean_utilization"`
}

// PeriodSummaryDTO is one period's whole rollup.
type PeriodSummaryDTO struct {
	Period          string  `json:"period"`
	Employees       int     `json:"employees"`
	Rows            int     `json:"rows"`
	TotalAmount     float64 `json:"total_amount"`
	MeanUtilization float64 `json:"mean_utilization"`
}

// ReportDTO is the full report response.
type ReportDTO struct {
	Results   []ResultDTO          `json:"results"`
	Warnings  []WarningDTO         `json:"warnings"`
	Employees []EmployeeSummaryDTO `json:"employees"`
	Periods   []PeriodSummaryDTO   `json:"periods"`
	Included  int                  `json:"included"`
	Excluded  int                  `json:"excluded"`
}

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// MonthCellDTO is one month of one schedule row.
type MonthCellDTO struct {
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
	Billing float64 `json:"billing"`
	Cost    float64 `json:"cost,omitempty"`
}

// ScheduleRowDTO is one employee's full-year schedule.
type ScheduleRowDTO struct {
	EmployeeID         string                  `json:"employee_id"`
	Name               string                  `json:"name,omitempty"`
	Project            string                  `json:"project,omitempty"`
	Deputation         string                  `json:"deputation,omitempty"`
	Status             string                  `json:"status,omitempty"`
	Rate               float64                 `json:"rate"`
	RateCode           string                  `json:"rate_code,omitempty"`
	Months             map[string]MonthCellDTO `json:"months"`
	TotalPlanned       float64                 `json:"total_planned"`
	TotalActual        float64                 `json:"total_actual"`
	PlannedActualDiff  float64                 `json:"planned_actual_diff"`
	Utilization        float64                 `json:"utilization"`
	BillingAmount      float64                 `json:"billing_amount"`
	UpdatedFromActuals bool                    `json:"updated_from_actuals,omitempty"`
	IsReplacement      bool                    `json:"is_replacement,omitempty"`

	TotalCost  *float64 `json:"total_cost,omitempty"`
	DGM        *float64 `json:"dgm,omitempty"`
	DGMPercent *float64 `json:"dgm_percent,omitempty"`
}

// ScheduleDTO is the full schedule response.
type ScheduleDTO struct {
	Year     int              `json:"year"`
	Rows     []ScheduleRowDTO `json:"rows"`
	Warnings []WarningDTO     `json:"warnings"`
}

// AdjustmentRequest is one employee adjustment supplied with a schedule run.
type AdjustmentRequest struct {
	EmployeeID  string              `json:"employee_id"`
	ExitDate    string              `json:"exit_date,omitempty"` // YYYY-MM-DD
	LeaveMonth  string              `json:"leave_month,omitempty"`
	LeaveDays   int                 `json:"leave_days,omitempty"`
	Replacement *ReplacementRequest `json:"replacement,omitempty"`
}

// ReplacementRequest describes a mid-year joiner replacing a leaver.
type ReplacementRequest struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	JoinDate   string `json:"join_date"` // YYYY-MM-DD
}

// ExchangeRateRequest is one user-entered exchange rate.
type ExchangeRateRequest struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
	Method   string  `json:"method,omitempty"` // multiply (default) or divide
}

// ProfileDTO describes one registered format profile.
type ProfileDTO struct {
	Name      string `json:"name"`
	Rounding  string `json:"rounding"`
	Proration string `json:"proration"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toResultDTO(r billing.BillingResult) ResultDTO {
	dto := ResultDTO{
		Row:         r.RowIndex,
		EmployeeID:  string(r.EmployeeID),
		Name:        r.Name,
		Project:     r.Project,
		Deputation:  string(r.Deputation),
		Period:      r.Period.String(),
		Allocated:   f64(r.Allocated.Value),
		Rate:        f64(r.Rate),
		Leave:       f64(r.Leave.Value),
		Billable:    f64(r.Billable.Value),
		Amount:      f64(r.Amount),
		Utilization: f64(r.Utilization),
		Prorated:    r.Prorated,
	}
	if r.ExitDate != nil {
		dto.ExitDate = r.ExitDate.Format("2006-01-02")
	}
	return dto
}

func toWarningDTOs(ws []billing.Warning) []WarningDTO {
	dtos := make([]WarningDTO, len(ws))
	for i, w := range ws {
		dtos[i] = WarningDTO{
			Row:        w.RowIndex,
			EmployeeID: string(w.EmployeeID),
			Field:      string(w.Field),
			Message:    w.Message,
		}
	}
	return dtos
}

func BuildReportDTO(report *billing.Report, costs map[int]rates.Cost) ReportDTO {
	dto := ReportDTO{
		Results:   make([]ResultDTO, 0, len(report.Results)),
		Warnings:  toWarningDTOs(report.Warnings),
		Employees: make([]EmployeeSummaryDTO, 0, len(report.Employees)),
		Periods:   make([]PeriodSummaryDTO, 0, len(report.Periods)),
		Included:  report.Included(),
		Excluded:  len(report.Warnings),
	}

	for _, r := range report.Results {
		rd := toResultDTO(r)
		if costs != nil {
			cost := costs[r.RowIndex]
			margin := rates.ComputeMargin(r.Amount, cost.AmountUSD)
			c, d, p := f64(cost.AmountUSD), f64(margin.DGM), f64(margin.DGMPercent)
			rd.CostUSD, rd.DGM, rd.DGMPercent = &c, &d, &p
		}
		dto.Results = append(dto.Results, rd)
	}
	for _, e := range report.Employees {
		dto.Employees = append(dto.Employees, EmployeeSummaryDTO{
			EmployeeID:      string(e.EmployeeID),
			Period:          e.Period.String(),
			Rows:            e.Rows,
			TotalAmount:     f64(e.TotalAmount),
			MeanUtilization: f64(e.MeanUtilization),
		})
	}
	for _, p := range report.Periods {
		dto.Periods = append(dto.Periods, PeriodSummaryDTO{
			Period:          p.Period.String(),
			Employees:       p.Employees,
			Rows:            p.Rows,
			TotalAmount:     f64(p.TotalAmount),
			MeanUtilization: f64(p.MeanUtilization),
		})
	}
	return dto
}

func toScheduleRowDTO(row billing.ScheduleRow, cost *rates.Cost) ScheduleRowDTO {
	dto := ScheduleRowDTO{
		EmployeeID:         string(row.EmployeeID),
		Name:               row.Name,
		Project:            row.Project,
		Deputation:         string(row.Deputation),
		Status:             row.Status,
		Rate:               f64(row.Rate),
		RateCode:           row.RateCode,
		Months:             make(map[string]MonthCellDTO, 12),
		TotalPlanned:       f64(row.TotalPlanned),
		TotalActual:        f64(row.TotalActual),
		PlannedActualDiff:  f64(row.PlannedActualDiff),
		Utilization:        f64(row.Utilization),
		BillingAmount:      f64(row.BillingAmount),
		UpdatedFromActuals: row.UpdatedFromActuals,
		IsReplacement:      row.IsReplacement,
	}

	totalCost := decimal.Zero
	for _, m := range billing.MonthsOrdered() {
		cell := row.Months[m]
		cd := MonthCellDTO{
			Planned: f64(cell.Planned),
			Actual:  f64(cell.Actual),
			Billing: f64(cell.Billing),
		}
		if cost != nil {
			// Seat cost applies evenly to every month of the year.
			cd.Cost = f64(cost.AmountUSD)
			totalCost = totalCost.Add(cost.AmountUSD)
		}
		dto.Months[m.String()[:3]] = cd
	}

	if cost != nil {
		margin := rates.ComputeMargin(row.BillingAmount, totalCost)
		tc, d, p := f64(totalCost), f64(margin.DGM), f64(margin.DGMPercent)
		dto.TotalCost, dto.DGM, dto.DGMPercent = &tc, &d, &p
	}
	return dto
}

func parseMonthName(name string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		if name == m.String() || name == m.String()[:3] {
			return m, true
		}
	}
	return 0, false
}
