/*
render.go - Tabular renderings of reports and schedules

PURPOSE:
  Flattens the JSON DTOs into plain tables for CSV and XLSX downloads. The
  column layouts mirror the spreadsheets the billing team used to maintain by
  hand, so a downloaded workbook drops straight into their review flow.

SEE ALSO:
  - tabular/: CSV and XLSX writers consuming these tables
*/
package api

import (
	"strconv"
	"time"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/rates"
	"github.com/warp/billing-engine/tabular"
)

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// =============================================================================
// REPORT TABLE
// =============================================================================

// RenderReportTable flattens a period report, one row per included input row.
// Cost and margin columns appear only when a rate card was supplied.
func RenderReportTable(report *billing.Report, costs map[int]rates.Cost) tabular.Table {
	withCard := costs != nil

	header := []string{
		"Employee ID", "Name", "Project", "Deputation", "Period",
		"Allocated", "Leave", "Billable", "Rate", "Amount", "Utilization %",
	}
	if withCard {
		header = append(header, "Cost (USD)", "DGM", "DGM %")
	}

	t := tabular.Table{Name: "billing_report", Header: header}
	for _, r := range report.Results {
		dto := toResultDTO(r)
		row := []string{
			dto.EmployeeID, dto.Name, dto.Project, dto.Deputation, dto.Period,
			num(dto.Allocated), num(dto.Leave), num(dto.Billable),
			money(dto.Rate), money(dto.Amount), money(dto.Utilization),
		}
		if withCard {
			cost := costs[r.RowIndex]
			margin := rates.ComputeMargin(r.Amount, cost.AmountUSD)
			row = append(row,
				money(f64(cost.AmountUSD)),
				money(f64(margin.DGM)),
				money(f64(margin.DGMPercent)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// =============================================================================
// SCHEDULE TABLE
// =============================================================================

// RenderScheduleTable flattens a schedule into the wide monthly layout:
// identity columns, then Planned/Actual/Billing per month, then totals.
func RenderScheduleTable(dto ScheduleDTO) tabular.Table {
	withCard := len(dto.Rows) > 0 && dto.Rows[0].TotalCost != nil

	header := []string{"Employee ID", "Name", "Project", "Deputation", "Status", "Rate"}
	for _, m := range billing.MonthsOrdered() {
		mon := m.String()[:3]
		header = append(header, mon+" Planned", mon+" Actual", mon+" Billing")
	}
	header = append(header,
		"Total Planned", "Total Actual", "Diff", "Utilization %", "Billing Amount")
	if withCard {
		header = append(header, "Total Cost (USD)", "DGM", "DGM %")
	}

	t := tabular.Table{Name: "billing_schedule", Header: header}
	for _, row := range dto.Rows {
		out := []string{
			row.EmployeeID, row.Name, row.Project, row.Deputation, row.Status,
			money(row.Rate),
		}
		for _, m := range billing.MonthsOrdered() {
			cell := row.Months[monthKey(m)]
			out = append(out, num(cell.Planned), num(cell.Actual), money(cell.Billing))
		}
		out = append(out,
			num(row.TotalPlanned), num(row.TotalActual), num(row.PlannedActualDiff),
			money(row.Utilization), money(row.BillingAmount))
		if withCard {
			out = append(out, ptrMoney(row.TotalCost), ptrMoney(row.DGM), ptrMoney(row.DGMPercent))
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}

func monthKey(m time.Month) string { return m.String()[:3] }

func ptrMoney(f *float64) string {
	if f == nil {
		return ""
	}
	return money(*f)
}
