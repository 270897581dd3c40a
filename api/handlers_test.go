package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/billing-engine/api"
	"github.com/warp/billing-engine/formats"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	h := api.NewHandler(formats.NewRegistry(), nil)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

// multipartBody builds a multipart request body with one uploaded file plus
// plain form fields.
func multipartBody(t *testing.T, field, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename != "" {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postMultipart(t *testing.T, url string, body *bytes.Buffer, contentType string) *http.Response {
	resp, err := http.Post(url, contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const allocationsCSV = `Employee ID,NAME,Deputation,Billing Month,Allocated Hours,Rate,Leave,TSR Code
emp-1,Ada,ONSITE,2025-03,20,50,2,102
emp-2,Ben,NEARSHORE,2025-03,160,75,0,102
emp-3,Cyd,ONSITE,2025-03,100,bad,0,
`

const rateCardCSV = `TSR Code,TSR Name,USD,INR
102,Senior Engineer,9000,250000
`

// =============================================================================
// REPORT ENDPOINT
// =============================================================================

func TestProcessReport_JSON(t *testing.T) {
	// GIVEN: An allocations upload with one bad row
	// WHEN: POSTing to /api/reports
	// THEN: Two rows compute, the bad one comes back as a warning

	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "alloc.csv", allocationsCSV, nil)

	resp := postMultipart(t, srv.URL+"/api/reports", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report api.ReportDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))

	assert.Equal(t, 2, report.Included)
	assert.Equal(t, 1, report.Excluded)
	require.Len(t, report.Results, 2)

	// emp-1: (20-2) * 50 = 900.00 at 90% utilization
	assert.Equal(t, "emp-1", report.Results[0].EmployeeID)
	assert.InDelta(t, 900.00, report.Results[0].Amount, 0.001)
	assert.InDelta(t, 90.00, report.Results[0].Utilization, 0.001)
	assert.Nil(t, report.Results[0].CostUSD)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "emp-3", report.Warnings[0].EmployeeID)
}

func TestProcessReport_WithRateCard(t *testing.T) {
	// GIVEN: An allocations upload plus a rate card
	// THEN: Cost and DGM columns are populated per row

	srv := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("allocations", "alloc.csv")
	require.NoError(t, err)
	fw.Write([]byte(allocationsCSV))
	fw, err = w.CreateFormFile("ratecard", "card.csv")
	require.NoError(t, err)
	fw.Write([]byte(rateCardCSV))
	require.NoError(t, w.Close())

	resp := postMultipart(t, srv.URL+"/api/reports", &buf, w.FormDataContentType())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report api.ReportDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Len(t, report.Results, 2)

	// emp-1 ONSITE -> USD column
	require.NotNil(t, report.Results[0].CostUSD)
	assert.InDelta(t, 9000.00, *report.Results[0].CostUSD, 0.001)

	// emp-2 NEARSHORE -> INR at the default 0.012: 250000 * 0.012 = 3000
	require.NotNil(t, report.Results[1].CostUSD)
	assert.InDelta(t, 3000.00, *report.Results[1].CostUSD, 0.001)
	// billing 12000, DGM 9000, 75%
	require.NotNil(t, report.Results[1].DGMPercent)
	assert.InDelta(t, 75.00, *report.Results[1].DGMPercent, 0.001)
}

func TestProcessReport_CSVDownload(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "alloc.csv", allocationsCSV,
		map[string]string{"format": "csv"})

	resp := postMultipart(t, srv.URL+"/api/reports", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "billing_report.csv")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Utilization %")
	assert.Contains(t, string(data), "900.00")
}

func TestProcessReport_MissingFile(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "", "", map[string]string{"format": "json"})

	resp := postMultipart(t, srv.URL+"/api/reports", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessReport_EmptyTable(t *testing.T) {
	// GIVEN: A header-only upload
	// THEN: 400 with the structural error message

	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "alloc.csv",
		"Employee ID,Hours,Rate\n", nil)

	resp := postMultipart(t, srv.URL+"/api/reports", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var er api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Contains(t, er.Details, "no data rows")
}

func TestProcessReport_UnknownProfile(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "alloc.csv", allocationsCSV,
		map[string]string{"profile": "nonexistent"})

	resp := postMultipart(t, srv.URL+"/api/reports", body, ct)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessReport_BadPeriod(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "alloc.csv", allocationsCSV,
		map[string]string{"period": "March"})

	resp := postMultipart(t, srv.URL+"/api/reports", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SCHEDULE ENDPOINT
// =============================================================================

const rosterCSV = `Employee ID,NAME,Deputation,Rate
emp-1,Ada,ONSITE,50
`

func TestProcessSchedule_JSON(t *testing.T) {
	// GIVEN: A roster without allocated hours
	// WHEN: POSTing to /api/schedule with an exit adjustment
	// THEN: Twelve months come back with the exit prorated

	srv := newTestServer(t)
	adjustments := `[{"employee_id":"emp-1","exit_date":"2025-06-15"}]`
	body, ct := multipartBody(t, "allocations", "roster.csv", rosterCSV,
		map[string]string{"year": "2025", "adjustments": adjustments})

	resp := postMultipart(t, srv.URL+"/api/schedule", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var schedule api.ScheduleDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schedule))

	assert.Equal(t, 2025, schedule.Year)
	require.Len(t, schedule.Rows, 1)
	row := schedule.Rows[0]

	require.Len(t, row.Months, 12)
	assert.InDelta(t, 168.0, row.Months["May"].Actual, 0.001)
	assert.InDelta(t, 120.0, row.Months["Jun"].Actual, 0.001)
	assert.Zero(t, row.Months["Jul"].Actual)
	assert.Equal(t, "Inactive", row.Status)
}

func TestProcessSchedule_Replacement(t *testing.T) {
	srv := newTestServer(t)
	adjustments := `[{"employee_id":"emp-1","exit_date":"2025-06-15",` +
		`"replacement":{"employee_id":"emp-9","name":"Ben","join_date":"2025-08-10"}}]`
	body, ct := multipartBody(t, "allocations", "roster.csv", rosterCSV,
		map[string]string{"year": "2025", "adjustments": adjustments})

	resp := postMultipart(t, srv.URL+"/api/schedule", body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var schedule api.ScheduleDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schedule))

	require.Len(t, schedule.Rows, 2)
	rep := schedule.Rows[1]
	assert.True(t, rep.IsReplacement)
	assert.Equal(t, "emp-9", rep.EmployeeID)
	assert.Zero(t, rep.Months["Jul"].Actual)
	assert.InDelta(t, 96.0, rep.Months["Aug"].Actual, 0.001)
}

func TestProcessSchedule_BadAdjustments(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "roster.csv", rosterCSV,
		map[string]string{"adjustments": `[{"exit_date":"2025-06-15"}]`})

	resp := postMultipart(t, srv.URL+"/api/schedule", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessSchedule_BadYear(t *testing.T) {
	srv := newTestServer(t)
	body, ct := multipartBody(t, "allocations", "roster.csv", rosterCSV,
		map[string]string{"year": "1066"})

	resp := postMultipart(t, srv.URL+"/api/schedule", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// PROFILES AND HEALTH
// =============================================================================

func TestListProfiles(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/profiles")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profiles []api.ProfileDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, "default", profiles[0].Name)
	assert.Equal(t, "half_up", profiles[0].Rounding)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
