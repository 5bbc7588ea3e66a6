package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leavedesk/leavedesk/ledger"
	memstore "github.com/leavedesk/leavedesk/ledger/store"
)

func newTestHandler(t *testing.T) (*Handler, *memstore.Memory) {
	t.Helper()
	store := memstore.NewMemory()
	booking := ledger.NewBookingService(store).WithClock(func() time.Time {
		d, _ := time.Parse(ledger.DateFormat, "2029-12-01")
		return d
	})
	h := NewHandler(ledger.NewQueryService(store), booking, nil, nil)
	return h, store
}

func seedHandlerEmployee(t *testing.T, store *memstore.Memory, name string, days int) int64 {
	t.Helper()
	ctx := context.Background()
	emp := &ledger.Employee{
		Name:      name,
		JobTitle:  "Developer",
		StartDate: "2020-01-15",
		Status:    ledger.StatusActive,
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))
	require.NoError(t, store.SaveBalance(ctx, ledger.LeaveBalance{EmployeeID: emp.ID, AvailableDays: days}))
	return emp.ID
}

// =============================================================================
// PARAMETERS
// =============================================================================

func TestParamsFromList_LaterDuplicatesWin(t *testing.T) {
	p := ParamsFromList([]Parameter{
		{Name: "employee_id", Value: "1"},
		{Name: "employee_id", Value: "2"},
	})
	assert.Equal(t, "2", p["employee_id"])
}

func TestParamsRequire(t *testing.T) {
	p := Params{"employee_name": "John Doe", "start_date": ""}

	v, err := p.Require("employee_name")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", v)

	// Empty and absent both count as missing.
	_, err = p.Require("start_date")
	assert.ErrorIs(t, err, ledger.ErrMissingParameter)
	_, err = p.Require("end_date")
	assert.ErrorIs(t, err, ledger.ErrMissingParameter)
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestDispatch_LookupEmployeeID(t *testing.T) {
	h, store := newTestHandler(t)
	id := seedHandlerEmployee(t, store, "John Doe", 10)

	result, err := h.Dispatch(context.Background(), "lookup_employee_id", Params{"employee_name": "John Doe"})
	require.NoError(t, err)
	assert.Equal(t, EmployeeIDDTO{EmployeeName: "John Doe", EmployeeID: id}, result)
}

func TestDispatch_GetEmployee(t *testing.T) {
	h, store := newTestHandler(t)
	id := seedHandlerEmployee(t, store, "Jane Smith", 10)

	result, err := h.Dispatch(context.Background(), "get_employee", Params{"employee_id": strconv.FormatInt(id, 10)})
	require.NoError(t, err)

	dto, ok := result.(EmployeeDTO)
	require.True(t, ok)
	assert.Equal(t, "Jane Smith", dto.Name)
	assert.Equal(t, "Developer", dto.JobTitle)
	assert.Equal(t, "Active", dto.Status)
}

func TestDispatch_GetBalance(t *testing.T) {
	h, store := newTestHandler(t)
	id := seedHandlerEmployee(t, store, "Tom Brown", 12)

	result, err := h.Dispatch(context.Background(), "get_balance", Params{"employee_id": strconv.FormatInt(id, 10)})
	require.NoError(t, err)
	assert.Equal(t, BalanceDTO{EmployeeID: id, AvailableDays: 12}, result)
}

func TestDispatch_BookAndListAndCancel(t *testing.T) {
	h, store := newTestHandler(t)
	id := seedHandlerEmployee(t, store, "Emily Davis", 10)
	idStr := strconv.FormatInt(id, 10)
	ctx := context.Background()

	result, err := h.Dispatch(ctx, "book", Params{
		"employee_id": idStr,
		"start_date":  "2030-01-06",
		"end_date":    "2030-01-10",
	})
	require.NoError(t, err)
	booked, ok := result.(*ledger.BookingResult)
	require.True(t, ok)
	assert.Equal(t, 5, booked.DaysTaken)
	assert.Equal(t, 5, booked.Remaining)

	result, err = h.Dispatch(ctx, "list_bookings", Params{"employee_id": idStr})
	require.NoError(t, err)
	list, ok := result.(BookingListDTO)
	require.True(t, ok)
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, "2030-01-06", list.Bookings[0].StartDate)

	result, err = h.Dispatch(ctx, "cancel", Params{
		"employee_id": idStr,
		"start_date":  "2030-01-06",
	})
	require.NoError(t, err)
	cancelled, ok := result.(*ledger.CancelResult)
	require.True(t, ok)
	assert.Equal(t, 5, cancelled.DaysRestored)
	assert.Equal(t, 10, cancelled.Remaining)
}

func TestDispatch_MissingParameterFailsBeforeStore(t *testing.T) {
	h, store := newTestHandler(t)
	id := seedHandlerEmployee(t, store, "Michael Wilson", 10)

	_, err := h.Dispatch(context.Background(), "book", Params{
		"employee_id": strconv.FormatInt(id, 10),
		"start_date":  "2030-01-06",
	})
	assert.ErrorIs(t, err, ledger.ErrMissingParameter)

	// Nothing was booked, nothing was deducted.
	bookings, storeErr := store.ListBookings(context.Background(), id)
	require.NoError(t, storeErr)
	assert.Empty(t, bookings)
	bal, storeErr := store.GetBalance(context.Background(), id)
	require.NoError(t, storeErr)
	assert.Equal(t, 10, bal.AvailableDays)
}

func TestDispatch_NonIntegerEmployeeID(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Dispatch(context.Background(), "get_balance", Params{"employee_id": "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employee_id must be an integer")
}

func TestDispatch_UnknownFunction(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Dispatch(context.Background(), "frobnicate", Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestDispatch_ScanContentWithoutScanner(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Dispatch(context.Background(), "scan_content", Params{"kind": "prompt", "text": "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

// =============================================================================
// HTTP
// =============================================================================

func invokeHTTP(t *testing.T, h *Handler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Invoke(rec, req)
	return rec
}

func envelopeBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp InvokeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Response.FunctionResponse.ResponseBody.Text.Body
}

func TestInvoke_SuccessEnvelope(t *testing.T) {
	h, store := newTestHandler(t)
	id := seedHandlerEmployee(t, store, "Sarah Taylor", 10)

	rec := invokeHTTP(t, h, `{
		"actionGroup": "hr_actions",
		"function": "get_balance",
		"parameters": [{"name": "employee_id", "value": "`+strconv.FormatInt(id, 10)+`"}],
		"messageVersion": "1.0"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp InvokeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hr_actions", resp.Response.ActionGroup)
	assert.Equal(t, "get_balance", resp.Response.Function)
	assert.Equal(t, "1.0", resp.MessageVersion)

	var dto BalanceDTO
	require.NoError(t, json.Unmarshal([]byte(resp.Response.FunctionResponse.ResponseBody.Text.Body), &dto))
	assert.Equal(t, 10, dto.AvailableDays)
}

func TestInvoke_BadJSONRejected(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := invokeHTTP(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoke_EmptyFunctionRejected(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := invokeHTTP(t, h, `{"parameters": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var dto ErrorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "no function was called", dto.Error)
}

func TestInvoke_MissingParameterIsHardFailure(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := invokeHTTP(t, h, `{"function": "lookup_employee_id", "parameters": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var dto ErrorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Contains(t, dto.Error, "employee_name")
}

func TestInvoke_OperationErrorEmbeddedInEnvelope(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := invokeHTTP(t, h, `{
		"function": "lookup_employee_id",
		"parameters": [{"name": "employee_name", "value": "Nobody"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto ErrorDTO
	require.NoError(t, json.Unmarshal([]byte(envelopeBody(t, rec)), &dto))
	assert.NotEmpty(t, dto.Error)
	assert.Nil(t, dto.LeaveAvailable)
}

func TestInvoke_InsufficientBalanceCarriesAvailableDays(t *testing.T) {
	h, store := newTestHandler(t)
	id := seedHandlerEmployee(t, store, "David Lee", 3)

	rec := invokeHTTP(t, h, `{
		"function": "book",
		"parameters": [
			{"name": "employee_id", "value": "`+strconv.FormatInt(id, 10)+`"},
			{"name": "start_date", "value": "2030-01-06"},
			{"name": "end_date", "value": "2030-01-15"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto ErrorDTO
	require.NoError(t, json.Unmarshal([]byte(envelopeBody(t, rec)), &dto))
	assert.NotEmpty(t, dto.Error)
	require.NotNil(t, dto.LeaveAvailable)
	assert.Equal(t, 3, *dto.LeaveAvailable)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
