/*
dto.go - Data Transfer Objects for the dispatch API

PURPOSE:
  Defines the JSON structures exchanged with the agent orchestration
  framework. These types decouple the internal domain model from the
  external function-call contract.

ENVELOPE:
  The framework invokes a named function with a list of named string
  parameters and expects the result wrapped back into an action-group
  response envelope whose body is a TEXT payload.

NAMING CONVENTION:
  - *DTO: Response payload types serialized into the envelope body
  - Invoke*: Envelope types

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/leavedesk/leavedesk/ledger"

// =============================================================================
// INVOCATION ENVELOPE
// =============================================================================

// Parameter is one named string argument of a function call.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InvokeRequest is the inbound function-call event.
type InvokeRequest struct {
	ActionGroup    string      `json:"actionGroup"`
	Function       string      `json:"function"`
	Parameters     []Parameter `json:"parameters"`
	MessageVersion string      `json:"messageVersion"`
}

// InvokeResponse wraps the function result back into the caller's
// expected envelope.
type InvokeResponse struct {
	Response       ActionResponse `json:"response"`
	MessageVersion string         `json:"messageVersion"`
}

type ActionResponse struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

type FunctionResponse struct {
	ResponseBody ResponseBody `json:"responseBody"`
}

type ResponseBody struct {
	Text TextBody `json:"TEXT"`
}

type TextBody struct {
	Body string `json:"body"`
}

// =============================================================================
// RESULT PAYLOADS
// =============================================================================

// EmployeeIDDTO is the lookup_employee_id payload.
type EmployeeIDDTO struct {
	EmployeeName string `json:"employee_name"`
	EmployeeID   int64  `json:"employee_id"`
}

// EmployeeDTO is the get_employee payload.
type EmployeeDTO struct {
	EmployeeID  int64  `json:"employee_id"`
	Name        string `json:"employee_name"`
	DateOfBirth string `json:"employee_dob"`
	HomepageURL string `json:"employee_homepage"`
	JobTitle    string `json:"employee_job_title"`
	StartDate   string `json:"employee_start_date"`
	Status      string `json:"employee_employment_status"`
}

func toEmployeeDTO(e *ledger.Employee) EmployeeDTO {
	return EmployeeDTO{
		EmployeeID:  e.ID,
		Name:        e.Name,
		DateOfBirth: e.DateOfBirth,
		HomepageURL: e.HomepageURL,
		JobTitle:    e.JobTitle,
		StartDate:   e.StartDate,
		Status:      string(e.Status),
	}
}

// BalanceDTO is the get_balance payload.
type BalanceDTO struct {
	EmployeeID    int64 `json:"employee_id"`
	AvailableDays int   `json:"available_days"`
}

// BookingDTO is one entry of the list_bookings payload.
type BookingDTO struct {
	RequestID int64  `json:"request_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	DaysTaken int    `json:"days_taken"`
}

// BookingListDTO is the list_bookings payload. Bookings is always
// present, empty when the employee has none.
type BookingListDTO struct {
	EmployeeID int64        `json:"employee_id"`
	Bookings   []BookingDTO `json:"bookings"`
}

func toBookingListDTO(employeeID int64, bookings []ledger.LeaveBooking) BookingListDTO {
	dto := BookingListDTO{EmployeeID: employeeID, Bookings: []BookingDTO{}}
	for _, b := range bookings {
		dto.Bookings = append(dto.Bookings, BookingDTO{
			RequestID: b.RequestID,
			StartDate: b.StartDate.Format(ledger.DateFormat),
			EndDate:   b.EndDate.Format(ledger.DateFormat),
			DaysTaken: b.DaysTaken,
		})
	}
	return dto
}

// ErrorDTO is the failure payload: a short machine-checkable reason
// plus, where useful, diagnostic context.
type ErrorDTO struct {
	Error          string `json:"error"`
	LeaveAvailable *int   `json:"leave_available,omitempty"`
}
