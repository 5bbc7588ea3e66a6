/*
handlers.go - Dispatch adapter mapping function calls to services

PURPOSE:
  Receives a function name and a list of named string parameters from
  the agent framework, extracts the values each operation needs, calls
  into the query/booking services or the safety scanner, and repackages
  the result into the response envelope.

RECOGNIZED OPERATIONS:
  lookup_employee_id  (employee_name)
  get_employee        (employee_id)
  get_balance         (employee_id)
  book                (employee_id, start_date, end_date)
  list_bookings       (employee_id)
  cancel              (employee_id, start_date)
  scan_content        (kind, text[, app_name, app_user, tr_id])

ERROR HANDLING:
  A missing required parameter fails hard (HTTP 400) before any store
  access. Every other failure is recovered at the operation boundary
  and converted into a structured error payload inside the envelope;
  nothing panics across this layer.

SEE ALSO:
  - dto.go: Envelope and payload types
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/leavedesk/leavedesk/ledger"
	"github.com/leavedesk/leavedesk/safety"
)

// =============================================================================
// PARAMETERS
// =============================================================================

// Params is the named-parameter mapping of one function call.
type Params map[string]string

// ParamsFromList flattens the envelope's parameter list. Later
// duplicates win, matching the original adapter's extraction loop.
func ParamsFromList(list []Parameter) Params {
	p := make(Params, len(list))
	for _, param := range list {
		p[param.Name] = param.Value
	}
	return p
}

// Require returns the named parameter or a MissingParameterError.
// Empty values count as missing: incomplete requests must never reach
// the store layer.
func (p Params) Require(name string) (string, error) {
	v, ok := p[name]
	if !ok || v == "" {
		return "", &ledger.MissingParameterError{Name: name}
	}
	return v, nil
}

func (p Params) requireEmployeeID() (int64, error) {
	v, err := p.Require("employee_id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("employee_id must be an integer, got %q", v)
	}
	return id, nil
}

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds the dispatch adapter's dependencies.
type Handler struct {
	Query   *ledger.QueryService
	Booking *ledger.BookingService
	Scanner *safety.Scanner
	Log     *zap.Logger
}

// NewHandler creates a dispatch handler. Scanner may be nil when no
// content-safety endpoint is configured.
func NewHandler(query *ledger.QueryService, booking *ledger.BookingService, scanner *safety.Scanner, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Query: query, Booking: booking, Scanner: scanner, Log: log}
}

// Dispatch routes one function call to its operation. The returned
// value is the success payload; a returned error is either a
// MissingParameterError (hard failure) or an operation error to embed
// in the envelope.
func (h *Handler) Dispatch(ctx context.Context, function string, params Params) (any, error) {
	switch function {
	case "lookup_employee_id":
		name, err := params.Require("employee_name")
		if err != nil {
			return nil, err
		}
		id, err := h.Query.LookupEmployeeID(ctx, name)
		if err != nil {
			return nil, err
		}
		return EmployeeIDDTO{EmployeeName: name, EmployeeID: id}, nil

	case "get_employee":
		id, err := params.requireEmployeeID()
		if err != nil {
			return nil, err
		}
		emp, err := h.Query.GetEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		return toEmployeeDTO(emp), nil

	case "get_balance":
		id, err := params.requireEmployeeID()
		if err != nil {
			return nil, err
		}
		days, err := h.Query.GetBalance(ctx, id)
		if err != nil {
			return nil, err
		}
		return BalanceDTO{EmployeeID: id, AvailableDays: days}, nil

	case "book":
		id, err := params.requireEmployeeID()
		if err != nil {
			return nil, err
		}
		start, err := params.Require("start_date")
		if err != nil {
			return nil, err
		}
		end, err := params.Require("end_date")
		if err != nil {
			return nil, err
		}
		return h.Booking.Book(ctx, id, start, end)

	case "list_bookings":
		id, err := params.requireEmployeeID()
		if err != nil {
			return nil, err
		}
		bookings, err := h.Query.ListBookings(ctx, id)
		if err != nil {
			return nil, err
		}
		return toBookingListDTO(id, bookings), nil

	case "cancel":
		id, err := params.requireEmployeeID()
		if err != nil {
			return nil, err
		}
		start, err := params.Require("start_date")
		if err != nil {
			return nil, err
		}
		return h.Booking.Cancel(ctx, id, start)

	case "scan_content":
		if h.Scanner == nil {
			return nil, errors.New("content scanning is not configured")
		}
		kind, err := params.Require("kind")
		if err != nil {
			return nil, err
		}
		text, err := params.Require("text")
		if err != nil {
			return nil, err
		}
		return h.Scanner.Scan(ctx, safety.Kind(kind), text,
			params["app_name"], params["app_user"], params["tr_id"])

	default:
		return nil, fmt.Errorf("unknown function: %s", function)
	}
}

// =============================================================================
// HTTP HANDLERS
// =============================================================================

// Invoke handles POST /invoke: envelope in, envelope out.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorDTO{Error: "invalid request body"})
		return
	}
	if req.Function == "" {
		writeJSON(w, http.StatusBadRequest, ErrorDTO{Error: "no function was called"})
		return
	}

	params := ParamsFromList(req.Parameters)
	result, err := h.Dispatch(r.Context(), req.Function, params)

	// Missing parameters fail fast: the request never reaches the
	// store layer and the caller sees a hard failure, not an envelope.
	if errors.Is(err, ledger.ErrMissingParameter) {
		writeJSON(w, http.StatusBadRequest, ErrorDTO{Error: err.Error()})
		return
	}

	var body string
	if err != nil {
		// Caller mistakes are routine; only system faults warrant a warning.
		logAt := h.Log.Warn
		if ledger.IsClientError(err) || ledger.IsNotFound(err) {
			logAt = h.Log.Info
		}
		logAt("dispatch failed",
			zap.String("function", req.Function),
			zap.Error(err))
		body = encodeBody(errorPayload(err))
	} else {
		body = encodeBody(result)
	}

	writeJSON(w, http.StatusOK, InvokeResponse{
		Response: ActionResponse{
			ActionGroup: req.ActionGroup,
			Function:    req.Function,
			FunctionResponse: FunctionResponse{
				ResponseBody: ResponseBody{Text: TextBody{Body: body}},
			},
		},
		MessageVersion: req.MessageVersion,
	})
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorPayload converts an operation error into the structured failure
// body, attaching the pre-call balance on insufficient-balance errors.
func errorPayload(err error) ErrorDTO {
	dto := ErrorDTO{Error: err.Error()}
	var insufficient *ledger.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		available := insufficient.Available
		dto.LeaveAvailable = &available
	}
	return dto
}

func encodeBody(payload any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return `{"error":"failed to encode response"}`
	}
	return string(b)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
