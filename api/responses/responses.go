package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/types"
)

// RequestIDHeader is set by the request id middleware before handlers run.
const RequestIDHeader = "X-Request-Id"

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.DataEnvelope[any]{Data: data})
}

// WriteError maps err onto its public code and status. Codes that do not
// expose their message answer with the generic text for the code; the full
// error chain only reaches the log.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	problem := types.Problem{
		Code:      string(typed.Code()),
		Message:   pkgerrors.PublicMessage(typed),
		RequestID: w.Header().Get(RequestIDHeader),
	}
	if meta.DetailsAllowed && typed.Details() != nil {
		problem.Details = typed.Details()
	}

	if logg != nil {
		fields := pkgerrors.Diagnose(err).LogFields()
		fields["http_status"] = meta.HTTPStatus
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(logg.WithFields(ctx, fields), "request.error", err)
		} else {
			logg.Warn(logg.WithFields(ctx, fields), "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, types.ProblemEnvelope{Error: problem})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response"}}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
