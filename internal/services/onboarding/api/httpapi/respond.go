package httpapi

import (
	"errors"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	errori18n "github.com/louisbranch/farmstand.market/internal/platform/errors/i18n"
	"github.com/louisbranch/farmstand.market/internal/platform/httpx"
	"github.com/louisbranch/farmstand.market/internal/platform/notice"
	"github.com/louisbranch/farmstand.market/internal/platform/requestctx"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/wizard"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type envelope struct {
	Data     any             `json:"data,omitempty"`
	Error    *errorBody      `json:"error,omitempty"`
	Notices  []notice.Notice `json:"notices"`
	Redirect string          `json:"redirect,omitempty"`
}

func (s *Server) writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := httpx.WriteJSON(w, status, envelope{Data: data, Notices: drainNotices(r)}); err != nil {
		log.Printf("write response path=%s err=%v", r.URL.Path, err)
	}
}

// writeError renders err. Field errors from a failed step come back under
// "fields"; an auth failure flagged on the request answers 401 with a login
// redirect.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	body := &errorBody{}
	status := http.StatusInternalServerError

	var invalid *wizard.ValidationError
	if errors.As(err, &invalid) {
		body.Code = string(apperrors.CodeValidation)
		body.Message = errori18n.Localize(requestctx.LocaleFromContext(ctx), body.Code, nil)
		body.Fields = invalid.Errors
		status = http.StatusUnprocessableEntity
	} else {
		classified := storeerror.Classify(ctx, err)
		body.Code = string(classified.Code)
		body.Message = classified.Message
		body.Field = classified.Field
		body.Details = classified.Details
		status = classified.Code.HTTPStatus()
	}
	if status >= http.StatusInternalServerError {
		log.Printf("request failed method=%s path=%s status=%d code=%s err=%v", r.Method, r.URL.Path, status, body.Code, err)
	}

	response := envelope{Error: body, Notices: drainNotices(r)}
	if body.Code == string(apperrors.CodeUnauthorized) {
		status = http.StatusUnauthorized
		if authFailed(ctx) {
			s.signOut(ctx)
			response.Redirect = s.loginPath
			httpx.SetHXRedirect(w, s.loginPath)
		}
	}
	if writeErr := httpx.WriteJSON(w, status, response); writeErr != nil {
		log.Printf("write error response path=%s err=%v", r.URL.Path, writeErr)
	}
}

func drainNotices(r *http.Request) []notice.Notice {
	return notice.FromContext(r.Context()).Drain()
}
