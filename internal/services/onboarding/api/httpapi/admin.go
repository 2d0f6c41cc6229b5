package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/platform/httpx"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
)

type reviewRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	status := domain.ApplicationStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case "", domain.ApplicationPending, domain.ApplicationApproved, domain.ApplicationRejected:
	default:
		s.writeError(w, r, apperrors.WithMetadata(apperrors.CodeValidation, "unknown application status",
			map[string]string{"Status": string(status)}))
		return
	}
	applications, err := s.review.ListStoreApplications(r.Context(), status)
	if err != nil {
		s.writeError(w, r, s.handle(r.Context(), err, "admin.applications"))
		return
	}
	if applications == nil {
		applications = []domain.StoreApplication{}
	}
	s.writeData(w, r, http.StatusOK, applications)
}

func (s *Server) approveApplication(w http.ResponseWriter, r *http.Request) {
	s.reviewApplication(w, r, "admin.application.approved", s.review.ApproveStoreApplication)
}

func (s *Server) rejectApplication(w http.ResponseWriter, r *http.Request) {
	s.reviewApplication(w, r, "admin.application.rejected", s.review.RejectStoreApplication)
}

type reviewFunc func(ctx context.Context, id int64, notes string) (domain.StoreApplication, error)

func (s *Server) reviewApplication(w http.ResponseWriter, r *http.Request, successKey string, decide reviewFunc) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, apperrors.WithMetadata(apperrors.CodeValidation, "invalid application id",
			map[string]string{"ApplicationID": raw}))
		return
	}
	var request reviewRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, 64<<10, &request); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	application, err := decide(r.Context(), id, strings.TrimSpace(request.Notes))
	if err != nil {
		s.writeError(w, r, s.handle(r.Context(), err, "admin.review"))
		return
	}
	s.toast(r.Context(), successKey)
	s.writeData(w, r, http.StatusOK, application)
}
