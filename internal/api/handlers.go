package api

import (
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/maxaizer/campus-job-board/internal/logger"
	"github.com/maxaizer/campus-job-board/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).Errorf("failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, key, message string) {
	writeJSON(w, status, map[string]string{key: message})
}

func statusOf(kind services.ErrorKind) int {
	switch kind {
	case services.KindBadRequest, services.KindConflict:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var serviceErr *services.Error
	if !errors.As(err, &serviceErr) {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).Errorf("unexpected error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "error", "Internal server error")
		return
	}

	if serviceErr.Kind == services.KindInternal {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).Error(serviceErr.Error())
	}
	writeMessage(w, statusOf(serviceErr.Kind), "error", serviceErr.Message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeMessage(w, http.StatusBadRequest, "error", "Invalid JSON body")
		return false
	}
	return true
}

// tokenFromRequest accepts the raw token or a "Bearer <token>" value.
func tokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func pathID(w http.ResponseWriter, r *http.Request, notFound string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusNotFound, "error", notFound)
		return 0, false
	}
	return id, true
}

// authorized answers 401/403 itself so bodies are only read for permitted callers.
func (s *Server) authorized(w http.ResponseWriter, r *http.Request, permission services.Permission) bool {
	if _, err := s.board.Authorize(r.Context(), tokenFromRequest(r), permission); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "status", "ok")
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.board.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Registration successful", "user": user})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.Allow(clientIP(r)) {
		writeMessage(w, http.StatusTooManyRequests, "error", "Too many login attempts")
		return
	}

	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.board.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Login successful",
		"user":       result.User,
		"session_id": result.Token,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.board.Logout(tokenFromRequest(r))
	writeMessage(w, http.StatusOK, "message", "Logged out successfully")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.board.Me(r.Context(), tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) approvedJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.board.ApprovedJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) postJob(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r, services.PermissionPostJob) {
		return
	}

	var req services.PostJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := s.board.PostJob(r.Context(), tokenFromRequest(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Job posted successfully", "job": job})
}

func (s *Server) companyJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.board.CompanyJobs(r.Context(), tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) job(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	job, err := s.board.Job(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r, services.PermissionApply) {
		return
	}

	var req services.ApplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	application, err := s.board.Apply(r.Context(), tokenFromRequest(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Application submitted successfully",
		"application": application,
	})
}

func (s *Server) myApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := s.board.MyApplications(r.Context(), tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applications)
}

func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r, services.PermissionManageApplications) {
		return
	}

	id, ok := pathID(w, r, "Application not found")
	if !ok {
		return
	}

	var req services.StatusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	application, err := s.board.UpdateApplicationStatus(r.Context(), tokenFromRequest(r), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Application status updated", "application": application})
}

func (s *Server) unverifiedCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.board.UnverifiedCompanies(r.Context(), tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) verifyCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Company not found")
	if !ok {
		return
	}

	company, err := s.board.VerifyCompany(r.Context(), tokenFromRequest(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Company verified", "company": company})
}

func (s *Server) pendingJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.board.PendingJobs(r.Context(), tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) reviewJob(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r, services.PermissionModerate) {
		return
	}

	id, ok := pathID(w, r, "Job not found")
	if !ok {
		return
	}

	if _, err := s.board.Job(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	var req services.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := s.board.ReviewJob(r.Context(), tokenFromRequest(r), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Job status updated", "job": job})
}

func (s *Server) allApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := s.board.AllApplications(r.Context(), tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applications)
}

func (s *Server) backup(w http.ResponseWriter, r *http.Request) {
	files, err := s.board.Backup(r.Context(), tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Backup created", "files": files})
}
