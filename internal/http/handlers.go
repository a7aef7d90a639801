package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"greefin/internal/core"
	"greefin/internal/eco"
	"greefin/internal/log"
	"greefin/internal/services"
)

// profileResponse is the stored profile as served to clients.
type profileResponse struct {
	UserID      string             `json:"userId"`
	Score       int                `json:"score"`
	Persona     eco.Persona        `json:"persona"`
	Description string             `json:"description"`
	XP          int                `json:"xp"`
	Badges      []eco.Badge        `json:"badges"`
	Tips        []string           `json:"tips"`
	Survey      eco.SurveyResponse `json:"survey"`
	Version     int64              `json:"version"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func newProfileResponse(rec core.ProfileRecord) profileResponse {
	badges := rec.Profile.Badges
	if badges == nil {
		badges = []eco.Badge{}
	}
	tips := rec.Tips
	if tips == nil {
		tips = []string{}
	}
	return profileResponse{
		UserID:      rec.UserID,
		Score:       rec.Profile.Score,
		Persona:     rec.Profile.Persona,
		Description: rec.Profile.Persona.Description(),
		XP:          rec.Profile.XP,
		Badges:      badges,
		Tips:        tips,
		Survey:      rec.Survey,
		Version:     rec.Version,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type submissionResponse struct {
	ID          int64              `json:"id"`
	Score       int                `json:"score"`
	Persona     eco.Persona        `json:"persona"`
	Survey      eco.SurveyResponse `json:"survey"`
	SubmittedAt time.Time          `json:"submittedAt"`
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]any{
		"profile_cache": map[string]any{"entries": s.profileCache.Size()},
		"rate_limiter":  map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
	}

	if s.ready == nil {
		checks["store"] = "ok"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleCalculate scores a survey without storing it.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	survey, ok := s.parseSurvey(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(s.service.Preview(survey)).Write(w)
}

func (s *Server) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	userID := r.PathValue("userID")
	if err := core.ValidateUserID(userID); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	survey, ok := s.parseSurvey(w, r)
	if !ok {
		return
	}

	rec, err := s.service.Submit(r.Context(), userID, survey)
	if err != nil {
		s.writeServiceError(w, r, err, log.OpSubmit)
		return
	}
	s.profiles.Invalidate(userID)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/users/"+userID+"/eco-profile").
		Body(newProfileResponse(rec)).
		Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	rec, ok := s.loadProfile(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(newProfileResponse(rec)).Write(w)
}

func (s *Server) handleGetTips(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	rec, ok := s.loadProfile(w, r)
	if !ok {
		return
	}
	tips := rec.Tips
	if tips == nil {
		tips = []string{}
	}
	NewJSONResponse().Body(map[string]any{
		"userId": rec.UserID,
		"score":  rec.Profile.Score,
		"tips":   tips,
	}).Write(w)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	limit, err := parseLimit(r.URL.Query(), services.DefaultHistorySize, services.MaxHistorySize)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	userID := r.PathValue("userID")
	subs, err := s.service.History(r.Context(), userID, limit)
	if err != nil {
		s.writeServiceError(w, r, err, log.OpList)
		return
	}

	out := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, submissionResponse{
			ID:          sub.ID,
			Score:       sub.Score,
			Persona:     sub.Persona,
			Survey:      sub.Survey,
			SubmittedAt: sub.SubmittedAt,
		})
	}
	NewJSONResponse().Body(map[string]any{
		"userId":      userID,
		"submissions": out,
	}).Write(w)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	limit, err := parseLimit(r.URL.Query(), services.DefaultLeaderboardSize, services.MaxLeaderboardSize)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entries, err := s.service.Leaderboard(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Body(map[string]any{"entries": entries}).Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("not found").Write(w)
}

// loadProfile reads the user's profile through the cache. On failure the
// error response has already been written.
func (s *Server) loadProfile(w http.ResponseWriter, r *http.Request) (core.ProfileRecord, bool) {
	userID := r.PathValue("userID")
	if err := core.ValidateUserID(userID); err != nil {
		BadRequestError(err.Error()).Write(w)
		return core.ProfileRecord{}, false
	}
	rec, err := s.profiles.Get(r.Context(), userID, func(ctx context.Context) (core.ProfileRecord, error) {
		return s.service.Get(ctx, userID)
	})
	if err != nil {
		s.writeServiceError(w, r, err, log.OpRead)
		return core.ProfileRecord{}, false
	}
	return rec, true
}

// parseSurvey decodes the request body. On failure the error response has
// already been written.
func (s *Server) parseSurvey(w http.ResponseWriter, r *http.Request) (eco.SurveyResponse, bool) {
	survey, err := NewRequestBodyParser(w, r).ParseSurvey()
	switch {
	case err == nil:
		return survey, true
	case errors.Is(err, ErrBodyTooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
	case errors.Is(err, ErrUnsupportedMediaType):
		ErrorResponse(http.StatusUnsupportedMediaType, err.Error()).Write(w)
	case errors.Is(err, eco.ErrNotObject):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).WarnContext(r.Context(), "Malformed survey body",
			log.FieldOperation, log.OpParse,
			log.FieldError, err,
			"error_type", log.ErrorTypeValidation)
		BadRequestError("malformed survey body").Write(w)
	}
	return eco.SurveyResponse{}, false
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, core.ErrEmptyUserID), errors.Is(err, core.ErrInvalidUserID):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, services.ErrInvalidLimit):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, core.ErrProfileNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, services.ErrHistoryUnavailable):
		NotImplementedError(err.Error()).Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
				log.NewFields().WithUser(r.PathValue("userID")))
		InternalServerError().Write(w)
	}
}
