package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator"

	"github.com/tradepost/go-mediation/models"
	"github.com/tradepost/go-mediation/services"
)

// Header_ActorId carries the caller's identity. It is set by the authenticating gateway in front of this service and
// is never taken from a request body.
const Header_ActorId = "X-Actor-Id"

const maxBodyBytes = 64 << 10

type RequestEngine interface {
	Transition(ctx context.Context, in services.TransitionInput) models.Outcome
}

type RequestIntake interface {
	Create(ctx context.Context, requesterId string, payload models.RequestPayload) (*models.MediationRequest, error)
}

type RequestViewer interface {
	Get(ctx context.Context, requestId, viewerId string) (*models.RequestDetail, error)
}

type transitionBody struct {
	Action     string `json:"action" validate:"required,max=32"`
	ClaimantId string `json:"claimantId,omitempty" validate:"max=200"`
}

type Server struct {
	engine    RequestEngine
	intake    RequestIntake
	viewer    RequestViewer
	validator *validator.Validate
	logger    models.Logger
}

func NewServer(engine RequestEngine, intake RequestIntake, viewer RequestViewer, logger models.Logger) *Server {
	return &Server{engine, intake, viewer, validator.New(), logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/v1/requests", func(api chi.Router) {
		api.Post("/", s.createRequest)
		api.Get("/{requestId}", s.getRequest)
		api.Post("/{requestId}/transitions", s.transition)
	})
	return r
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	actorId := actorIdentity(r)
	if len(actorId) == 0 {
		writeError(w, http.StatusUnauthorized, ErrCode_NoIdentity, models.OutcomeMsg_NoIdentity)
		return
	}
	var payload models.RequestPayload
	if err := readJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, ErrCode_BadJson, err.Error())
		return
	}
	req, err := s.intake.Create(r.Context(), actorId, payload)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidRequest):
			writeError(w, http.StatusUnprocessableEntity, ErrCode_Invalid, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, ErrCode_Unavailable, models.OutcomeMsg_Timeout)
		default:
			s.logger.Errorf("api: error creating request for %s: %v", actorId, err)
			writeError(w, http.StatusInternalServerError, ErrCode_Internal, models.OutcomeMsg_Unknown)
		}
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	detail, err := s.viewer.Get(r.Context(), chi.URLParam(r, "requestId"), actorIdentity(r))
	if err != nil {
		if errors.Is(err, models.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, ErrCode_NotFound, models.OutcomeMsg_NotFound)
			return
		}
		s.logger.Errorf("api: error loading request %s: %v", chi.URLParam(r, "requestId"), err)
		writeError(w, http.StatusInternalServerError, ErrCode_Internal, models.OutcomeMsg_Unknown)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	actorId := actorIdentity(r)
	if len(actorId) == 0 {
		writeJSON(w, http.StatusUnauthorized, models.Failed(models.ErrorKind_Unauthorized, models.OutcomeMsg_NoIdentity))
		return
	}
	var body transitionBody
	if err := readJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrCode_BadJson, err.Error())
		return
	}
	if err := s.validator.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, ErrCode_Invalid, err.Error())
		return
	}
	outcome := s.engine.Transition(r.Context(), services.TransitionInput{
		RequestId:        chi.URLParam(r, "requestId"),
		Action:           models.Action(body.Action),
		ActorId:          actorId,
		ClaimantOverride: body.ClaimantId,
	})
	writeJSON(w, StatusFor(outcome), outcome)
}

// StatusFor maps a transition outcome onto the HTTP status returned with it.
func StatusFor(outcome models.Outcome) int {
	if outcome.Success {
		return http.StatusOK
	}
	switch outcome.ErrorKind {
	case models.ErrorKind_NotFound:
		return http.StatusNotFound
	case models.ErrorKind_Unauthorized:
		return http.StatusForbidden
	case models.ErrorKind_InvalidTransition:
		return http.StatusUnprocessableEntity
	case models.ErrorKind_Conflict:
		return http.StatusConflict
	case models.ErrorKind_Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func actorIdentity(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header_ActorId))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debugw(
			"api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"actor", actorIdentity(r),
			"duration", time.Since(start),
		)
	})
}
