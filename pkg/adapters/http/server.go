// Package http serves flows over HTTP: browsers are redirected from step
// to step, render each step as a form and post it back.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/action"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/observability"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
	"github.com/aretw0/stepflow/pkg/session"
)

// Server exposes a session manager over HTTP.
type Server struct {
	manager  *session.Manager
	logger   *slog.Logger
	metrics  *observability.Metrics
	formCfg  action.HTMLFormConfig
	basePath string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics enables Prometheus collectors and the /metrics endpoint.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithFormConfig customizes the markup of rendered step forms.
func WithFormConfig(cfg action.HTMLFormConfig) Option {
	return func(s *Server) { s.formCfg = cfg }
}

// NewServer creates a server backed by the manager.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager:  manager,
		logger:   logging.NewNop(),
		formCfg:  action.DefaultHTMLFormConfig(),
		basePath: "/sessions",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route(s.basePath, func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Get("/done", s.getDone)
			r.Route("/steps/{stepName}", func(r chi.Router) {
				r.Get("/", s.getStep)
				r.Post("/", s.postStep)
			})
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// redirectFromAdvance turns an advance result into the next hop for the
// client: 303 to the paused step's form while the flow runs, 303 to the
// done page once complete. nextStep names the step the session paused on.
func (s *Server) redirectFromAdvance(w http.ResponseWriter, r *http.Request, sessionID, nextStep string, result stepflow.AdvanceResult) {
	outcome := "complete"
	defer func() {
		if s.metrics != nil {
			s.metrics.Advances.WithLabelValues(outcome).Inc()
		}
	}()

	if _, val, started := result.IsStartWith(); started {
		outcome = "start_with"
		target := fmt.Sprintf("%s/%s/steps/%s", s.basePath, sessionID, url.PathEscape(nextStep))
		w.Header().Set("Stepflow-Start-With", val.String())
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	if result.IsCannotFulfill() {
		outcome = "cannot_fulfill"
		s.writeError(w, http.StatusConflict, "no action can fulfill the current step")
		return
	}
	if s.metrics != nil {
		s.metrics.SessionsCompleted.Inc()
	}
	http.Redirect(w, r, fmt.Sprintf("%s/%s/done", s.basePath, sessionID), http.StatusSeeOther)
}

// createSession starts a new session and advances it to its first pause.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sessionID, err := s.manager.Create(r.Context())
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}

	var result stepflow.AdvanceResult
	var nextStep string
	err = s.manager.WithSession(r.Context(), sessionID, func(sess *stepflow.Session) error {
		var err error
		result, err = sess.Advance(nil)
		if err == nil {
			nextStep = currentStepName(sess)
		}
		return err
	})
	if s.metrics != nil {
		s.metrics.AdvanceDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Error("failed to advance new session", "session", sessionID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to advance session")
		return
	}

	s.logger.Info("session started", "session", sessionID)
	s.redirectFromAdvance(w, r, sessionID, nextStep, result)
}

type sessionStatus struct {
	SessionID   string            `json:"session_id"`
	CurrentStep string            `json:"current_step,omitempty"`
	Done        bool              `json:"done"`
	Values      map[string]string `json:"values"`
}

// getSession reports where the session is and what it has collected.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var status sessionStatus
	err := s.manager.WithSession(r.Context(), sessionID, func(sess *stepflow.Session) error {
		status = s.statusOf(sess)
		return nil
	})
	if err != nil {
		s.respondLookupError(w, sessionID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) statusOf(sess *stepflow.Session) sessionStatus {
	status := sessionStatus{
		SessionID: sess.ID(),
		Values:    make(map[string]string),
	}
	sess.StateData().Each(func(id schema.VarID, vv schema.ValidVal) {
		name, ok := sess.Vars().NameFromID(id)
		if !ok {
			name = id.String()
		}
		status.Values[name] = vv.Value().String()
	})
	if name := currentStepName(sess); name != "" {
		status.CurrentStep = name
	} else {
		status.Done = true
	}
	return status
}

// getDone dumps the collected state once the flow is over.
func (s *Server) getDone(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var status sessionStatus
	err := s.manager.WithSession(r.Context(), sessionID, func(sess *stepflow.Session) error {
		status = s.statusOf(sess)
		return nil
	})
	if err != nil {
		s.respondLookupError(w, sessionID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status.Values)
}

// getStep renders the step as an HTML form posting back to itself.
func (s *Server) getStep(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	stepName := chi.URLParam(r, "stepName")

	var html string
	err := s.manager.WithSession(r.Context(), sessionID, func(sess *stepflow.Session) error {
		stepID, ok := sess.Steps().IDFromName(stepName)
		if !ok {
			return fmt.Errorf("unknown step %q", stepName)
		}
		step, _ := sess.Steps().Get(stepID)

		form := action.NewHTMLFormAction(0, s.formCfg)
		allowed := step.OutputVars()
		result, err := form.Start(step, stepName,
			schema.NewFilteredData(sess.StateData(), allowed),
			registry.NewFiltered(sess.Vars(), allowed))
		if err != nil {
			return err
		}
		val, _ := result.IsStartWith()
		html = fmt.Sprintf("<form method='post' action='%s/%s/steps/%s'>%s<button type='submit'>Continue</button></form>",
			s.basePath, sessionID, stepName, val.String())
		return nil
	})
	if err != nil {
		s.respondLookupError(w, sessionID, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// postStep parses the submitted form, validates every field through its
// variable and advances the session. Invalid fields come back as a 422
// with one error per field.
func (s *Server) postStep(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	stepName := chi.URLParam(r, "stepName")
	start := time.Now()

	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	var result stepflow.AdvanceResult
	var nextStep string
	fieldErrors := make(map[string]string)
	err := s.manager.WithSession(r.Context(), sessionID, func(sess *stepflow.Session) error {
		stepID, ok := sess.Steps().IDFromName(stepName)
		if !ok {
			return fmt.Errorf("unknown step %q", stepName)
		}

		var pairs []schema.VarValue
		for field, vals := range r.PostForm {
			v, ok := sess.Vars().GetByName(field)
			if !ok || len(vals) == 0 {
				continue
			}
			val, err := v.ValueFromString(vals[0])
			if err != nil {
				fieldErrors[field] = err.Error()
				continue
			}
			pairs = append(pairs, schema.VarValue{Var: v, Value: val})
		}

		data, err := schema.FromValues(pairs)
		if err != nil {
			var fields schema.FieldErrors
			if errors.As(err, &fields) {
				for id, ferr := range fields {
					name, ok := sess.Vars().NameFromID(id)
					if !ok {
						name = id.String()
					}
					fieldErrors[name] = ferr.Error()
				}
				return nil
			}
			return err
		}
		if len(fieldErrors) > 0 {
			return nil
		}

		result, err = sess.Advance(&stepflow.StepOutput{Step: stepID, Data: data})
		if err == nil {
			nextStep = currentStepName(sess)
		}
		return err
	})
	if s.metrics != nil {
		s.metrics.AdvanceDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		var unexpected *stepflow.UnexpectedStepError
		if errors.As(err, &unexpected) {
			s.writeError(w, http.StatusConflict, "step is no longer current")
			return
		}
		var missing *domain.MissingVarError
		if errors.As(err, &missing) {
			// incomplete submission and no action to fall back on
			s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": missing.Error()})
			return
		}
		s.respondLookupError(w, sessionID, err)
		return
	}

	if len(fieldErrors) > 0 {
		if s.metrics != nil {
			s.metrics.ValidationErrors.WithLabelValues(stepName).Add(float64(len(fieldErrors)))
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"field_errors": fieldErrors})
		return
	}

	s.redirectFromAdvance(w, r, sessionID, nextStep, result)
}

// currentStepName resolves the session's paused step to its registered name,
// falling back to the numeric id for anonymous steps.
func currentStepName(sess *stepflow.Session) string {
	cur, ok := sess.CurrentStep()
	if !ok {
		return ""
	}
	if name, named := sess.Steps().NameFromID(cur); named {
		return name
	}
	return cur.String()
}

func (s *Server) respondLookupError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Error("request failed", "session", sessionID, "error", err)
	s.writeError(w, http.StatusInternalServerError, err.Error())
}
