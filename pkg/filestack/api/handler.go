// Package api exposes URL building and policy signing over HTTP, so browsers and
// other services can obtain signed Filestack URLs without holding the secret.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/filestack-go/pkg/filestack"
	"github.com/tendant/filestack-go/pkg/filestack/config"
	"github.com/tendant/filestack-go/pkg/filestack/security"
	"github.com/tendant/filestack-go/pkg/filestack/transform"
)

// Handler serves the URL, policy and task endpoints.
type Handler struct {
	cfg     *config.Config
	builder *filestack.URLBuilder
	logger  *slog.Logger
}

// NewHandler creates a handler for cfg. A nil logger uses slog.Default().
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:     cfg,
		builder: cfg.URLBuilder(),
		logger:  logger,
	}
}

// Routes returns the router for all endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware(h.logger))

	r.Get("/urls/{action}", h.CreateURL)
	r.Post("/policies", h.CreatePolicy)
	r.Post("/tasks", h.BuildTasks)
	return r
}

// URLResponse is returned by CreateURL
type URLResponse struct {
	Action string `json:"action"`
	URL    string `json:"url"`
	Signed bool   `json:"signed"`
}

// PolicyRequest describes the policy to sign
type PolicyRequest struct {
	Calls     []string `json:"calls,omitempty"`
	Handle    string   `json:"handle,omitempty"`
	Path      string   `json:"path,omitempty"`
	Container string   `json:"container,omitempty"`
	MaxSize   int64    `json:"max_size,omitempty"`
	ExpiresIn int64    `json:"expires_in,omitempty"` // seconds; 0 uses the configured expiry
}

// PolicyResponse carries an encoded policy and its signature
type PolicyResponse struct {
	Policy    string    `json:"policy"`
	Signature string    `json:"signature"`
	Expiry    time.Time `json:"expiry"`
}

// TaskAttr is one transformation attribute
type TaskAttr struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// TaskSpec is one transformation task
type TaskSpec struct {
	Name  string     `json:"name"`
	Attrs []TaskAttr `json:"attrs,omitempty"`
}

// TasksRequest lists tasks in the order they are applied
type TasksRequest struct {
	Tasks []TaskSpec `json:"tasks"`
}

// TasksResponse is returned by BuildTasks
type TasksResponse struct {
	TasksStr string `json:"tasks_str"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorBody
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// CreateURL builds a URL for the action in the path. Query parameters become
// options in request order; signed=true signs the URL with a policy scoped to the
// action (and handle, if given).
func (h *Handler) CreateURL(w http.ResponseWriter, r *http.Request) {
	action, err := filestack.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, "unknown_action", err.Error())
		return
	}

	opts, signed, err := queryOptions(r.URL.RawQuery)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	var signer filestack.Signer
	if signed {
		if !h.cfg.SigningEnabled() {
			h.writeError(w, r, http.StatusConflict, "signing_disabled", "no secret configured")
			return
		}
		sec, err := h.cfg.Security(security.CallsFor(action), opts.Normalize().Get(filestack.OptHandle))
		if err != nil {
			slog.Error("Failed to create policy", "err", err)
			h.writeError(w, r, http.StatusInternalServerError, "policy_failed", err.Error())
			return
		}
		signer = sec
	}

	u, err := h.builder.CreateURL(action, h.cfg.APIKey, opts, signer)
	if err != nil {
		if errors.Is(err, filestack.ErrMissingOption) {
			h.writeError(w, r, http.StatusBadRequest, "missing_option", err.Error())
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, "create_url_failed", err.Error())
		return
	}

	render.JSON(w, r, URLResponse{Action: action.String(), URL: u, Signed: signer != nil})
}

// CreatePolicy signs the requested policy
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.SigningEnabled() {
		h.writeError(w, r, http.StatusConflict, "signing_disabled", "no secret configured")
		return
	}

	var req PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.ExpiresIn < 0 {
		h.writeError(w, r, http.StatusBadRequest, "invalid_expiry", "expires_in must not be negative")
		return
	}

	expiresIn := h.cfg.PolicyExpiry
	if req.ExpiresIn > 0 {
		expiresIn = time.Duration(req.ExpiresIn) * time.Second
	}

	opts := []security.Option{security.WithExpiresIn(expiresIn)}
	if len(req.Calls) > 0 {
		opts = append(opts, security.WithCalls(req.Calls...))
	}
	if req.Handle != "" {
		opts = append(opts, security.WithHandle(req.Handle))
	}
	if req.Path != "" {
		opts = append(opts, security.WithPath(req.Path))
	}
	if req.Container != "" {
		opts = append(opts, security.WithContainer(req.Container))
	}
	if req.MaxSize > 0 {
		opts = append(opts, security.WithMaxSize(req.MaxSize))
	}

	sec, err := security.New(h.cfg.Secret, opts...)
	if err != nil {
		slog.Error("Failed to create policy", "err", err)
		h.writeError(w, r, http.StatusInternalServerError, "policy_failed", err.Error())
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, PolicyResponse{
		Policy:    sec.Policy(),
		Signature: sec.Signature(),
		Expiry:    sec.Decoded().ExpiresAt().UTC(),
	})
}

// BuildTasks validates tasks and returns the task string for a transform URL
func (h *Handler) BuildTasks(w http.ResponseWriter, r *http.Request) {
	var req TasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	tasks := make([]transform.Task, 0, len(req.Tasks))
	for _, spec := range req.Tasks {
		task := transform.NewTask(spec.Name)
		for _, a := range spec.Attrs {
			task = task.With(a.Key, a.Value)
		}
		tasks = append(tasks, task)
	}

	s, err := transform.Build(tasks...)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_tasks", err.Error())
		return
	}

	render.JSON(w, r, TasksResponse{TasksStr: s})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

// queryOptions decodes a raw query string into options, keeping the order the
// parameters were sent in. The "signed" parameter is consumed, not returned.
func queryOptions(rawQuery string) (filestack.Options, bool, error) {
	var (
		opts   filestack.Options
		signed bool
	)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, false, err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, false, err
		}

		if strings.EqualFold(key, "signed") {
			signed, err = strconv.ParseBool(value)
			if err != nil {
				return nil, false, err
			}
			continue
		}
		opts = append(opts, filestack.Option{Key: key, Value: value})
	}
	return opts, signed, nil
}
