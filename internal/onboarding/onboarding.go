// Package onboarding serves the web flow through which a user shares their
// primary calendar with the meetwise service account.
//
// The user signs in with Google granting only the calendar.acls scope; the
// callback inserts a writer ACL rule for the service account and discards the
// user's token.
package onboarding

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/teemow/meetwise/internal/calendar"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/logging"
)

const (
	stateCookie = "meetwise_oauth_state"
	stateTTL    = 10 * time.Minute

	// CallbackPath is where Google redirects after consent.
	CallbackPath = "/oauth2callback"

	// SharedRole is the ACL role granted to the service account.
	SharedRole = "writer"
)

// Options configures a Handler.
type Options struct {
	OAuth               *oauth2.Config
	ServiceAccountEmail string
	Metrics             *instrumentation.Metrics
	Logger              *slog.Logger

	// SecureCookies marks the state cookie Secure. Enable behind HTTPS.
	SecureCookies bool

	// NewCalendar builds a client acting as the consenting user. Defaults to
	// calendar.NewClientForToken.
	NewCalendar func(ctx context.Context, token *oauth2.Token) (*calendar.Client, error)
}

// Handler serves the onboarding pages.
type Handler struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and creates a Handler.
func New(opts Options) (*Handler, error) {
	if opts.OAuth == nil {
		return nil, errors.New("oauth client config is required")
	}
	if opts.ServiceAccountEmail == "" {
		return nil, errors.New("service account email is required")
	}
	if opts.NewCalendar == nil {
		conf := opts.OAuth
		opts.NewCalendar = func(ctx context.Context, token *oauth2.Token) (*calendar.Client, error) {
			return calendar.NewClientForToken(ctx, conf, token, calendar.WithMetrics(opts.Metrics))
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{opts: opts, logger: logging.WithOperation(logger, "onboarding")}, nil
}

// Router returns the onboarding routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", h.landing)
	r.Get("/authorize", h.authorize)
	r.Get(CallbackPath, h.callback)
	return r
}

func (h *Handler) landing(w http.ResponseWriter, _ *http.Request) {
	render(w, http.StatusOK, landingPage, nil)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		h.logger.Error("failed to generate state", logging.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.opts.OAuth.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	// The state cookie is single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if e := q.Get("error"); e != "" {
		h.fail(ctx, w, http.StatusBadRequest, fmt.Errorf("authorization denied: %s", e))
		return
	}

	cookie, err := r.Cookie(stateCookie)
	state := q.Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		h.fail(ctx, w, http.StatusBadRequest, errors.New("invalid or expired authorization state"))
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(ctx, w, http.StatusBadRequest, errors.New("missing authorization code"))
		return
	}

	token, err := h.opts.OAuth.Exchange(ctx, code)
	if err != nil {
		h.fail(ctx, w, http.StatusBadGateway, fmt.Errorf("token exchange failed: %w", err))
		return
	}

	client, err := h.opts.NewCalendar(ctx, token)
	if err != nil {
		h.fail(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if err := client.ShareCalendar(ctx, "primary", h.opts.ServiceAccountEmail, SharedRole); err != nil {
		h.fail(ctx, w, http.StatusBadGateway, err)
		return
	}

	h.opts.Metrics.RecordOnboarding(ctx, instrumentation.OnboardingCompleted)
	h.logger.Info("calendar shared with service account", logging.Status(logging.StatusSuccess))
	render(w, http.StatusOK, successPage, nil)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, status int, err error) {
	h.opts.Metrics.RecordOnboarding(ctx, instrumentation.OnboardingFailed)
	h.logger.Warn("onboarding failed", logging.Status(logging.StatusError), logging.Err(err))
	render(w, status, errorPage, err.Error())
}

func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func render(w http.ResponseWriter, status int, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = t.Execute(w, data)
}

var (
	landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html><head><title>Authorize Calendar Access</title></head>
<body><h1>Grant Calendar Access</h1>
<p>Click the button below to allow meetwise to manage your calendar.</p>
<p><a href="/authorize">Authorize with Google</a></p>
</body></html>
`))

	successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html><head><title>Success</title></head>
<body><h1>Authorization Successful</h1>
<p>Your calendar has been shared. You can close this window and retry your request.</p>
</body></html>
`))

	errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><title>Authorization Failed</title></head>
<body><h1>Authorization Failed</h1>
<p>{{.}}</p>
<p><a href="/authorize">Try again</a></p>
</body></html>
`))
)
