package oauth

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"betengine/internal/session"
)

// Service drives the per-provider exchange flows end to end. A callback
// moves through state validation, token exchange and identity fetch; a
// rejection at any gate is terminal.
type Service struct {
	google   *GoogleVerifier
	facebook *FacebookProvider
	// facebookRedirectURL overrides the computed same-origin callback URL.
	// Must exactly match the value registered with the provider.
	facebookRedirectURL string
	logger              *slog.Logger
	tracer              trace.Tracer
}

type ServiceOption func(*Service)

func WithFacebookRedirectURL(u string) ServiceOption {
	return func(s *Service) { s.facebookRedirectURL = u }
}

func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func NewService(google *GoogleVerifier, facebook *FacebookProvider, opts ...ServiceOption) *Service {
	s := &Service{
		google:   google,
		facebook: facebook,
		logger:   slog.Default(),
		tracer:   otel.Tracer("betengine/oauth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GoogleLogin verifies a posted Google credential and returns the
// normalized identity. Google's flow answers the calling page synchronously;
// no redirect round trip is involved.
func (s *Service) GoogleLogin(ctx context.Context, credential string) (session.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.google.verify")
	defer span.End()

	id, err := s.google.VerifyCredential(ctx, credential)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return session.Identity{}, err
	}
	span.SetAttributes(attribute.String("oauth.provider", "google"))
	return id.Normalize(), nil
}

// FacebookBegin issues the provider redirect: generates the anti-CSRF state,
// captures returnTo in the transaction cookies, and sends the browser to the
// consent dialog.
func (s *Service) FacebookBegin(w http.ResponseWriter, r *http.Request) error {
	state, err := NewState()
	if err != nil {
		return err
	}
	returnTo := SanitizeReturnTo(r.URL.Query().Get("return_to"))

	authURL, err := s.facebook.AuthorizationURL(s.facebookCallbackURL(r), state)
	if err != nil {
		return err
	}

	BeginTransaction(w, r, "facebook", state, returnTo)
	http.Redirect(w, r, authURL, http.StatusFound)
	return nil
}

// FacebookCallback runs the callback side of the exchange. The transaction
// cookies are consumed before any validation so they are single-use whatever
// the outcome.
func (s *Service) FacebookCallback(w http.ResponseWriter, r *http.Request) (session.Identity, string, error) {
	ctx, span := s.tracer.Start(r.Context(), "oauth.facebook.callback")
	defer span.End()

	cookieState, returnTo := ConsumeTransaction(w, r, "facebook")
	callbackState := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	if !ValidateState(cookieState, callbackState) {
		err := Reject(CodeStateInvalid, nil)
		span.SetStatus(codes.Error, err.Error())
		return session.Identity{}, returnTo, err
	}

	token, err := s.facebook.ExchangeCode(ctx, code, s.facebookCallbackURL(r))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return session.Identity{}, returnTo, err
	}

	id, err := s.facebook.FetchProfile(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return session.Identity{}, returnTo, err
	}

	span.SetAttributes(attribute.String("oauth.provider", "facebook"))
	return id.Normalize(), returnTo, nil
}

// facebookCallbackURL prefers the configured redirect URL; a mismatch with
// the provider registration is a common deployment failure, so deployments
// pin it via environment. Otherwise a same-origin URL is computed.
func (s *Service) facebookCallbackURL(r *http.Request) string {
	if s.facebookRedirectURL != "" {
		return s.facebookRedirectURL
	}
	scheme := "http"
	if session.IsHTTPS(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/auth/facebook/callback"
}
