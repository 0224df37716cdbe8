package auth

import (
	"context"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/config"
	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

// Context keys set by the middleware.
const (
	ContextToken   = "auth_token"
	ContextSubject = "auth_subject"
)

// Settings selects which tokens are accepted.
type Settings struct {
	Enabled  bool
	Issuer   string
	Audience string
}

// Validator validates JWTs using JWKS.
type Validator struct {
	settings Settings
	log      zerolog.Logger
	keyfunc  jwt.Keyfunc
	methods  []string
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	settings := Settings{Enabled: cfg.AuthEnabled, Issuer: cfg.AuthIssuer, Audience: cfg.AuthAudience}
	if !cfg.AuthEnabled {
		return &Validator{settings: settings, log: log}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	}
	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, err
	}
	return NewValidatorWithKeyfunc(settings, jwks.Keyfunc, []string{"RS256", "RS384", "RS512"}, log), nil
}

// NewValidatorWithKeyfunc builds a validator over an explicit key source.
func NewValidatorWithKeyfunc(settings Settings, kf jwt.Keyfunc, methods []string, log zerolog.Logger) *Validator {
	return &Validator{settings: settings, log: log, keyfunc: kf, methods: methods}
}

// Middleware enforces JWT auth when enabled. The raw Authorization header is
// kept on the request so generation runs under the caller's LLM quota.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.settings.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods)}
	if issuer := strings.TrimSpace(v.settings.Issuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(v.settings.Audience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			platformerrors.WriteUnauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.Parse(tokenString, v.keyfunc, opts...)
		if err != nil || !token.Valid {
			v.log.Debug().Err(err).Msg("rejected token")
			platformerrors.WriteUnauthorized(c, "invalid token")
			return
		}

		subject, _ := token.Claims.GetSubject()
		c.Set(ContextToken, token)
		c.Set(ContextSubject, subject)
		c.Next()
	}
}

// Ready indicates if the validator is prepared.
func (v *Validator) Ready() bool {
	if v == nil || !v.settings.Enabled {
		return true
	}
	return v.keyfunc != nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
