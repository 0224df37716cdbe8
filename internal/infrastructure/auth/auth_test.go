package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func router(v *Validator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", v.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSubject))
	})
	return r
}

func TestMiddleware(t *testing.T) {
	v := NewValidatorWithKeyfunc(
		Settings{Enabled: true, Issuer: "https://auth.jan.ai", Audience: "deck-api"},
		func(*jwt.Token) (any, error) { return secret, nil },
		[]string{"HS256"},
		zerolog.Nop(),
	)
	r := router(v)
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"valid", "Bearer " + sign(t, jwt.MapClaims{"sub": "user-1", "iss": "https://auth.jan.ai", "aud": "deck-api", "exp": exp}), http.StatusOK, "user-1"},
		{"wrong audience", "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "iss": "https://auth.jan.ai", "aud": "other", "exp": exp}), http.StatusUnauthorized, ""},
		{"wrong issuer", "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "iss": "https://evil", "aud": "deck-api", "exp": exp}), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "iss": "https://auth.jan.ai", "aud": "deck-api", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	v := NewValidatorWithKeyfunc(Settings{}, nil, nil, zerolog.Nop())
	w := httptest.NewRecorder()
	router(v).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, v.Ready())
}
