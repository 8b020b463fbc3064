package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(GetJWTSecret())
	require.NoError(t, err)
	return token
}

func identityClaims(role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":          uuid.NewString(),
		"org_id":       uuid.NewString(),
		"role":         role,
		"type":         "staff",
		"display_name": "Anna Admin",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"iat":          time.Now().Unix(),
	}
}

func authTestRouter(gate gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", gate, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"role":         c.GetString(CtxUserRole),
			"org_id":       c.GetString(CtxOrgID),
			"display_name": c.GetString(CtxDisplayName),
		})
	})
	return r
}

func TestRequireAuth_BearerTokenRoundTrip(t *testing.T) {
	claims := identityClaims("admin")
	router := authTestRouter(RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, claims))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
	assert.Contains(t, w.Body.String(), claims["org_id"].(string))
	assert.Contains(t, w.Body.String(), "Anna Admin")
}

func TestRequireAuth_CookieToken(t *testing.T) {
	router := authTestRouter(RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signedToken(t, identityClaims("teamer"))})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"teamer"`)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	router := authTestRouter(RequireAuth())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	router := authTestRouter(RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	claims := identityClaims("admin")
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	router := authTestRouter(RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, claims))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_WrongSignature(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims("admin")).
		SignedString([]byte("some_other_secret"))
	require.NoError(t, err)

	router := authTestRouter(RequireAuth())
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	router := authTestRouter(RequireRole("org_admin", "admin"))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, identityClaims("admin")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, identityClaims("konfi")))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClearPermissionCache(t *testing.T) {
	permCache.Store("org1/admin", permCacheEntry{codes: []string{"x"}, expiresAt: time.Now().Add(time.Hour)})
	permCache.Store("org2/admin", permCacheEntry{codes: []string{"y"}, expiresAt: time.Now().Add(time.Hour)})

	ClearPermissionCache("org1", "admin")
	_, ok := permCache.Load("org1/admin")
	assert.False(t, ok)
	_, ok = permCache.Load("org2/admin")
	assert.True(t, ok)

	ClearPermissionCache("", "")
	_, ok = permCache.Load("org2/admin")
	assert.False(t, ok)
}
