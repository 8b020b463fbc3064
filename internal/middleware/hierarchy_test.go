package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/internal/hierarchy"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDirectory struct {
	roles map[uuid.UUID]string               // roleID -> name
	users map[uuid.UUID]struct{ roleID uuid.UUID; roleName string }
	orgID uuid.UUID
	fail  bool
}

func (f *fakeDirectory) RoleNameByID(_ context.Context, orgID, roleID uuid.UUID) (string, error) {
	if f.fail {
		return "", errors.New("connection refused")
	}
	if orgID != f.orgID {
		return "", gorm.ErrRecordNotFound
	}
	name, ok := f.roles[roleID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return name, nil
}

func (f *fakeDirectory) UserRole(_ context.Context, orgID, userID uuid.UUID) (uuid.UUID, string, error) {
	if f.fail {
		return uuid.Nil, "", errors.New("connection refused")
	}
	if orgID != f.orgID {
		return uuid.Nil, "", gorm.ErrRecordNotFound
	}
	u, ok := f.users[userID]
	if !ok {
		return uuid.Nil, "", gorm.ErrRecordNotFound
	}
	return u.roleID, u.roleName, nil
}

type hierarchyFixture struct {
	dir          *fakeDirectory
	orgID        uuid.UUID
	teamerRoleID uuid.UUID
	adminRoleID  uuid.UUID
	orgAdminID   uuid.UUID // user holding org_admin
	teamerUserID uuid.UUID // user holding teamer
}

func newFixture() *hierarchyFixture {
	orgID := uuid.New()
	teamerRoleID := uuid.New()
	adminRoleID := uuid.New()
	orgAdminRoleID := uuid.New()
	orgAdminID := uuid.New()
	teamerUserID := uuid.New()

	dir := &fakeDirectory{
		orgID: orgID,
		roles: map[uuid.UUID]string{
			teamerRoleID:   hierarchy.RoleTeamer,
			adminRoleID:    hierarchy.RoleAdmin,
			orgAdminRoleID: hierarchy.RoleOrgAdmin,
		},
		users: map[uuid.UUID]struct{ roleID uuid.UUID; roleName string }{
			orgAdminID:   {orgAdminRoleID, hierarchy.RoleOrgAdmin},
			teamerUserID: {teamerRoleID, hierarchy.RoleTeamer},
		},
	}
	return &hierarchyFixture{
		dir:          dir,
		orgID:        orgID,
		teamerRoleID: teamerRoleID,
		adminRoleID:  adminRoleID,
		orgAdminID:   orgAdminID,
		teamerUserID: teamerUserID,
	}
}

// newRouter wires the gate behind a stub identity middleware.
func newRouter(dir RoleDirectory, actorRole string, orgID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := func(c *gin.Context) {
		c.Set(CtxUserRole, actorRole)
		c.Set(CtxOrgID, orgID.String())
		c.Next()
	}
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "ok"}))
	}
	r.POST("/users", identity, UserHierarchy(dir, HierarchyCreate), ok)
	r.GET("/users", identity, UserHierarchy(dir, HierarchyView), ok)
	r.GET("/users/:id", identity, UserHierarchy(dir, HierarchyView), ok)
	r.PUT("/users/:id", identity, UserHierarchy(dir, HierarchyUpdate), ok)
	r.DELETE("/users/:id", identity, UserHierarchy(dir, HierarchyDelete), ok)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != "" {
		buf.WriteString(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserHierarchy_AdminCannotDeleteOrgAdmin(t *testing.T) {
	fx := newFixture()
	r := newRouter(fx.dir, hierarchy.RoleAdmin, fx.orgID)

	rec := doJSON(t, r, http.MethodDelete, "/users/"+fx.orgAdminID.String(), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "org_admin")
}

func TestUserHierarchy_TeamerCannotCreateTeamer(t *testing.T) {
	fx := newFixture()
	r := newRouter(fx.dir, hierarchy.RoleTeamer, fx.orgID)

	rec := doJSON(t, r, http.MethodPost, "/users", `{"role_id":"`+fx.teamerRoleID.String()+`"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "teamer")
}

func TestUserHierarchy_OrgAdminPromotesTeamerToAdmin(t *testing.T) {
	fx := newFixture()
	r := newRouter(fx.dir, hierarchy.RoleOrgAdmin, fx.orgID)

	rec := doJSON(t, r, http.MethodPut, "/users/"+fx.teamerUserID.String(),
		`{"role_id":"`+fx.adminRoleID.String()+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserHierarchy_AdminCannotPromoteTeamerToAdmin(t *testing.T) {
	fx := newFixture()
	r := newRouter(fx.dir, hierarchy.RoleAdmin, fx.orgID)

	// Admin may edit the teamer, but not move them onto the admin role.
	rec := doJSON(t, r, http.MethodPut, "/users/"+fx.teamerUserID.String(),
		`{"display_name":"New Name","role_id":"`+fx.adminRoleID.String()+`"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin")
}

func TestUserHierarchy_UpdateWithSameRolePasses(t *testing.T) {
	fx := newFixture()
	r := newRouter(fx.dir, hierarchy.RoleAdmin, fx.orgID)

	rec := doJSON(t, r, http.MethodPut, "/users/"+fx.teamerUserID.String(),
		`{"display_name":"New Name","role_id":"`+fx.teamerRoleID.String()+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserHierarchy_CrossOrganizationTargetIs404(t *testing.T) {
	fx := newFixture()
	// Actor's token names a different organization than the fake's rows.
	r := newRouter(fx.dir, hierarchy.RoleOrgAdmin, uuid.New())

	rec := doJSON(t, r, http.MethodPut, "/users/"+fx.teamerUserID.String(), `{"display_name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHierarchy_UnknownRoleIDOnCreateIs404(t *testing.T) {
	fx := newFixture()
	r := newRouter(fx.dir, hierarchy.RoleOrgAdmin, fx.orgID)

	rec := doJSON(t, r, http.MethodPost, "/users", `{"role_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHierarchy_ListWithoutIDPassesThrough(t *testing.T) {
	fx := newFixture()
	r := newRouter(fx.dir, hierarchy.RoleKonfi, fx.orgID)

	rec := doJSON(t, r, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserHierarchy_StorageErrorIs500(t *testing.T) {
	fx := newFixture()
	fx.dir.fail = true
	r := newRouter(fx.dir, hierarchy.RoleOrgAdmin, fx.orgID)

	rec := doJSON(t, r, http.MethodDelete, "/users/"+fx.teamerUserID.String(), "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Database error")
}

func TestUserHierarchy_BodyStillReadableByHandler(t *testing.T) {
	fx := newFixture()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := func(c *gin.Context) {
		c.Set(CtxUserRole, hierarchy.RoleOrgAdmin)
		c.Set(CtxOrgID, fx.orgID.String())
		c.Next()
	}
	r.POST("/users", identity, UserHierarchy(fx.dir, HierarchyCreate), func(c *gin.Context) {
		var body struct {
			RoleID   string `json:"role_id" binding:"required"`
			Username string `json:"username" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, body))
	})

	rec := doJSON(t, r, http.MethodPost, "/users",
		`{"role_id":"`+fx.teamerRoleID.String()+`","username":"lena"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lena")
}
