// file: controllers/admin_controller_test.go
package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prayreps/middleware"
	"prayreps/models"
	"prayreps/services"
)

func newAdminRouter(t *testing.T, queue *services.MockQueueService) *gin.Engine {
	t.Helper()
	cfg := newTestConfig(t)
	maps := services.NewMapService(cfg, emptyAtlas(t))
	ac := NewAdminController(cfg, queue, maps)
	router, _ := setupTestRouter(t)

	router.GET("/admin/login", ac.ShowLoginPage)
	router.POST("/admin/login", ac.PerformLogin)
	router.GET("/admin/logout", ac.Logout)
	admin := router.Group("/admin", middleware.AdminRequired)
	{
		admin.GET("", ac.AdminPage)
		admin.POST("/purge", ac.Purge)
	}
	return router
}

func loginForm(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req, _ := http.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPerformLogin_Success(t *testing.T) {
	queue := new(services.MockQueueService)
	queue.On("QueueSize", mock.Anything).Return(3, nil)
	queue.On("OverallPrayedCount", mock.Anything).Return(0, nil)
	router := newAdminRouter(t, queue)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginForm("admin", "secret"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "login must set a session cookie")

	// the session now opens the admin page
	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPerformLogin_WrongPassword(t *testing.T) {
	router := newAdminRouter(t, new(services.MockQueueService))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginForm("admin", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password")
}

func TestPerformLogin_WrongUsername(t *testing.T) {
	router := newAdminRouter(t, new(services.MockQueueService))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginForm("root", "secret"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequired_RedirectsAnonymous(t *testing.T) {
	router := newAdminRouter(t, new(services.MockQueueService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
}

func TestPurge_ReloadsAllCountries(t *testing.T) {
	queue := new(services.MockQueueService)
	queue.On("QueueSize", mock.Anything).Return(3, nil)
	queue.On("OverallPrayedCount", mock.Anything).Return(0, nil)
	queue.On("PurgeAndReload", mock.Anything, []string{"testland"}).Return(3, nil)
	queue.On("NextInQueue", mock.Anything, "testland").
		Return(&models.Representative{ID: 1, PersonName: "Alice", CountryCode: "testland"}, nil)
	router := newAdminRouter(t, queue)

	// log in first
	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginForm("admin", "secret"))
	require.Equal(t, http.StatusFound, w.Code)
	cookies := w.Result().Cookies()

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/admin/purge", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	queue.AssertCalled(t, "PurgeAndReload", mock.Anything, []string{"testland"})
}

func TestLogout_ClearsSession(t *testing.T) {
	queue := new(services.MockQueueService)
	queue.On("QueueSize", mock.Anything).Return(3, nil)
	queue.On("OverallPrayedCount", mock.Anything).Return(0, nil)
	router := newAdminRouter(t, queue)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginForm("admin", "secret"))
	cookies := w.Result().Cookies()

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	loggedOut := w.Result().Cookies()

	// the cleared session no longer opens the admin page
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range loggedOut {
		req.AddCookie(c)
	}
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
}
