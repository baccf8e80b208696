// file: controllers/prayer_controller_test.go
package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"prayreps/live"
	"prayreps/models"
	"prayreps/services"
	"prayreps/store"
)

func newPrayerController(t *testing.T, queue *services.MockQueueService) (*PrayerController, *gin.Engine) {
	t.Helper()
	cfg := newTestConfig(t)
	maps := services.NewMapService(cfg, emptyAtlas(t))
	router, tmpl := setupTestRouter(t)
	pc := NewPrayerController(cfg, queue, maps, services.NewMetrics(false), live.NewHub(), tmpl)
	return pc, router
}

func htmxPost(path string) *http.Request {
	req, _ := http.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("HX-Request", "true")
	return req
}

func TestProcessItem_HTMXSwapsCurrentItemAndOOBPartials(t *testing.T) {
	queue := new(services.MockQueueService)
	prayed := &models.Representative{ID: 1, PersonName: "Alice", CountryCode: "testland", Status: models.StatusPrayed}
	next := &models.Representative{ID: 2, PersonName: "Bob", CountryCode: "testland", Status: models.StatusQueued}
	queue.On("MarkPrayed", mock.Anything, int64(1)).Return(prayed, nil)
	queue.On("NextOverall", mock.Anything).Return(next, nil)
	queue.On("Prayed", mock.Anything, "testland").Return([]models.Representative{*prayed}, nil)
	queue.On("Remaining", mock.Anything).Return(2, nil)
	queue.On("QueueSize", mock.Anything).Return(2, nil)
	queue.On("OverallPrayedCount", mock.Anything).Return(1, nil)

	pc, router := newPrayerController(t, queue)
	router.POST("/pray/:id", pc.ProcessItem)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, htmxPost("/pray/1"))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Bob", "response should show the next representative")
	assert.Contains(t, body, `id="map-image-container" hx-swap-oob="true"`)
	assert.Contains(t, body, `id="stats-summary-container" hx-swap-oob="true"`)
	queue.AssertExpectations(t)
}

func TestProcessItem_FormPostRedirectsHome(t *testing.T) {
	queue := new(services.MockQueueService)
	prayed := &models.Representative{ID: 1, PersonName: "Alice", CountryCode: "testland", Status: models.StatusPrayed}
	queue.On("MarkPrayed", mock.Anything, int64(1)).Return(prayed, nil)
	queue.On("NextOverall", mock.Anything).Return((*models.Representative)(nil), nil)
	queue.On("Prayed", mock.Anything, "testland").Return([]models.Representative{*prayed}, nil)
	queue.On("NextInQueue", mock.Anything, "testland").Return((*models.Representative)(nil), nil)
	queue.On("Remaining", mock.Anything).Return(0, nil)
	queue.On("QueueSize", mock.Anything).Return(0, nil)

	pc, router := newPrayerController(t, queue)
	router.POST("/pray/:id", pc.ProcessItem)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/pray/1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestProcessItem_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown id", store.ErrNotFound, http.StatusNotFound},
		{"already prayed", store.ErrWrongState, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			queue := new(services.MockQueueService)
			queue.On("MarkPrayed", mock.Anything, int64(7)).Return((*models.Representative)(nil), tc.err)

			pc, router := newPrayerController(t, queue)
			router.POST("/pray/:id", pc.ProcessItem)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, htmxPost("/pray/7"))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestProcessItem_BadID(t *testing.T) {
	queue := new(services.MockQueueService)
	pc, router := newPrayerController(t, queue)
	router.POST("/pray/:id", pc.ProcessItem)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, htmxPost("/pray/not-a-number"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutBack_HTMXReturnsRefreshedList(t *testing.T) {
	queue := new(services.MockQueueService)
	back := &models.Representative{ID: 3, PersonName: "Carol", CountryCode: "testland", Status: models.StatusQueued}
	queue.On("PutBack", mock.Anything, int64(3)).Return(back, nil)
	queue.On("NextInQueue", mock.Anything, "testland").Return(back, nil)
	queue.On("Prayed", mock.Anything, "testland").Return([]models.Representative(nil), nil)
	queue.On("Remaining", mock.Anything).Return(3, nil)

	pc, router := newPrayerController(t, queue)
	router.POST("/putback/:id", pc.PutBack)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, htmxPost("/putback/3"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="prayed-list-container"`)
	queue.AssertExpectations(t)
}

func TestPutBack_FormPostRedirectsToList(t *testing.T) {
	queue := new(services.MockQueueService)
	back := &models.Representative{ID: 3, PersonName: "Carol", CountryCode: "testland", Status: models.StatusQueued}
	queue.On("PutBack", mock.Anything, int64(3)).Return(back, nil)
	queue.On("NextInQueue", mock.Anything, "testland").Return(back, nil)
	queue.On("Prayed", mock.Anything, "testland").Return([]models.Representative(nil), nil)
	queue.On("Remaining", mock.Anything).Return(3, nil)

	pc, router := newPrayerController(t, queue)
	router.POST("/putback/:id", pc.PutBack)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/putback/3?list=overall", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/prayed/overall", w.Header().Get("Location"))
}
