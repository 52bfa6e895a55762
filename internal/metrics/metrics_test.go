package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestExportCounters(t *testing.T) {
	before := testutil.ToFloat64(exportStates.WithLabelValues("capturing"))
	ExportState("capturing")
	assert.Equal(t, before+1, testutil.ToFloat64(exportStates.WithLabelValues("capturing")))

	before = testutil.ToFloat64(exportRejected.WithLabelValues("rate_limited"))
	ExportRejected("rate_limited")
	assert.Equal(t, before+1, testutil.ToFloat64(exportRejected.WithLabelValues("rate_limited")))

	before = testutil.ToFloat64(thumbnailsGenerated.WithLabelValues("error"))
	ThumbnailGenerated(false)
	assert.Equal(t, before+1, testutil.ToFloat64(thumbnailsGenerated.WithLabelValues("error")))

	ExportFinished("pro-1", true, 2, time.Second)
	ExportFinished("pro-1", false, 0, time.Second)
}

func TestAsynqMiddlewarePassesError(t *testing.T) {
	boom := errors.New("boom")
	h := AsynqMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return boom }))

	err := h.ProcessTask(context.Background(), asynq.NewTask("test:task", nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0.0, testutil.ToFloat64(taskInProgress.WithLabelValues("test:task")))
}

func TestGinMiddlewareSkipsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware("/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/metrics", "/ping", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(requestsInFlight))
	// /ping 与 unmatched 各一条，/metrics 不计入。
	assert.Equal(t, 2, testutil.CollectAndCount(requestDuration))
}
