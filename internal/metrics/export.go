package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportStates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumify",
			Subsystem: "export",
			Name:      "state_transitions_total",
			Help:      "导出管线进入各阶段的次数。",
		},
		[]string{"state"},
	)

	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumify",
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "一次导出从截图到生成 PDF 的耗时（秒）。",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"template_id", "result"},
	)

	exportPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resumify",
			Subsystem: "export",
			Name:      "pages",
			Help:      "导出 PDF 的页数分布。",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		},
	)

	exportRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumify",
			Subsystem: "export",
			Name:      "rejected_total",
			Help:      "在入队前被拒绝的导出请求。",
		},
		[]string{"reason"},
	)

	thumbnailsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumify",
			Subsystem: "thumbnail",
			Name:      "generated_total",
			Help:      "模板缩略图生成次数，按结果区分。",
		},
		[]string{"result"},
	)
)

// ExportState 记录导出管线的一次阶段切换。
func ExportState(state string) {
	exportStates.WithLabelValues(state).Inc()
}

// ExportFinished 记录一次导出的耗时与页数，失败时 pages 为 0。
func ExportFinished(templateID string, ok bool, pages int, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	exportDuration.WithLabelValues(templateID, result).Observe(elapsed.Seconds())
	if ok {
		exportPages.Observe(float64(pages))
	}
}

// ExportRejected 记录被闸门、限流或并发锁拦下的请求。
func ExportRejected(reason string) {
	exportRejected.WithLabelValues(reason).Inc()
}

// ThumbnailGenerated 记录一次缩略图生成结果。
func ThumbnailGenerated(ok bool) {
	if ok {
		thumbnailsGenerated.WithLabelValues("ok").Inc()
		return
	}
	thumbnailsGenerated.WithLabelValues("error").Inc()
}
