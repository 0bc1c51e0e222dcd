package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	gradeComputations   *prometheus.CounterVec
	scheduleConflicts   *prometheus.CounterVec
	attendanceRecords   *prometheus.CounterVec
	uploadsRejected     *prometheus.CounterVec
	uploadLatency       prometheus.Histogram
	chatMessagesSent    *prometheus.CounterVec
	chatConnections     prometheus.Counter
	notificationsSent   *prometheus.CounterVec
	sseClientsActive    prometheus.Gauge
	gradebookCacheTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "school_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradeComputations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_grade_computations_total",
			Help: "Course grades computed, by gradebook view.",
		}, []string{"view"})

		scheduleConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_schedule_conflicts_total",
			Help: "Schedule conflicts detected, by kind.",
		}, []string{"kind"})

		attendanceRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_attendance_records_saved_total",
			Help: "Attendance rows written, by status.",
		}, []string{"status"})

		uploadsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_uploads_rejected_total",
			Help: "Uploads rejected during validation, by reason.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "school_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		chatMessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_chat_messages_total",
			Help: "Chat messages delivered, by type.",
		}, []string{"type"})

		chatConnections = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "school_chat_connections_total",
			Help: "Websocket chat connections accepted.",
		})

		notificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_notifications_published_total",
			Help: "Notifications published, by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "school_sse_clients_active",
			Help: "Currently connected notification stream clients.",
		})

		gradebookCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "school_gradebook_cache_total",
			Help: "Gradebook cache lookups, by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradeComputations,
			scheduleConflicts,
			attendanceRecords,
			uploadsRejected,
			uploadLatency,
			chatMessagesSent,
			chatConnections,
			notificationsSent,
			sseClientsActive,
			gradebookCacheTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

func GradeComputations() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeComputations
}

func ScheduleConflicts() *prometheus.CounterVec {
	RegisterMetrics()
	return scheduleConflicts
}

func AttendanceRecordsSaved() *prometheus.CounterVec {
	RegisterMetrics()
	return attendanceRecords
}

func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejected
}

func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

func ChatMessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesSent
}

func ChatConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return chatConnections
}

func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSent
}

func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// GradebookCache counts gradebook cache hits and misses.
func GradebookCache() *prometheus.CounterVec {
	RegisterMetrics()
	return gradebookCacheTotal
}
