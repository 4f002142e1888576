// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed through the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skillsharehub"

// ── Enrollment metrics ────────────────────────────────────────────────────────

// EnrollmentsTotal counts students added to a course.
// Label:
//   - path: "free" or "paid"
var EnrollmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Total number of successful enrollments, by enrollment path.",
	},
	[]string{"path"},
)

// EnrollmentErrorsTotal counts rejected or failed enrollment attempts.
// Label:
//   - reason: error kind (e.g. "AlreadyEnrolled", "WrongEnrollmentPath", "Internal")
var EnrollmentErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollment_errors_total",
		Help:      "Total number of enrollment attempts that did not enroll the student.",
	},
	[]string{"reason"},
)

// EnrollmentCompensationsTotal counts course-side writes undone after the
// user-side write failed.
var EnrollmentCompensationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollment_compensations_total",
		Help:      "Total number of enrollment writes rolled back by compensation.",
	},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentOrdersCreatedTotal counts provider orders opened for paid courses.
var PaymentOrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_orders_created_total",
		Help:      "Total number of payment orders created with the provider.",
	},
)

// PaymentCapturesTotal counts capture attempts by result.
// Label:
//   - outcome: "approved", "declined", "other", "replayed" or "error"
var PaymentCapturesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_captures_total",
		Help:      "Total number of payment capture attempts, by outcome.",
	},
	[]string{"outcome"},
)

// PaymentGatewayDuration measures provider round trips.
// Labels:
//   - operation: "token", "create_order" or "capture_order"
//   - result: "ok" or "error"
var PaymentGatewayDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_gateway_duration_seconds",
		Help:      "Duration of payment provider API calls.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"operation", "result"},
)

// ── Rating metrics ────────────────────────────────────────────────────────────

// RatingsAddedTotal counts accepted ratings.
// Label:
//   - value: the score, "1" … "5"
var RatingsAddedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratings_added_total",
		Help:      "Total number of ratings accepted, by score.",
	},
	[]string{"value"},
)

// ── Course metrics ────────────────────────────────────────────────────────────

// CoursesPublishedTotal counts courses created.
var CoursesPublishedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "courses_published_total",
		Help:      "Total number of courses created.",
	},
)

// UploadedBytesTotal sums the size of files written to the upload store.
var UploadedBytesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Total number of bytes written to the upload store.",
	},
)
