package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReactionToggles counts want-to-try / tried toggles by reaction and resulting state.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fullcourse_reaction_toggles_total",
		Help: "Reaction toggles by reaction and resulting state",
	}, []string{"reaction", "state"})

	// RatingWrites counts rating submissions and removals.
	RatingWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fullcourse_rating_writes_total",
		Help: "Rating writes by operation",
	}, []string{"operation"})

	// CourseWrites counts course create/update/delete.
	CourseWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fullcourse_course_writes_total",
		Help: "Course writes by operation",
	}, []string{"operation"})

	// CommentsPosted counts comments created.
	CommentsPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fullcourse_comments_posted_total",
		Help: "Comments posted",
	})

	// AuthAttempts counts sign-in and registration attempts by method and result.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fullcourse_auth_attempts_total",
		Help: "Authentication attempts by method and result",
	}, []string{"method", "result"})

	// EmailsSent counts outbound mail by purpose and result.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fullcourse_emails_sent_total",
		Help: "Emails sent by purpose and result",
	}, []string{"purpose", "result"})

	// RateLimited counts requests rejected by the per-client limiter, by path.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fullcourse_rate_limited_total",
		Help: "Requests rejected by rate limiting",
	}, []string{"path"})

	// HTTPRequestDuration tracks handler latency by route pattern, method and status class.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fullcourse_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	}, []string{"route", "method", "status"})
)

// Result maps an error to a "ok"/"error" label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
