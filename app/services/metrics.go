package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type workflowMetrics struct {
	postsCreated    prometheus.Counter
	claimsFiled     prometheus.Counter
	claimsReviewed  prometheus.Counter
	claimsDecided   *prometheus.CounterVec
	claimsWithdrawn prometheus.Counter
	conflicts       *prometheus.CounterVec
}

// newWorkflowMetrics returns nil when promRegistry is nil; every recorder tolerates that.
func newWorkflowMetrics(promRegistry prometheus.Registerer) *workflowMetrics {
	if promRegistry == nil {
		return nil
	}
	promautoFactory := promauto.With(promRegistry)
	return &workflowMetrics{
		postsCreated: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_posts_created_total",
			Help: "posts created",
		}),
		claimsFiled: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_claims_filed_total",
			Help: "claims admitted",
		}),
		claimsReviewed: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_claims_reviewed_total",
			Help: "claims opened for review",
		}),
		claimsDecided: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_claims_decided_total",
			Help: "claims decided, by outcome",
		}, []string{"outcome"}),
		claimsWithdrawn: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_claims_withdrawn_total",
			Help: "claims withdrawn by their claimant",
		}),
		conflicts: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_workflow_conflicts_total",
			Help: "operations that lost a concurrency race, by operation",
		}, []string{"op"}),
	}
}

func (m *workflowMetrics) postCreated() {
	if m != nil {
		m.postsCreated.Inc()
	}
}

func (m *workflowMetrics) claimFiled() {
	if m != nil {
		m.claimsFiled.Inc()
	}
}

func (m *workflowMetrics) claimReviewed() {
	if m != nil {
		m.claimsReviewed.Inc()
	}
}

func (m *workflowMetrics) claimDecided(outcome string) {
	if m != nil {
		m.claimsDecided.WithLabelValues(outcome).Inc()
	}
}

func (m *workflowMetrics) claimWithdrawn() {
	if m != nil {
		m.claimsWithdrawn.Inc()
	}
}

func (m *workflowMetrics) conflict(op string) {
	if m != nil {
		m.conflicts.WithLabelValues(op).Inc()
	}
}
