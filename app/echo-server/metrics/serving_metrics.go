package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RecommendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reco_recommend_latency_seconds",
		Help:    "Latency of recommendation endpoints",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	RecommendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_recommend_total",
		Help: "Total recommendation lists served",
	}, []string{"kind"})

	PredictTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_predict_total",
		Help: "Total success predictions served",
	})

	FeedbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_feedback_total",
		Help: "Total recommendation reactions recorded",
	})
)

func Init() {
	prometheus.MustRegister(RecommendDuration, RecommendTotal, PredictTotal, FeedbackTotal)
}
