package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with ignored zero options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithRefreshInterval(-1*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording agent actions", func() {
			Convey("Then it should record successes and failures", func() {
				So(func() {
					RecordAgentAction("orchestrator", "fetch_context", true, 12.5)
					RecordAgentAction("orchestrator", "plan", true, 40.0)
					RecordAgentAction("orchestrator", "fetch_context", false, 2500.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording planning metrics", func() {
			Convey("Then it should record run outcomes", func() {
				So(func() {
					RecordPlanningRun("completed")
					RecordPlanningRun("empty_wardrobe")
					RecordPlanningRun("timeout")
				}, ShouldNotPanic)
			})

			Convey("And it should record planning duration", func() {
				So(func() {
					RecordPlanningDuration(100.0)
					RecordPlanningDuration(150.0)
				}, ShouldNotPanic)
			})

			Convey("And it should update candidate count", func() {
				So(func() {
					UpdateCandidateCount(12)
					UpdateCandidateCount(0)
				}, ShouldNotPanic)
			})

			Convey("And it should record scoring errors", func() {
				So(func() {
					RecordScoringError()
					RecordScoringError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording feedback metrics", func() {
			Convey("Then it should record applied feedback", func() {
				So(func() {
					RecordFeedbackApplied("accepted")
					RecordFeedbackApplied("rejected")
					RecordFeedbackApplied("neutral")
				}, ShouldNotPanic)
			})

			Convey("And it should record rejected feedback", func() {
				So(func() {
					RecordFeedbackRejected()
				}, ShouldNotPanic)
			})

			Convey("And it should update the queue size", func() {
				So(func() {
					UpdateFeedbackQueueSize(100)
					UpdateFeedbackQueueSize(0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording scheduler metrics", func() {
			Convey("Then it should record ticks and skips", func() {
				So(func() {
					RecordSchedulerTick("daily_recommendation")
					RecordSchedulerTick("seasonal_rotation")
					RecordSchedulerSkip("daily_recommendation")
				}, ShouldNotPanic)
			})

			Convey("And it should record run durations", func() {
				So(func() {
					RecordSchedulerRunDuration("daily_recommendation", 250.0)
					RecordSchedulerRunDuration("seasonal_rotation", 50.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording collaborator metrics", func() {
			Convey("Then it should record calls and retries", func() {
				So(func() {
					RecordCollaboratorCall("weather", "ok")
					RecordCollaboratorCall("calendar", "error")
					RecordCollaboratorCall("narrator", "timeout")
					RecordCollaboratorRetry("weather")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then it should record HTTP requests", func() {
				So(func() {
					RecordHTTPRequest("/healthz", "GET", "200")
					RecordHTTPRequest("/recommend", "POST", "200")
					RecordHTTPRequest("/feedback", "POST", "202")
				}, ShouldNotPanic)
			})

			Convey("And it should record HTTP request duration", func() {
				So(func() {
					RecordHTTPRequestDuration("/healthz", "GET", "200", 5.0)
					RecordHTTPRequestDuration("/recommend", "POST", "200", 120.0)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsEdgeCases(t *testing.T) {
	Convey("Given metrics edge cases", t, func() {
		Convey("When recording metrics with edge values", func() {
			Convey("And using zero values", func() {
				So(func() {
					UpdateCandidateCount(0)
					UpdateFeedbackQueueSize(0)
					RecordPlanningDuration(0.0)
					RecordHTTPRequestDuration("/test", "GET", "200", 0.0)
				}, ShouldNotPanic)
			})

			Convey("And using negative values", func() {
				So(func() {
					UpdateCandidateCount(-1)
					UpdateFeedbackQueueSize(-100)
				}, ShouldNotPanic)
			})

			Convey("And using empty strings", func() {
				So(func() {
					RecordAgentAction("", "", false, 10.0)
					RecordPlanningRun("")
					RecordCollaboratorCall("", "")
					RecordHTTPRequest("", "", "200")
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func() {
					for j := 0; j < 100; j++ {
						RecordAgentAction("orchestrator", "plan", true, float64(j))
						UpdateFeedbackQueueSize(j)
						RecordPlanningDuration(float64(j))
						RecordHTTPRequest("/test", "GET", "200")
					}
					done <- true
				}()
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then it should handle concurrent access without panics", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}
