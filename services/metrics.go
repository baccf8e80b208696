// Package services: services/metrics.go
package services

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"

	"prayreps/logger"
)

// Namespace for all PrayReps metrics
const metricsNamespace = "PrayReps"

// Metrics publishes application counters to CloudWatch. Publishing is
// fire-and-forget: a failed put is logged and never blocks a request.
type Metrics struct {
	enabled bool
	cw      *cloudwatch.CloudWatch
}

// NewMetrics builds the publisher. When disabled, every publish is a
// no-op (local development has no AWS credentials).
func NewMetrics(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}
	if enabled {
		m.cw = cloudwatch.New(session.Must(session.NewSession()))
	}
	return m
}

// PublishPrayerRecorded counts one completed prayer for a country.
func (m *Metrics) PublishPrayerRecorded(countryCode string) {
	m.putMetric("PrayersRecorded", 1, "Count", countryCode)
}

// PublishQueueDepth pushes a gauge for the remaining queue size.
func (m *Metrics) PublishQueueDepth(countryCode string, depth int) {
	m.putMetric("QueueDepth", float64(depth), "Count", countryCode)
}

// -----------------------------------------------------------
// internal helper function to package up CloudWatch calls
// -----------------------------------------------------------
func (m *Metrics) putMetric(metricName string, value float64, unit string, countryCode string) {
	if !m.enabled {
		return
	}
	_, err := m.cw.PutMetricData(&cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricsNamespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: []*cloudwatch.Dimension{
					{
						Name:  aws.String("Country"),
						Value: aws.String(countryCode),
					},
				},
				Timestamp: aws.Time(time.Now()),
				Value:     aws.Float64(value),
				Unit:      aws.String(unit),
			},
		},
	})

	if err != nil {
		logger.Error.Printf("[putMetric] CloudWatch metric failed (%s): %v", metricName, err)
	}
}
