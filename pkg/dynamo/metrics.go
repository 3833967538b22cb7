package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dynamoRequestsTotal   *prometheus.CounterVec
	dynamoErrorsTotal     *prometheus.CounterVec
	dynamoRequestDuration *prometheus.HistogramVec
)

func init() {
	dynamoRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynamodb_requests_total",
			Help: "Total number of DynamoDB requests by method.",
		},
		[]string{"method"},
	)
	dynamoErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dynamodb_errors_total",
			Help: "Total number of DynamoDB errors by method.",
		},
		[]string{"method"},
	)
	dynamoRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dynamodb_request_duration_seconds",
			Help:    "DynamoDB request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	prometheus.MustRegister(dynamoRequestsTotal, dynamoErrorsTotal, dynamoRequestDuration)
}

// MetricsClient wraps an API implementation to collect Prometheus metrics.
type MetricsClient struct {
	next API
}

var _ API = (*MetricsClient)(nil)

// NewMetricsClient creates an instrumented DynamoDB client.
func NewMetricsClient(next API) *MetricsClient {
	return &MetricsClient{next: next}
}

// Query instruments API.Query.
func (m *MetricsClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	done := observe("query")
	out, err := m.next.Query(ctx, params, optFns...)
	done(err)
	return out, err
}

// PutItem instruments API.PutItem.
func (m *MetricsClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	done := observe("put_item")
	out, err := m.next.PutItem(ctx, params, optFns...)
	done(err)
	return out, err
}

// DeleteItem instruments API.DeleteItem.
func (m *MetricsClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	done := observe("delete_item")
	out, err := m.next.DeleteItem(ctx, params, optFns...)
	done(err)
	return out, err
}

// DescribeTable instruments API.DescribeTable.
func (m *MetricsClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	done := observe("describe_table")
	out, err := m.next.DescribeTable(ctx, params, optFns...)
	done(err)
	return out, err
}

func observe(method string) func(error) {
	timer := prometheus.NewTimer(dynamoRequestDuration.WithLabelValues(method))
	return func(err error) {
		timer.ObserveDuration()
		dynamoRequestsTotal.WithLabelValues(method).Inc()
		if err != nil {
			dynamoErrorsTotal.WithLabelValues(method).Inc()
		}
	}
}
