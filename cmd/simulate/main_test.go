package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperationMetricsStats(t *testing.T) {
	var om OperationMetrics
	for i := 10; i >= 1; i-- {
		om.Record(time.Duration(i)*time.Millisecond, true, false)
	}

	avg, fastest, slowest, p50, p95 := om.Stats()
	assert.Equal(t, 5500*time.Microsecond, avg)
	assert.Equal(t, time.Millisecond, fastest)
	assert.Equal(t, 10*time.Millisecond, slowest)
	assert.Equal(t, 6*time.Millisecond, p50)
	assert.Equal(t, 10*time.Millisecond, p95)
}

func TestOperationMetricsStatsSingleSample(t *testing.T) {
	var om OperationMetrics
	om.Record(3*time.Millisecond, false, true)

	_, fastest, slowest, p50, p95 := om.Stats()
	assert.Equal(t, 3*time.Millisecond, fastest)
	assert.Equal(t, 3*time.Millisecond, slowest)
	assert.Equal(t, 3*time.Millisecond, p50)
	assert.Equal(t, 3*time.Millisecond, p95)
}
