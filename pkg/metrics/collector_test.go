package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("dynamodb", "get_state", "parsing"))
	unknownBefore := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("unknown", "reset", "unknown"))

	RecordStoreOperation("dynamodb", "get_state", "parsing", 5*time.Millisecond)
	RecordStoreOperation("", "reset", "", time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(storeOperationsTotal.WithLabelValues("dynamodb", "get_state", "parsing")))
	assert.Equal(t, unknownBefore+1, testutil.ToFloat64(storeOperationsTotal.WithLabelValues("unknown", "reset", "unknown")))
}

func TestRecordError(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues("E210", "high"))

	RecordError("E210", "high")

	assert.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues("E210", "high")))
}
