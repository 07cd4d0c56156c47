package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(operationTotal.WithLabelValues("createTransaction", ResultError))
	ObserveOperation("createTransaction", Result(errors.New("boom")), 5*time.Millisecond)
	after := testutil.ToFloat64(operationTotal.WithLabelValues("createTransaction", ResultError))

	assert.Equal(t, before+1, after)
}

func TestSetClosingBalance(t *testing.T) {
	Init()
	SetClosingBalance("NAIRA", 950)
	assert.Equal(t, 950.0, testutil.ToFloat64(closingBalance.WithLabelValues("NAIRA")))
}
