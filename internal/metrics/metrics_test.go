package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "3xx", StatusClass(302))
	assert.Equal(t, "4xx", StatusClass(404))
	assert.Equal(t, "5xx", StatusClass(503))
	assert.Equal(t, "unknown", StatusClass(0))
}

func TestTransitionsCounter(t *testing.T) {
	before := testutil.ToFloat64(Transitions.WithLabelValues("CART", "AWAITING_EMAIL"))
	Transitions.WithLabelValues("CART", "AWAITING_EMAIL").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Transitions.WithLabelValues("CART", "AWAITING_EMAIL")))
}
