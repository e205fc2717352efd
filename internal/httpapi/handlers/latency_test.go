package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	assert.Zero(t, summarize(nil))

	one := summarize([]float64{42})
	assert.EqualValues(t, 1, one.Count)
	assert.Equal(t, 42.0, one.MinMs)
	assert.Equal(t, 42.0, one.P99Ms)
	assert.Equal(t, 42.0, one.MedianMs)

	in := []float64{40, 10, 30, 20}
	st := summarize(in)
	assert.Equal(t, []float64{40, 10, 30, 20}, in, "input is not reordered")
	assert.Equal(t, 10.0, st.MinMs)
	assert.Equal(t, 40.0, st.MaxMs)
	assert.InDelta(t, 25, st.MedianMs, 1e-9)
	assert.InDelta(t, 25, st.MeanMs, 1e-9)
	assert.InDelta(t, 38.5, st.P95Ms, 1e-9)
}

func TestPercentile(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentile(s, 0))
	assert.Equal(t, 3.0, percentile(s, 50))
	assert.Equal(t, 5.0, percentile(s, 100))
	assert.InDelta(t, 4.8, percentile(s, 95), 1e-9)
}
