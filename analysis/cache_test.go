package analysis

import (
	"testing"

	"github.com/emberlang/ember/flow"
)

type countingResult int

type countingAnalysis struct {
	visits *int
}

func (countingAnalysis) Keys() []Key { return []Key{KeyOf[countingResult]()} }

func (a countingAnalysis) Run(g flow.Graph) (any, error) {
	return countingResult(0), nil
}

func (a countingAnalysis) Update(prev any, hadPrev bool, delta flow.GraphDelta, g flow.Graph) (any, error) {
	*a.visits++
	return prev, nil
}

type otherResult int

type otherAnalysis struct {
	visits *int
}

func (otherAnalysis) Keys() []Key { return []Key{KeyOf[otherResult]()} }

func (a otherAnalysis) Run(g flow.Graph) (any, error) { return otherResult(0), nil }

func (a otherAnalysis) Update(prev any, hadPrev bool, delta flow.GraphDelta, g flow.Graph) (any, error) {
	*a.visits++
	return prev, nil
}

func TestCacheUpdateIteratesExistingSlots(t *testing.T) {
	v1, v2 := 0, 0

	c := New()

	c, err := c.WithAnalysis(flow.New(), countingAnalysis{visits: &v1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, err = c.WithAnalysis(flow.New(), otherAnalysis{visits: &v2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Update(flow.New(), flow.GraphDelta{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v1 != 1 || v2 != 1 {
		t.Fatalf("expected each distinct slot visited exactly once, got %d and %d", v1, v2)
	}
}

func TestGetResultAsFailsWhenUnregistered(t *testing.T) {
	c := New()

	if _, err := GetResultAs[countingResult](c); err == nil {
		t.Fatalf("expected an error for an unregistered result type")
	}
}

func TestGetResultAsReturnsSameValue(t *testing.T) {
	c := New()
	c, err := c.WithAnalysis(flow.New(), countingAnalysis{visits: new(int)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := GetResultAs[countingResult](c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := GetResultAs[countingResult](c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Fatalf("expected repeated queries to return the same value")
	}
}

func TestWithAnalysisReusesDanglingSlot(t *testing.T) {
	c := New()
	c, _ = c.WithAnalysis(flow.New(), countingAnalysis{visits: new(int)})

	// Re-registering a distinct analysis bound to the same result type
	// should dangle and reuse the original slot rather than growing the
	// slot list.
	c, err := c.WithAnalysis(flow.New(), countingAnalysis{visits: new(int)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.slots) != 1 {
		t.Fatalf("expected the dangling slot to be reused, got %d slots", len(c.slots))
	}
}
