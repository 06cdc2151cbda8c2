package analyzer

import (
	"testing"

	"github.com/benjamintsai23/margin-momentum-trading/models"
)

func TestFilterPriceBand(t *testing.T) {
	f := NewFilter(testConfig())

	signals := []models.Signal{
		{StockID: "A", Price: 5, Grade: models.GradeS},
		{StockID: "B", Price: 10, Grade: models.GradeA},
		{StockID: "C", Price: 500, Grade: models.GradeA},
		{StockID: "D", Price: 600, Grade: models.GradeS},
	}

	out := f.Apply(signals)
	if len(out) != 2 {
		t.Fatalf("got %d signals, want 2 inside [10, 500]", len(out))
	}
	for _, s := range out {
		if s.Price < 10 || s.Price > 500 {
			t.Errorf("signal %s price %v outside band", s.StockID, s.Price)
		}
	}
}

func TestFilterGradeOrdering(t *testing.T) {
	f := NewFilter(testConfig())

	signals := []models.Signal{
		{StockID: "b", Price: 100, Grade: models.GradeB},
		{StockID: "s", Price: 100, Grade: models.GradeS},
		{StockID: "u", Price: 100, Grade: models.GradeUrgent},
		{StockID: "a", Price: 100, Grade: models.GradeA},
	}

	out := f.Apply(signals)
	want := []models.Grade{models.GradeS, models.GradeA, models.GradeB, models.GradeUrgent}
	if len(out) != len(want) {
		t.Fatalf("got %d signals, want %d", len(out), len(want))
	}
	for i, g := range want {
		if out[i].Grade != g {
			t.Errorf("position %d grade = %v, want %v", i, out[i].Grade, g)
		}
	}
}

func TestFilterStableWithinGrade(t *testing.T) {
	f := NewFilter(testConfig())

	signals := []models.Signal{
		{StockID: "x", Price: 100, Grade: models.GradeA},
		{StockID: "s", Price: 100, Grade: models.GradeS},
		{StockID: "y", Price: 100, Grade: models.GradeA},
	}

	out := f.Apply(signals)
	if len(out) != 3 {
		t.Fatalf("got %d signals, want 3", len(out))
	}
	if out[1].StockID != "x" || out[2].StockID != "y" {
		t.Errorf("A-grade ties reordered: got %s then %s, want x then y", out[1].StockID, out[2].StockID)
	}
}
