package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/creditlens/creditlens/reporter/internal/dataset"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func read(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return ds
}

// --- Overview ---

func TestOverview(t *testing.T) {
	ds := read(t, "id,amount,label\nA,1.5,x\nB,2.5,y\nC,3.5,x\n")
	got := Overview(ds, 2)

	if got.Rows != 3 || got.Cols != 3 {
		t.Errorf("shape: got %dx%d, want 3x3", got.Rows, got.Cols)
	}
	want := []Column{{"id", "object"}, {"amount", "float64"}, {"label", "object"}}
	for i, c := range want {
		if got.Columns[i] != c {
			t.Errorf("column %d: got %+v, want %+v", i, got.Columns[i], c)
		}
	}
	if len(got.Head) != 3 {
		t.Errorf("head: got %d records, want header + 2", len(got.Head))
	}
}

// --- Describe ---

func TestDescribe(t *testing.T) {
	ds := read(t, "a,b,name\n1,10,x\n2,,y\n3,30,z\n4,40,w\n")
	got, err := Describe(ds)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("summaries: got %d, want 2 (numeric only)", len(got))
	}

	a := got[0]
	if a.Column != "a" || a.Count != 4 {
		t.Errorf("a: got column=%q count=%d", a.Column, a.Count)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"mean", a.Mean, 2.5},
		{"std", a.Std, math.Sqrt(5.0 / 3.0)},
		{"min", a.Min, 1},
		{"25%", a.Q25, 1.75},
		{"50%", a.Q50, 2.5},
		{"75%", a.Q75, 3.25},
		{"max", a.Max, 4},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want, 1e-9) {
			t.Errorf("a %s: got %v, want %v", c.name, c.got, c.want)
		}
	}

	b := got[1]
	if b.Count != 3 {
		t.Errorf("b count: got %d, want 3 (missing excluded)", b.Count)
	}
	if !almostEqual(b.Mean, 80.0/3, 1e-9) {
		t.Errorf("b mean: got %v, want %v", b.Mean, 80.0/3)
	}
}

func TestDescribe_SingleValue(t *testing.T) {
	ds := read(t, "a\n7\n")
	got, err := Describe(ds)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if got[0].Count != 1 || got[0].Mean != 7 || got[0].Q75 != 7 {
		t.Errorf("summary: got %+v", got[0])
	}
	if !math.IsNaN(got[0].Std) {
		t.Errorf("std of one value: got %v, want NaN", got[0].Std)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1}, {0.1, 1.4}, {0.25, 2}, {0.5, 3}, {0.9, 4.6}, {1, 5},
	}
	for _, tt := range tests {
		if got := Quantile(sorted, tt.p); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("Quantile(%v): got %v, want %v", tt.p, got, tt.want)
		}
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Error("Quantile(empty): want NaN")
	}
}

// --- Correlation ---

func TestCorrelation(t *testing.T) {
	ds := read(t, "x,y,z,c,w\n1,2,4,5,1\n2,4,3,5,\n3,6,2,5,3\n4,8,1,5,4\n")
	m, err := Correlation(ds)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	if strings.Join(m.Names, ",") != "x,y,z,c,w" {
		t.Fatalf("names: got %v", m.Names)
	}
	at := func(a, b int) float64 { return m.Values[a][b] }

	if !almostEqual(at(0, 0), 1, 1e-12) {
		t.Errorf("corr(x,x): got %v, want 1", at(0, 0))
	}
	if !almostEqual(at(0, 1), 1, 1e-12) {
		t.Errorf("corr(x,y): got %v, want 1", at(0, 1))
	}
	if !almostEqual(at(0, 2), -1, 1e-12) {
		t.Errorf("corr(x,z): got %v, want -1", at(0, 2))
	}
	if !math.IsNaN(at(0, 3)) {
		t.Errorf("corr(x,constant): got %v, want NaN", at(0, 3))
	}
	// Pairwise-complete: the row with a missing w is dropped for that pair only.
	if !almostEqual(at(0, 4), 1, 1e-12) {
		t.Errorf("corr(x,w): got %v, want 1", at(0, 4))
	}
	if at(1, 2) != at(2, 1) {
		t.Error("matrix is not symmetric")
	}
}

// --- Missing values ---

func TestMissingCounts(t *testing.T) {
	ds := read(t, "a,b,c\n1,,x\n2,,\n3,5,y\n")
	got, err := MissingCounts(ds)
	if err != nil {
		t.Fatalf("MissingCounts: %v", err)
	}
	want := []MissingCount{{"b", 2}, {"c", 1}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMissingCounts_NoneMissing(t *testing.T) {
	ds := read(t, "a,b\n1,2\n3,4\n")
	got, err := MissingCounts(ds)
	if err != nil {
		t.Fatalf("MissingCounts: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestNullityCorrelation(t *testing.T) {
	// a and b go missing together, c is the mirror image, d is complete.
	ds := read(t, "a,b,c,d\n,,1,1\n2,2,,2\n,,3,3\n4,4,,4\n")
	m, err := NullityCorrelation(ds)
	if err != nil {
		t.Fatalf("NullityCorrelation: %v", err)
	}
	if strings.Join(m.Names, ",") != "a,b,c" {
		t.Fatalf("names: got %v, want [a b c]", m.Names)
	}
	if !almostEqual(m.Values[0][1], 1, 1e-12) {
		t.Errorf("nullity corr(a,b): got %v, want 1", m.Values[0][1])
	}
	if !almostEqual(m.Values[0][2], -1, 1e-12) {
		t.Errorf("nullity corr(a,c): got %v, want -1", m.Values[0][2])
	}
}

func TestNullityCorrelation_Complete(t *testing.T) {
	ds := read(t, "a,b\n1,2\n3,4\n")
	m, err := NullityCorrelation(ds)
	if err != nil {
		t.Fatalf("NullityCorrelation: %v", err)
	}
	if len(m.Names) != 0 {
		t.Errorf("names: got %v, want empty", m.Names)
	}
}

// --- Categories ---

func TestTopCategories(t *testing.T) {
	ds := read(t, "cat\nb\na\nb\nc\na\nNA\nb\n")
	got, err := TopCategories(ds, "cat", 2)
	if err != nil {
		t.Fatalf("TopCategories: %v", err)
	}
	want := []CategoryCount{{"b", 3}, {"a", 2}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTopCategories_TiesKeepFirstSeen(t *testing.T) {
	ds := read(t, "cat\ny\nx\nx\ny\nz\n")
	got, err := TopCategories(ds, "cat", 10)
	if err != nil {
		t.Fatalf("TopCategories: %v", err)
	}
	var order []string
	for _, c := range got {
		order = append(order, c.Value)
	}
	if strings.Join(order, ",") != "y,x,z" {
		t.Errorf("order: got %v, want [y x z]", order)
	}
}

func TestTopCategories_Errors(t *testing.T) {
	ds := read(t, "cat\na\n")
	if _, err := TopCategories(ds, "missing", 10); err == nil {
		t.Error("unknown column: expected error, got nil")
	}
	if _, err := TopCategories(ds, "cat", 0); err == nil {
		t.Error("n=0: expected error, got nil")
	}
}

func TestValues_DropsMissing(t *testing.T) {
	ds := read(t, "a,b\n1,x\n,y\n3,z\n")
	got, err := Values(ds, "a")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("got %v, want [1 3]", got)
	}
}

// --- Outliers ---

func TestOutlierFences(t *testing.T) {
	ds := read(t, "v,name\n1,a\n2,b\n3,c\n4,d\n100,e\n")
	f, err := OutlierFences(ds, "v")
	if err != nil {
		t.Fatalf("OutlierFences: %v", err)
	}
	// Q1=2, Q3=4, IQR=2 → fences [-1, 7].
	if f.Q1 != 2 || f.Q3 != 4 || f.Lower != -1 || f.Upper != 7 {
		t.Errorf("fences: got %+v", f)
	}
	if f.Outliers != 1 {
		t.Errorf("outliers: got %d, want 1", f.Outliers)
	}

	if _, err := OutlierFences(ds, "nope"); err == nil || !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("unknown column: got %v, want error naming it", err)
	}
	if _, err := OutlierFences(ds, "name"); err == nil {
		t.Error("categorical column: expected error, got nil")
	}
}
