package daubechies

import "testing"

func TestDbwavfLength(t *testing.T) {
	for n := 1; n <= 10; n++ {
		f := Dbwavf(n)
		if len(f) != 2*n {
			t.Errorf("Dbwavf(%d) has length %d, want %d", n, len(f), 2*n)
		}
	}
}

func TestDbwavfSumsToOne(t *testing.T) {
	for n := 1; n <= 10; n++ {
		f := Dbwavf(n)
		var sum float64
		for _, v := range f {
			sum += v
		}
		if diff := sum - 1; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Dbwavf(%d) sums to %v, want 1", n, sum)
		}
	}
}

func TestDbwavfPanicsOutOfRange(t *testing.T) {
	for _, n := range []int{0, 11, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Dbwavf(%d) should panic", n)
				}
			}()
			Dbwavf(n)
		}()
	}
}

func TestTypeIndex(t *testing.T) {
	tests := []struct {
		t    Type
		want int
	}{
		{None, 0}, {D1, 1}, {D2, 2}, {D5, 5}, {D10, 10},
	}
	for _, tt := range tests {
		if got := tt.t.Index(); got != tt.want {
			t.Errorf("%v.Index() = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestOrthfiltD2(t *testing.T) {
	// D2's classic orthonormal scaling filter (Daubechies-4 / db2).
	w := Dbwavf(2)
	loR, hiR, loD, hiD := Orthfilt(w)
	if len(loR) != 4 || len(hiR) != 4 || len(loD) != 4 || len(hiD) != 4 {
		t.Fatalf("Orthfilt(D2) filter lengths: %d %d %d %d", len(loR), len(hiR), len(loD), len(hiD))
	}
	var sum float64
	for _, v := range loR {
		sum += v
	}
	if diff := sum - sqrt2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Lo_R should sum to sqrt(2), got %v", sum)
	}
	// Hi_R must be orthogonal to Lo_R (zero dot product), the defining
	// property of quadrature mirror filters.
	var dot float64
	for i := range loR {
		dot += loR[i] * hiR[i]
	}
	if dot > 1e-9 || dot < -1e-9 {
		t.Errorf("Lo_R . Hi_R = %v, want ~0", dot)
	}
	// Lo_D/Hi_D are the exact reversals of Lo_R/Hi_R.
	for i := range loR {
		if loD[i] != loR[len(loR)-1-i] {
			t.Errorf("Lo_D[%d] = %v, want reverse(Lo_R)[%d] = %v", i, loD[i], i, loR[len(loR)-1-i])
		}
		if hiD[i] != hiR[len(hiR)-1-i] {
			t.Errorf("Hi_D[%d] = %v, want reverse(Hi_R)[%d] = %v", i, hiD[i], i, hiR[len(hiR)-1-i])
		}
	}
}

func TestBuildNoneFails(t *testing.T) {
	if _, ok := Build(None); ok {
		t.Error("Build(None) should return ok=false")
	}
}

func TestBuildD2(t *testing.T) {
	f, ok := Build(D2)
	if !ok {
		t.Fatal("Build(D2) should succeed")
	}
	if len(f.LoD) != 4 || len(f.HiD) != 4 || len(f.LoR) != 4 || len(f.HiR) != 4 {
		t.Errorf("unexpected filter lengths: %+v", f)
	}
}
