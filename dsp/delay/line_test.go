package delay

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for size=0")
	}
	if _, err := New(-1); err == nil {
		t.Fatal("expected error for size=-1")
	}
}

func TestNewForDuration(t *testing.T) {
	d, err := NewForDuration(48000, 1500)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Len(); got != 72001 {
		t.Fatalf("Len: got %d want 72001", got)
	}

	if _, err := NewForDuration(0, 100); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestReadWrite(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		d.Write(float64(i))
	}
	// delay=1 => most recently written (7)
	if got := d.Read(1); got != 7 {
		t.Fatalf("got %v want 7", got)
	}
	// delay=3 => 3 samples back from write head
	if got := d.Read(3); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestReadWraparound(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		d.Write(float64(i))
	}
	if got := d.Read(1); got != 9 {
		t.Fatalf("got %v want 9", got)
	}
}

func TestClampDelay(t *testing.T) {
	d, _ := New(16)

	if got := d.ClampDelay(-5); got != 0 {
		t.Fatalf("negative: got %d want 0", got)
	}
	if got := d.ClampDelay(100); got != 15 {
		t.Fatalf("oversized: got %d want 15", got)
	}
	if got := d.ClampDelay(7); got != 7 {
		t.Fatalf("in range: got %d want 7", got)
	}
}

func TestProcessFeedbackImpulse(t *testing.T) {
	d, _ := New(16)

	in := make([]float64, 12)
	in[0] = 1
	wet := make([]float64, 12)
	d.ProcessFeedback(in, wet, 4, 0.5)

	// First echo at n=4 with unit gain, second at n=8 scaled by feedback.
	if wet[4] != 1 {
		t.Fatalf("first echo: got %v want 1", wet[4])
	}
	if wet[8] != 0.5 {
		t.Fatalf("second echo: got %v want 0.5", wet[8])
	}
	for _, n := range []int{0, 1, 2, 3, 5, 6, 7, 9} {
		if wet[n] != 0 {
			t.Fatalf("sample %d: got %v want 0", n, wet[n])
		}
	}
}

func TestProcessPureDelay(t *testing.T) {
	d, _ := New(8)

	in := []float64{1, 2, 3, 4}
	out := make([]float64, 4)
	d.ProcessPure(in, out, 2)

	want := []float64{0, 0, 1, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("sample %d: got %v want %v", i, out[i], want[i])
		}
	}
}

func TestProcessPureZeroDelayPassthrough(t *testing.T) {
	d, _ := New(8)

	in := []float64{0.1, -0.2, 0.3}
	out := make([]float64, 3)
	d.ProcessPure(in, out, 0)

	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d: got %v want %v", i, out[i], in[i])
		}
	}
}

func TestProcessFeedbackOversizedDelayClamped(t *testing.T) {
	d, _ := New(8)

	in := make([]float64, 16)
	in[0] = 1
	wet := make([]float64, 16)
	d.ProcessFeedback(in, wet, 1000, 0)

	// Clamped to size-1 = 7.
	if wet[7] != 1 {
		t.Fatalf("clamped echo: got %v want 1 at n=7", wet[7])
	}
}

func TestReadFractionalRamp(t *testing.T) {
	d, _ := New(16)
	for i := 0; i < d.Len(); i++ {
		d.Write(float64(i))
	}

	got := d.ReadFractional(3.5)
	if math.Abs(got-12.5) > 1e-10 {
		t.Fatalf("got %v want 12.5", got)
	}
}

func TestReset(t *testing.T) {
	d, _ := New(4)
	d.Write(1)
	d.Write(2)
	d.Reset()

	for i := 0; i < 4; i++ {
		if got := d.Read(i); got != 0 {
			t.Fatalf("after reset Read(%d): got %v want 0", i, got)
		}
	}
}

func BenchmarkProcessFeedback(b *testing.B) {
	d, _ := New(72001)
	in := make([]float64, 256)
	wet := make([]float64, 256)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.ProcessFeedback(in, wet, 18000, 0.3)
	}
}
