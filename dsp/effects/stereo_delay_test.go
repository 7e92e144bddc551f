package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/internal/testutil"
)

func mustBuffers(t *testing.T, frames, chIn, chOut int) (*block.Buffer, *block.Buffer) {
	t.Helper()
	in, err := block.New(frames, chIn)
	if err != nil {
		t.Fatalf("block.New(in) error = %v", err)
	}
	out, err := block.New(frames, chOut)
	if err != nil {
		t.Fatalf("block.New(out) error = %v", err)
	}
	return in, out
}

func TestNewStereoDelayRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*StereoDelayConfig)
	}{
		{"tiny max delay", func(c *StereoDelayConfig) { c.MaxDelayMs = 1 }},
		{"nan max delay", func(c *StereoDelayConfig) { c.MaxDelayMs = math.NaN() }},
		{"negative offset", func(c *StereoDelayConfig) { c.OffsetMs = -1 }},
		{"zero feedback step", func(c *StereoDelayConfig) { c.FeedbackStep = 0 }},
		{"zero sample step", func(c *StereoDelayConfig) { c.StepSamples = 0 }},
		{"nan initial delay", func(c *StereoDelayConfig) { c.DelayMs = math.NaN() }},
	}
	for _, tc := range cases {
		cfg := DefaultStereoDelayConfig()
		tc.mutate(&cfg)
		if _, err := NewStereoDelay(cfg); err == nil {
			t.Fatalf("NewStereoDelay(%s) expected error", tc.name)
		}
	}
}

func TestStereoDelayImpulseEcho(t *testing.T) {
	cfg := DefaultStereoDelayConfig()
	cfg.Feedback = 0
	cfg.OffsetMs = 0
	cfg.MixDry = 0
	cfg.MixWet = 1
	d, err := NewStereoDelay(cfg)
	if err != nil {
		t.Fatalf("NewStereoDelay() error = %v", err)
	}

	const blockSize = 1000
	if err := d.Prepare(48000, 1, 2, blockSize); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	// 375 ms at 48 kHz is 18000 samples.
	const echoAt = 18000
	in, out := mustBuffers(t, blockSize, 1, 2)
	for start := 0; start < 20000; start += blockSize {
		in.Zero()
		if start == 0 {
			in.SetSample(0, 0, 1)
		}
		d.ProcessInto(in, out)

		for n := 0; n < blockSize; n++ {
			abs := start + n
			want := 0.0
			if abs == echoAt {
				want = 1.0
			}
			got := out.Sample(n, 0)
			if math.Abs(got-want) > 1e-9 {
				t.Fatalf("sample %d: got=%g want=%g", abs, got, want)
			}
		}
	}
}

func TestStereoDelayFeedbackSecondEcho(t *testing.T) {
	cfg := DefaultStereoDelayConfig()
	cfg.MaxDelayMs = 100
	cfg.DelayMs = 10
	cfg.Feedback = 0.5
	cfg.OffsetMs = 0
	cfg.MixDry = 0
	cfg.MixWet = 1
	d, err := NewStereoDelay(cfg)
	if err != nil {
		t.Fatalf("NewStereoDelay() error = %v", err)
	}
	if err := d.Prepare(1000, 1, 1, 64); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	// 10 ms at 1 kHz is 10 samples; echoes at 10 (gain 1) and 20 (gain 0.5).
	in, out := mustBuffers(t, 64, 1, 1)
	in.SetSample(0, 0, 1)
	d.ProcessInto(in, out)

	if got := out.Sample(10, 0); math.Abs(got-1) > 1e-9 {
		t.Fatalf("first echo: got=%g want=1", got)
	}
	if got := out.Sample(20, 0); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("second echo: got=%g want=0.5", got)
	}
}

func TestStereoDelayRightOffset(t *testing.T) {
	cfg := DefaultStereoDelayConfig()
	cfg.MaxDelayMs = 100
	cfg.DelayMs = 10
	cfg.Feedback = 0
	cfg.OffsetMs = 5
	cfg.MixDry = 0
	cfg.MixWet = 1
	d, err := NewStereoDelay(cfg)
	if err != nil {
		t.Fatalf("NewStereoDelay() error = %v", err)
	}
	if err := d.Prepare(1000, 1, 2, 64); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	in, out := mustBuffers(t, 64, 1, 2)
	in.SetSample(0, 0, 1)
	d.ProcessInto(in, out)

	if got := out.Sample(10, 0); math.Abs(got-1) > 1e-9 {
		t.Fatalf("left echo at 10: got=%g", got)
	}
	if got := out.Sample(15, 1); math.Abs(got-1) > 1e-9 {
		t.Fatalf("right echo at 15: got=%g", got)
	}
	if got := out.Sample(10, 1); math.Abs(got) > 1e-9 {
		t.Fatalf("right channel leaked at 10: got=%g", got)
	}
}

func TestStereoDelayZeroInputStaysSilent(t *testing.T) {
	d, err := NewStereoDelay(DefaultStereoDelayConfig())
	if err != nil {
		t.Fatalf("NewStereoDelay() error = %v", err)
	}
	if err := d.Prepare(48000, 2, 2, 256); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	in, out := mustBuffers(t, 256, 2, 2)
	for i := 0; i < 100; i++ {
		d.ProcessInto(in, out)
	}
	testutil.RequireFinite(t, out.Data())
	if got := testutil.MaxAbs(out.Data()); got != 0 {
		t.Fatalf("zero input produced output: max=%g", got)
	}
}

func TestStereoDelayClipsHotMix(t *testing.T) {
	cfg := DefaultStereoDelayConfig()
	cfg.MixDry = 10
	cfg.MixWet = 0
	cfg.Feedback = 0
	d, err := NewStereoDelay(cfg)
	if err != nil {
		t.Fatalf("NewStereoDelay() error = %v", err)
	}
	if err := d.Prepare(48000, 1, 1, 16); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	in, out := mustBuffers(t, 16, 1, 1)
	for n := 0; n < 16; n++ {
		in.SetSample(n, 0, 0.5)
	}
	d.ProcessInto(in, out)
	for n := 0; n < 16; n++ {
		if got := out.Sample(n, 0); got != 1 {
			t.Fatalf("sample %d not clipped: got=%g", n, got)
		}
	}
}

func TestStereoDelaySmoothedDelayChange(t *testing.T) {
	cfg := DefaultStereoDelayConfig()
	cfg.MaxDelayMs = 100
	cfg.DelayMs = 10
	cfg.StepSamples = 2
	d, err := NewStereoDelay(cfg)
	if err != nil {
		t.Fatalf("NewStereoDelay() error = %v", err)
	}
	if err := d.Prepare(1000, 1, 1, 32); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	d.SetDelayMs(50)
	in, out := mustBuffers(t, 32, 1, 1)
	d.ProcessInto(in, out)

	// One block moves the delay by at most stepSamples worth of ms.
	if got := d.delayMs.Current(); math.Abs(got-12) > 1e-9 {
		t.Fatalf("delay after one block: got=%g want=12", got)
	}
}

func BenchmarkStereoDelayProcessInto(b *testing.B) {
	d, err := NewStereoDelay(DefaultStereoDelayConfig())
	if err != nil {
		b.Fatalf("NewStereoDelay() error = %v", err)
	}
	if err := d.Prepare(48000, 2, 2, 256); err != nil {
		b.Fatalf("Prepare() error = %v", err)
	}
	in, _ := block.New(256, 2)
	out, _ := block.New(256, 2)
	sine := testutil.DeterministicSine(440, 48000, 0.5, 512)
	for n := 0; n < 256; n++ {
		in.SetSample(n, 0, sine[n])
		in.SetSample(n, 1, sine[n+256])
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.ProcessInto(in, out)
	}
}
