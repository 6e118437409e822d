package core

import (
	"math"
	"testing"
)

func TestLogDensityNormalAtMean(t *testing.T) {
	// sigma == 1 and simulated == measured leaves only the
	// normalization constant.
	got, err := LogDensity(NoiseNormal, 7.9, 7.9, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := -0.5 * math.Log(2*math.Pi)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v, wanted %v", got, want)
	}
}

func TestLogDensityNormal(t *testing.T) {
	// -log(sqrt(2*pi)*sigma) - (m-s)^2/(2*sigma^2)
	m, s, sigma := 7.9, 10.0, 5.0
	got, err := LogDensity(NoiseNormal, m, s, sigma)
	if err != nil {
		t.Fatal(err)
	}
	want := -math.Log(math.Sqrt(2*math.Pi)*sigma) - (m-s)*(m-s)/(2*sigma*sigma)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v, wanted %v", got, want)
	}
}

func TestLogDensityLogVariants(t *testing.T) {
	m, s, sigma := 2.0, 3.0, 0.5

	got, err := LogDensity(NoiseLogNormal, m, s, sigma)
	if err != nil {
		t.Fatal(err)
	}
	r := (math.Log(s) - math.Log(m)) / sigma
	want := -0.5*math.Log(2*math.Pi*sigma*sigma*m*m) - 0.5*r*r
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("log-normal: got %v, wanted %v", got, want)
	}

	got, err = LogDensity(NoiseLog10Laplace, m, s, sigma)
	if err != nil {
		t.Fatal(err)
	}
	want = -math.Log(2*sigma*m*math.Log(10)) - math.Abs((math.Log10(s)-math.Log10(m))/sigma)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("log10-laplace: got %v, wanted %v", got, want)
	}

	got, err = LogDensity(NoiseLaplace, m, s, sigma)
	if err != nil {
		t.Fatal(err)
	}
	want = -math.Log(2*sigma) - math.Abs((s-m)/sigma)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("laplace: got %v, wanted %v", got, want)
	}
}

func TestLogDensityDomain(t *testing.T) {
	if _, err := LogDensity(NoiseNormal, 1, 1, 0); err == nil {
		t.Fatal("zero sigma should have failed")
	} else if _, is := err.(*NoiseDomain); !is {
		t.Fatalf("wanted NoiseDomain, got %T", err)
	}

	if _, err := LogDensity(NoiseNormal, 1, 1, -1); err == nil {
		t.Fatal("negative sigma should have failed")
	}

	if _, err := LogDensity(NoiseLogNormal, -1, 1, 1); err == nil {
		t.Fatal("log-normal with negative measurement should have failed")
	}

	if _, err := LogDensity(NoiseLogLaplace, 1, 0, 1); err == nil {
		t.Fatal("log-laplace with zero simulated value should have failed")
	}
}

func TestPriorLogDensity(t *testing.T) {
	// Uniform on [0, 10].
	ld, err := PriorLogDensity(&Prior{Distribution: PriorUniform}, 5, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ld-(-math.Log(10))) > 1e-12 {
		t.Fatalf("got %v", ld)
	}

	// Outside the bounds the truncated density is zero.
	ld, err = PriorLogDensity(&Prior{Distribution: PriorNormal, Parameters: []float64{0, 1}}, 11, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(ld, -1) {
		t.Fatalf("got %v, wanted -inf", ld)
	}

	// Normal prior inside the bounds is the plain normal
	// log-density.
	ld, err = PriorLogDensity(&Prior{Distribution: PriorNormal, Parameters: []float64{5, 2}}, 5, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := -math.Log(math.Sqrt(2*math.Pi) * 2)
	if math.Abs(ld-want) > 1e-12 {
		t.Fatalf("got %v, wanted %v", ld, want)
	}

	// nil prior contributes nothing.
	if ld, _ = PriorLogDensity(nil, 5, 0, 10); ld != 0 {
		t.Fatalf("got %v", ld)
	}
}
