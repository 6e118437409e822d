package core

import (
	"math"
)

var (
	logTwoPi = math.Log(2 * math.Pi)
	logTen   = math.Log(10)
)

// LogDensity computes the log of the noise distribution's density at
// the measured value, given the simulated value and the noise scale
// parameter.
//
// The log-scale variants are the lin-scale densities applied to
// log-transformed values, with the change-of-variables factor in m.
// All forms match the PEtab reference formulas:
//
//	normal:        -0.5*ln(2*pi*sigma^2)                 - 0.5*((s-m)/sigma)^2
//	log-normal:    -0.5*ln(2*pi*sigma^2*m^2)             - 0.5*((ln s - ln m)/sigma)^2
//	log10-normal:  -0.5*ln(2*pi*sigma^2*m^2*ln(10)^2)    - 0.5*((log10 s - log10 m)/sigma)^2
//	laplace:       -ln(2*sigma)                          - |(s-m)/sigma|
//	log-laplace:   -ln(2*sigma*m)                        - |(ln s - ln m)/sigma|
//	log10-laplace: -ln(2*sigma*m*ln(10))                 - |(log10 s - log10 m)/sigma|
//
// The empty distribution tag means normal.
func LogDensity(d NoiseDistribution, measured, simulated, sigma float64) (float64, error) {
	if !(sigma > 0) {
		return 0, &NoiseDomain{Distribution: d, What: "scale parameter must be positive"}
	}

	m, s := measured, simulated

	switch d {
	case "", NoiseNormal:
		r := (s - m) / sigma
		return -0.5*(logTwoPi+2*math.Log(sigma)) - 0.5*r*r, nil

	case NoiseLogNormal:
		if err := positive(d, m, s); err != nil {
			return 0, err
		}
		r := (math.Log(s) - math.Log(m)) / sigma
		return -0.5*(logTwoPi+2*math.Log(sigma)+2*math.Log(m)) - 0.5*r*r, nil

	case NoiseLog10Normal:
		if err := positive(d, m, s); err != nil {
			return 0, err
		}
		r := (math.Log10(s) - math.Log10(m)) / sigma
		return -0.5*(logTwoPi+2*math.Log(sigma)+2*math.Log(m)+2*math.Log(logTen)) - 0.5*r*r, nil

	case NoiseLaplace:
		return -math.Log(2*sigma) - math.Abs((s-m)/sigma), nil

	case NoiseLogLaplace:
		if err := positive(d, m, s); err != nil {
			return 0, err
		}
		return -math.Log(2*sigma*m) - math.Abs((math.Log(s)-math.Log(m))/sigma), nil

	case NoiseLog10Laplace:
		if err := positive(d, m, s); err != nil {
			return 0, err
		}
		return -math.Log(2*sigma*m*logTen) - math.Abs((math.Log10(s)-math.Log10(m))/sigma), nil
	}

	return 0, &NoiseDomain{Distribution: d, What: "unknown distribution"}
}

func positive(d NoiseDistribution, m, s float64) error {
	if !(m > 0) {
		return &NoiseDomain{Distribution: d, What: "measurement must be positive on a log scale"}
	}
	if !(s > 0) {
		return &NoiseDomain{Distribution: d, What: "simulated value must be positive on a log scale"}
	}
	return nil
}

// PriorLogDensity computes the log-density of a parameter prior at
// x, truncated to [lo, hi]: outside the bounds the density is zero
// (log-density -inf); inside, the untruncated log-density is used
// (the objective is unnormalized).
func PriorLogDensity(pr *Prior, x, lo, hi float64) (float64, error) {
	if pr == nil {
		return 0, nil
	}
	if x < lo || x > hi {
		return math.Inf(-1), nil
	}

	ps := pr.Parameters

	switch pr.Distribution {
	case PriorUniform, "":
		return -math.Log(hi - lo), nil

	case PriorNormal:
		if len(ps) != 2 {
			return 0, &BadParameter{What: "normal prior needs 2 parameters"}
		}
		return LogDensity(NoiseNormal, x, ps[0], ps[1])

	case PriorLaplace:
		if len(ps) != 2 {
			return 0, &BadParameter{What: "laplace prior needs 2 parameters"}
		}
		return LogDensity(NoiseLaplace, x, ps[0], ps[1])

	case PriorLogNormal:
		if len(ps) != 2 {
			return 0, &BadParameter{What: "logNormal prior needs 2 parameters"}
		}
		if !(x > 0) {
			return math.Inf(-1), nil
		}
		// Density of ln(x) ~ Normal(mu, sigma), with the 1/x
		// change-of-variables factor.
		sigma := ps[1]
		if !(sigma > 0) {
			return 0, &BadParameter{What: "logNormal prior scale must be positive"}
		}
		r := (math.Log(x) - ps[0]) / sigma
		return -0.5*(logTwoPi+2*math.Log(sigma)) - math.Log(x) - 0.5*r*r, nil

	case PriorLogLaplace:
		if len(ps) != 2 {
			return 0, &BadParameter{What: "logLaplace prior needs 2 parameters"}
		}
		if !(x > 0) {
			return math.Inf(-1), nil
		}
		sigma := ps[1]
		if !(sigma > 0) {
			return 0, &BadParameter{What: "logLaplace prior scale must be positive"}
		}
		return -math.Log(2*sigma) - math.Log(x) - math.Abs((math.Log(x)-ps[0])/sigma), nil
	}

	return 0, &BadParameter{What: "unknown prior distribution " + string(pr.Distribution)}
}
