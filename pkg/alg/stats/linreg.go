package stats

import "math"

// Regression holds the result of an ordinary least-squares fit of y against x.
type Regression struct {
	// Slope is the fitted line slope in y-units per x-unit.
	Slope float64

	// Intercept is the fitted value of y at x = 0.
	Intercept float64

	// R is the Pearson correlation coefficient.
	R float64

	// PValue is the two-sided p-value for the null hypothesis "slope = 0",
	// computed from the Student-t distribution with n−2 degrees of freedom.
	PValue float64
}

// RSquared returns the coefficient of determination.
func (r Regression) RSquared() float64 {
	return r.R * r.R
}

// minRegressionSamples is the smallest sample count for which a p-value
// is defined (the t statistic has n−2 degrees of freedom).
const minRegressionSamples = 3

// Linregress fits y against x by ordinary least squares.
//
// Degenerate inputs never fault: with fewer than three samples, or with zero
// variance in x or y, the correlation is 0 and the p-value is 1, and for a
// zero-variance x the slope is 0 with intercept mean(y).
func Linregress(x, y []float64) Regression {
	n := len(x)
	if n != len(y) || n == 0 {
		return Regression{PValue: 1}
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var ssX, ssY, ssXY float64

	for i := range n {
		dx := x[i] - meanX
		dy := y[i] - meanY
		ssX += dx * dx
		ssY += dy * dy
		ssXY += dx * dy
	}

	if ssX == 0 {
		return Regression{Intercept: meanY, PValue: 1}
	}

	slope := ssXY / ssX
	intercept := meanY - slope*meanX

	if ssY == 0 || n < minRegressionSamples {
		return Regression{Slope: slope, Intercept: intercept, PValue: 1}
	}

	r := ssXY / math.Sqrt(ssX*ssY)
	r = Clamp(r, -1, 1)

	df := float64(n - minRegressionSamples + 1)

	pValue := 1.0

	if r2 := r * r; r2 < 1 {
		t := r * math.Sqrt(df/(1-r2))
		pValue = 2 * studentTSurvival(math.Abs(t), df)
	} else {
		pValue = 0
	}

	return Regression{
		Slope:     slope,
		Intercept: intercept,
		R:         r,
		PValue:    Clamp(pValue, 0, 1),
	}
}

// studentTSurvival returns P(T > t) for a Student-t variable with df degrees
// of freedom, t ≥ 0. Uses the identity SF(t) = I_{df/(df+t²)}(df/2, 1/2) / 2.
func studentTSurvival(t, df float64) float64 {
	if math.IsInf(t, 1) {
		return 0
	}

	x := df / (df + t*t)

	return regularizedIncompleteBeta(df/2, 0.5, x) / 2
}

// Continued-fraction evaluation limits for the incomplete beta function.
const (
	betaMaxIterations = 300
	betaEpsilon       = 1e-14
	betaTiny          = 1e-30
)

// regularizedIncompleteBeta computes I_x(a, b) via the Lentz continued
// fraction, using the symmetry relation to keep the fraction convergent.
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}

	if x >= 1 {
		return 1
	}

	// Prefactor x^a (1-x)^b / (a B(a,b)) in log space.
	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(lgAB - lgA - lgB + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}

	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

func betaContinuedFraction(a, b, x float64) float64 {
	c := 1.0
	d := 1 - (a+b)*x/(a+1)

	if math.Abs(d) < betaTiny {
		d = betaTiny
	}

	d = 1 / d
	result := d

	for m := 1; m <= betaMaxIterations; m++ {
		fm := float64(m)

		// Even step.
		num := fm * (b - fm) * x / ((a + 2*fm - 1) * (a + 2*fm))
		d = 1 + num*d

		if math.Abs(d) < betaTiny {
			d = betaTiny
		}

		c = 1 + num/c

		if math.Abs(c) < betaTiny {
			c = betaTiny
		}

		d = 1 / d
		result *= d * c

		// Odd step.
		num = -(a + fm) * (a + b + fm) * x / ((a + 2*fm) * (a + 2*fm + 1))
		d = 1 + num*d

		if math.Abs(d) < betaTiny {
			d = betaTiny
		}

		c = 1 + num/c

		if math.Abs(c) < betaTiny {
			c = betaTiny
		}

		d = 1 / d
		delta := d * c
		result *= delta

		if math.Abs(delta-1) < betaEpsilon {
			break
		}
	}

	return result
}
