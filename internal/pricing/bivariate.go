package pricing

import (
	"math"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

// Drezner quadrature weights and abscissae
var (
	dreznerA = [5]float64{0.24840615, 0.39233107, 0.21141819, 0.033246660, 0.00082485334}
	dreznerB = [5]float64{0.10024215, 0.48281397, 1.0609498, 1.7797294, 2.6697604}
)

// BivariateNormalCDF returns P(X <= a, Y <= b) for standard normals with
// correlation rho, using Drezner's approximation. Perfect correlation is
// handled in closed form.
func BivariateNormalCDF(a, b, rho float64) (float64, error) {
	if math.IsNaN(rho) || rho < -1 || rho > 1 {
		return 0, errors.Newf(errors.ErrorTypeInvalidArgument, "correlation %g outside [-1, 1]", rho)
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0, errors.InvalidArgument("bivariate limits must be numbers")
	}

	// infinite limits collapse to the marginal
	switch {
	case math.IsInf(a, -1) || math.IsInf(b, -1):
		return 0, nil
	case math.IsInf(a, 1):
		return normalCDF(b), nil
	case math.IsInf(b, 1):
		return normalCDF(a), nil
	}
	return bivariate(a, b, rho), nil
}

func bivariate(a, b, rho float64) float64 {
	switch {
	case rho >= 1:
		return normalCDF(math.Min(a, b))
	case rho <= -1:
		return math.Max(normalCDF(a)+normalCDF(b)-1, 0)
	case a <= 0 && b <= 0 && rho <= 0:
		return drezner(a, b, rho)
	case a <= 0 && b >= 0 && rho >= 0:
		return normalCDF(a) - bivariate(a, -b, -rho)
	case a >= 0 && b <= 0 && rho >= 0:
		return normalCDF(b) - bivariate(-a, b, -rho)
	case a >= 0 && b >= 0 && rho <= 0:
		return normalCDF(a) + normalCDF(b) - 1 + bivariate(-a, -b, rho)
	}

	// a·b·rho > 0: split into two quadrant problems. The correlations are
	// scale free, so work on the limits scaled to unit size.
	m := math.Max(math.Abs(a), math.Abs(b))
	as, bs := a/m, b/m
	d := math.Sqrt(as*as - 2*rho*as*bs + bs*bs)
	rho1 := (rho*as - bs) * sign(a) / d
	rho2 := (rho*bs - as) * sign(b) / d
	delta := (1 - sign(a)*sign(b)) / 4

	return bivariate(a, 0, rho1) + bivariate(b, 0, rho2) - delta
}

func drezner(a, b, rho float64) float64 {
	scale := math.Sqrt(2 * (1 - rho*rho))
	ad, bd := a/scale, b/scale

	total := 0.0
	for i := range dreznerA {
		for j := range dreznerA {
			total += dreznerA[i] * dreznerA[j] * math.Exp(
				ad*(2*dreznerB[i]-ad)+bd*(2*dreznerB[j]-bd)+2*rho*(dreznerB[i]-ad)*(dreznerB[j]-bd))
		}
	}
	return total * math.Sqrt(1-rho*rho) / math.Pi
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
