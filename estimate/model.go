// Package estimate is a trimmed least-squares cost estimator for O3
// partition merges: row count in, merge wall-clock time out.
//
// Nothing in the mandatory merge path (package o3) depends on this
// package's output — it is wired in purely as an optional
// OnPartitionComplete hook for logging/backpressure
// decisions a higher layer might make.
package estimate

import (
	"fmt"
	"math"
)

// ModelType names which curve a MergeCostModel fit against its observations.
type ModelType int

const (
	// ModelLinear fits cost = a + b*rows.
	ModelLinear ModelType = iota
	// ModelPower fits cost = a*rows^b, via least squares on log-transformed data.
	ModelPower
)

func (t ModelType) String() string {
	if t == ModelPower {
		return "power"
	}

	return "linear"
}

// Fit is one fitted curve: its type, coefficients, and goodness-of-fit
// statistics.
type Fit struct {
	Type         ModelType
	Coefficients [2]float64 // [a, b]
	RSquared     float64
	RMSE         float64
}

func (f *Fit) String() string {
	return fmt.Sprintf("Fit{%s a=%.4g b=%.4g R²=%.4f RMSE=%.4g}", f.Type, f.Coefficients[0], f.Coefficients[1], f.RSquared, f.RMSE)
}

// estimateSeconds evaluates the fitted curve at x.
func (f *Fit) estimateSeconds(x float64) float64 {
	a, b := f.Coefficients[0], f.Coefficients[1]

	switch f.Type {
	case ModelPower:
		if x <= 0 {
			return 0
		}

		return a * math.Pow(x, b)
	default:
		return a + b*x
	}
}

// fitLinear performs simple linear least squares: y = a + b*x.
func fitLinear(x, y []float64) *Fit {
	n := float64(len(x))

	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	meanX := sumX / n
	meanY := sumY / n

	denom := sumX2 - n*meanX*meanX
	var b float64
	if denom != 0 {
		b = (sumXY - n*meanX*meanY) / denom
	}
	a := meanY - b*meanX

	predicted := make([]float64, len(x))
	for i := range x {
		predicted[i] = a + b*x[i]
	}

	r2, rmse := goodnessOfFit(y, predicted)

	return &Fit{Type: ModelLinear, Coefficients: [2]float64{a, b}, RSquared: r2, RMSE: rmse}
}

// fitPower performs least squares on the log-log transform: ln(y) = ln(a) +
// b*ln(x). Observations with non-positive rows or elapsed time are skipped
// since log is undefined there.
func fitPower(x, y []float64) *Fit {
	var lx, ly []float64
	for i := range x {
		if x[i] > 0 && y[i] > 0 {
			lx = append(lx, math.Log(x[i]))
			ly = append(ly, math.Log(y[i]))
		}
	}

	if len(lx) < 2 {
		return &Fit{Type: ModelPower}
	}

	n := float64(len(lx))

	var sumX, sumY, sumXY, sumX2 float64
	for i := range lx {
		sumX += lx[i]
		sumY += ly[i]
		sumXY += lx[i] * ly[i]
		sumX2 += lx[i] * lx[i]
	}

	meanX := sumX / n
	meanY := sumY / n

	denom := sumX2 - n*meanX*meanX
	var b float64
	if denom != 0 {
		b = (sumXY - n*meanX*meanY) / denom
	}
	logA := meanY - b*meanX
	a := math.Exp(logA)

	predicted := make([]float64, len(x))
	for i := range x {
		predicted[i] = a * math.Pow(x[i], b)
	}

	r2, rmse := goodnessOfFit(y, predicted)

	return &Fit{Type: ModelPower, Coefficients: [2]float64{a, b}, RSquared: r2, RMSE: rmse}
}

// goodnessOfFit computes R² and RMSE in one pass.
func goodnessOfFit(observed, predicted []float64) (r2, rmse float64) {
	n := len(observed)
	if n == 0 {
		return 0, 0
	}

	var meanY float64
	for _, v := range observed {
		meanY += v
	}
	meanY /= float64(n)

	var ssTot, ssRes float64
	for i := range observed {
		ssTot += (observed[i] - meanY) * (observed[i] - meanY)
		diff := observed[i] - predicted[i]
		ssRes += diff * diff
	}

	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	rmse = math.Sqrt(ssRes / float64(n))

	return r2, rmse
}
