package trajectory

import (
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
)

// initialVelocityVar is the prior variance of each velocity component, (20 m/s)^2.
const initialVelocityVar = 400

// Smooth applies a constant-velocity Kalman filter and a Rauch-Tung-Striebel
// backward pass to every gap-free run of points. Timestamps are preserved.
// No step of the output implies a speed above cfg.SpeedLimit.
func Smooth(points []Point, gaps []Gap, cfg Config) []Point {
	out := make([]Point, len(points))
	copy(out, points)

	start := 0
	for _, g := range gaps {
		end := g.After + 1
		if end > start && end <= len(out) {
			smoothRun(out[start:end], cfg)
			start = end
		}
	}
	if start < len(out) {
		smoothRun(out[start:], cfg)
	}
	limitSpeed(out, cfg.SpeedLimit)
	return out
}

// speedMargin keeps clamped steps strictly below the limit.
const speedMargin = 0.999

// limitSpeed pulls each point towards its predecessor when the step between
// them exceeds limit·dt.
func limitSpeed(pts []Point, limit float64) {
	if limit <= 0 {
		return
	}
	for k := 1; k < len(pts); k++ {
		dt := pts[k].Time.Sub(pts[k-1].Time).Seconds()
		if dt <= 0 {
			continue
		}
		d := geo.GeodesicMeters(pts[k-1].Point, pts[k].Point)
		maxStep := limit * dt * speedMargin
		if d > maxStep {
			pts[k].Point = geo.Lerp(pts[k-1].Point, pts[k].Point, maxStep/d)
		}
	}
}

type kalmanStep struct {
	xf, xp *mat.VecDense // filtered, predicted state
	pf, pp *mat.Dense    // filtered, predicted covariance
	f      *mat.Dense    // transition into this step
}

// smoothRun smooths run in place in a local meter frame centred on its first point.
func smoothRun(run []Point, cfg Config) {
	if len(run) < 2 {
		return
	}
	frame := geo.NewFrame(run[0].Point)
	r2 := cfg.MeasurementNoise * cfg.MeasurementNoise
	q := cfg.ProcessNoise

	h := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})
	rm := mat.NewDense(2, 2, []float64{r2, 0, 0, r2})

	steps := make([]kalmanStep, len(run))

	x0, y0 := frame.ToXY(run[0].Point)
	x := mat.NewVecDense(4, []float64{x0, y0, 0, 0})
	p := mat.NewDense(4, 4, []float64{
		r2, 0, 0, 0,
		0, r2, 0, 0,
		0, 0, initialVelocityVar, 0,
		0, 0, 0, initialVelocityVar,
	})
	steps[0] = kalmanStep{xf: x, xp: x, pf: p, pp: p}

	for k := 1; k < len(run); k++ {
		dt := run[k].Time.Sub(run[k-1].Time).Seconds()
		f := transition(dt)

		// Predict: x' = F x, P' = F P F^T + Q
		var xp mat.VecDense
		xp.MulVec(f, steps[k-1].xf)
		var fp, pp mat.Dense
		fp.Mul(f, steps[k-1].pf)
		pp.Mul(&fp, f.T())
		pp.Add(&pp, processNoise(dt, q))

		// Update with the measured position.
		zx, zy := frame.ToXY(run[k].Point)
		z := mat.NewVecDense(2, []float64{zx, zy})
		var hx, innov mat.VecDense
		hx.MulVec(h, &xp)
		innov.SubVec(z, &hx)

		var hp, s mat.Dense
		hp.Mul(h, &pp)
		s.Mul(&hp, h.T())
		s.Add(&s, rm)
		var sInv mat.Dense
		if err := sInv.Inverse(&s); err != nil {
			log.Printf("trajectory: singular innovation covariance, keeping prediction: %v", err)
			steps[k] = kalmanStep{xf: &xp, xp: &xp, pf: &pp, pp: &pp, f: f}
			continue
		}
		var pht, gain mat.Dense
		pht.Mul(&pp, h.T())
		gain.Mul(&pht, &sInv)

		var corr, xf mat.VecDense
		corr.MulVec(&gain, &innov)
		xf.AddVec(&xp, &corr)

		var kh, ikh, pf mat.Dense
		kh.Mul(&gain, h)
		ikh.Sub(identity4(), &kh)
		pf.Mul(&ikh, &pp)

		steps[k] = kalmanStep{xf: &xf, xp: &xp, pf: &pf, pp: &pp, f: f}
	}

	// Backward pass: C = Pf_k F_{k+1}^T Pp_{k+1}^-1, xs_k = xf_k + C (xs_{k+1} - xp_{k+1})
	xs := make([]*mat.VecDense, len(run))
	xs[len(run)-1] = steps[len(run)-1].xf
	for k := len(run) - 2; k >= 0; k-- {
		next := steps[k+1]
		var ppInv mat.Dense
		if err := ppInv.Inverse(next.pp); err != nil {
			xs[k] = steps[k].xf
			continue
		}
		var pft, c mat.Dense
		pft.Mul(steps[k].pf, next.f.T())
		c.Mul(&pft, &ppInv)

		var diff, corr, x mat.VecDense
		diff.SubVec(xs[k+1], next.xp)
		corr.MulVec(&c, &diff)
		x.AddVec(steps[k].xf, &corr)
		xs[k] = &x
	}

	for k := range run {
		run[k].Point = frame.FromXY(xs[k].AtVec(0), xs[k].AtVec(1))
	}
}

func transition(dt float64) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// processNoise is the discrete white-acceleration noise for spectral density q.
func processNoise(dt, q float64) *mat.Dense {
	dt2 := dt * dt
	dt3 := dt2 * dt
	a, b, c := q*dt3/3, q*dt2/2, q*dt
	return mat.NewDense(4, 4, []float64{
		a, 0, b, 0,
		0, a, 0, b,
		b, 0, c, 0,
		0, b, 0, c,
	})
}

func identity4() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}
