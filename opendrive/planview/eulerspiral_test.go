package planview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFresnelKnownValues(t *testing.T) {
	cases := []struct {
		x, s, c float64
	}{
		{0, 0, 0},
		{0.5, 0.06473243285999929, 0.4923442258714463},
		{1.0, 0.4382591473903548, 0.7798934003768228},
		{2.0, 0.3434156783636982, 0.4882534060753408},
		{5.0, 0.4991913819171169, 0.5636311887040122},
	}
	for _, c := range cases {
		s, cc := fresnel(c.x)
		assert.InDelta(t, c.s, s, 1e-6, "S(%v)", c.x)
		assert.InDelta(t, c.c, cc, 1e-6, "C(%v)", c.x)
	}
	// test: 奇函数
	s, c := fresnel(-1.0)
	assert.InDelta(t, -0.4382591473903548, s, 1e-6)
	assert.InDelta(t, -0.7798934003768228, c, 1e-6)
}

func TestEulerSpiralDegenerateLine(t *testing.T) {
	spiral := NewEulerSpiralFromLengthAndCurvature(100, 0, 0)
	for _, s := range []float64{0, 1, 37.5, 100} {
		x, y, theta := spiral.Calc(s, 0, 0, 0, 0)
		assert.InDelta(t, s, x, 1e-9)
		assert.InDelta(t, 0, y, 1e-9)
		assert.InDelta(t, 0, theta, 1e-12)
	}
	// test: 非零起点与航向
	x, y, theta := spiral.Calc(10, 1, 2, 0, math.Pi/2)
	assert.InDelta(t, 1, x, 1e-9)
	assert.InDelta(t, 12, y, 1e-9)
	assert.InDelta(t, math.Pi/2, theta, 1e-12)
}

func TestEulerSpiralDegenerateArc(t *testing.T) {
	const curvature = 0.01
	spiral := NewEulerSpiralFromLengthAndCurvature(100, curvature, curvature)
	for _, s := range []float64{0, 10, 50, 100} {
		x, y, theta := spiral.Calc(s, 0, 0, curvature, 0)
		assert.InDelta(t, math.Sin(curvature*s)/curvature, x, 1e-9)
		assert.InDelta(t, (1-math.Cos(curvature*s))/curvature, y, 1e-9)
		assert.InDelta(t, curvature*s, theta, 1e-12)
	}
}

// quadraturePosition 用复化Simpson积分独立计算螺线位置，作为对照
func quadraturePosition(s, x0, y0, kappa0, theta0, gamma float64) (float64, float64) {
	const n = 20000
	h := s / n
	heading := func(t float64) float64 {
		return theta0 + kappa0*t + gamma*t*t/2
	}
	x, y := 0.0, 0.0
	for i := 0; i < n; i++ {
		a := float64(i) * h
		m := a + h/2
		b := a + h
		x += h / 6 * (math.Cos(heading(a)) + 4*math.Cos(heading(m)) + math.Cos(heading(b)))
		y += h / 6 * (math.Sin(heading(a)) + 4*math.Sin(heading(m)) + math.Sin(heading(b)))
	}
	return x0 + x, y0 + y
}

func TestEulerSpiralAgainstQuadrature(t *testing.T) {
	cases := []struct {
		length, curvStart, curvEnd, x0, y0, theta0 float64
	}{
		{100, 0, 0.02, 0, 0, 0},
		{200, 0.01, -0.01, 5, -3, math.Pi / 6},
		{1000, -0.05, 0.5, 0, 0, 1.0},
		{30, 0.1, 0.4, -10, 20, -math.Pi / 2},
	}
	for _, c := range cases {
		spiral := NewEulerSpiralFromLengthAndCurvature(c.length, c.curvStart, c.curvEnd)
		gamma := (c.curvEnd - c.curvStart) / c.length
		for _, frac := range []float64{0.25, 0.5, 1.0} {
			s := c.length * frac
			x, y, theta := spiral.Calc(s, c.x0, c.y0, c.curvStart, c.theta0)
			wantX, wantY := quadraturePosition(s, c.x0, c.y0, c.curvStart, c.theta0, gamma)
			assert.InDelta(t, wantX, x, 1e-6, "x at s=%v of %+v", s, c)
			assert.InDelta(t, wantY, y, 1e-6, "y at s=%v of %+v", s, c)
			assert.InDelta(t, c.theta0+c.curvStart*s+gamma*s*s/2, theta, 1e-9)
		}
	}
}
