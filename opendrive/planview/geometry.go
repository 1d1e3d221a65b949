package planview

import (
	"errors"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
)

// ErrGeometry 不支持的几何段或非法几何参数
var ErrGeometry = errors.New("unsupported or invalid geometry")

// Geometry 参考线几何段
// 功能：描述参考线上的一段解析曲线，段内弧长从0起算
type Geometry interface {
	StartPosition() geometry.Point // 获取段起点坐标
	StartHeading() float64         // 获取段起点航向
	Length() float64               // 获取段弧长
	// CalcPosition 计算段内弧长s处的位置与切向角
	CalcPosition(s float64) (geometry.Point, float64)
}

// Line 直线段
type Line struct {
	start   geometry.Point
	heading float64
	length  float64
}

// NewLine 创建直线段
func NewLine(start geometry.Point, heading, length float64) *Line {
	return &Line{start: start, heading: heading, length: length}
}

// 获取段起点坐标
func (g *Line) StartPosition() geometry.Point {
	return g.start
}

// 获取段起点航向
func (g *Line) StartHeading() float64 {
	return g.heading
}

// 获取段弧长
func (g *Line) Length() float64 {
	return g.length
}

// CalcPosition 计算直线段内弧长s处的位置与切向角
func (g *Line) CalcPosition(s float64) (geometry.Point, float64) {
	return geometry.Point{
		X: g.start.X + s*math.Cos(g.heading),
		Y: g.start.Y + s*math.Sin(g.heading),
	}, g.heading
}

// Arc 圆弧段（曲率恒定且非0）
type Arc struct {
	start     geometry.Point
	heading   float64
	length    float64
	curvature float64
}

// NewArc 创建圆弧段
func NewArc(start geometry.Point, heading, length, curvature float64) *Arc {
	return &Arc{start: start, heading: heading, length: length, curvature: curvature}
}

// 获取段起点坐标
func (g *Arc) StartPosition() geometry.Point {
	return g.start
}

// 获取段起点航向
func (g *Arc) StartHeading() float64 {
	return g.heading
}

// 获取段弧长
func (g *Arc) Length() float64 {
	return g.length
}

// CalcPosition 计算圆弧段内弧长s处的位置与切向角
// 算法说明：按弦长a与弦向角alpha参数化，切向角为heading+s*curvature
func (g *Arc) CalcPosition(s float64) (geometry.Point, float64) {
	c := g.curvature
	hdg := g.heading - math.Pi/2

	a := 2 / c * math.Sin(s*c/2)
	alpha := (math.Pi-s*c)/2 - hdg

	return geometry.Point{
		X: g.start.X - a*math.Cos(alpha),
		Y: g.start.Y + a*math.Sin(alpha),
	}, g.heading + s*g.curvature
}

// Spiral 欧拉螺线段，曲率从curvStart线性变化到curvEnd
type Spiral struct {
	start     geometry.Point
	heading   float64
	length    float64
	curvStart float64
	curvEnd   float64

	spiral *EulerSpiral
}

// NewSpiral 创建欧拉螺线段
func NewSpiral(start geometry.Point, heading, length, curvStart, curvEnd float64) *Spiral {
	return &Spiral{
		start:     start,
		heading:   heading,
		length:    length,
		curvStart: curvStart,
		curvEnd:   curvEnd,
		spiral:    NewEulerSpiralFromLengthAndCurvature(length, curvStart, curvEnd),
	}
}

// 获取段起点坐标
func (g *Spiral) StartPosition() geometry.Point {
	return g.start
}

// 获取段起点航向
func (g *Spiral) StartHeading() float64 {
	return g.heading
}

// 获取段弧长
func (g *Spiral) Length() float64 {
	return g.length
}

// CalcPosition 计算螺线段内弧长s处的位置与切向角
func (g *Spiral) CalcPosition(s float64) (geometry.Point, float64) {
	x, y, theta := g.spiral.Calc(s, g.start.X, g.start.Y, g.curvStart, g.heading)
	return geometry.Point{X: x, Y: y}, theta
}

// ParamPoly3 参数三次多项式段
// 说明：局部坐标(u,v)由归一化参数p的两条三次多项式给出，再按起点航向旋转平移
type ParamPoly3 struct {
	start   geometry.Point
	heading float64
	length  float64

	coeffsU [4]float64
	coeffsV [4]float64
	pRange  float64
}

// NewParamPoly3 创建参数三次多项式段
// 参数：coeffsU/coeffsV-升幂系数(a,b,c,d)，pRange-参数上界（0表示默认1.0）
func NewParamPoly3(start geometry.Point, heading, length float64, coeffsU, coeffsV [4]float64, pRange float64) *ParamPoly3 {
	if pRange == 0 {
		pRange = 1.0
	}
	return &ParamPoly3{
		start:   start,
		heading: heading,
		length:  length,
		coeffsU: coeffsU,
		coeffsV: coeffsV,
		pRange:  pRange,
	}
}

// 获取段起点坐标
func (g *ParamPoly3) StartPosition() geometry.Point {
	return g.start
}

// 获取段起点航向
func (g *ParamPoly3) StartHeading() float64 {
	return g.heading
}

// 获取段弧长
func (g *ParamPoly3) Length() float64 {
	return g.length
}

// CalcPosition 计算段内弧长s处的位置与切向角
// 算法说明：
// 1. p=(s/length)*pRange
// 2. 局部坐标(u,v)=(polyU(p), polyV(p))，按heading旋转后平移到起点
// 3. 切向角为heading+atan2(dv/dp, du/dp)
func (g *ParamPoly3) CalcPosition(s float64) (geometry.Point, float64) {
	p := s / g.length * g.pRange

	u := polyval4(p, g.coeffsU)
	v := polyval4(p, g.coeffsV)

	sinH, cosH := math.Sincos(g.heading)
	pos := geometry.Point{
		X: g.start.X + u*cosH - v*sinH,
		Y: g.start.Y + u*sinH + v*cosH,
	}

	du := g.coeffsU[1] + 2*g.coeffsU[2]*p + 3*g.coeffsU[3]*p*p
	dv := g.coeffsV[1] + 2*g.coeffsV[2]*p + 3*g.coeffsV[3]*p*p
	return pos, g.heading + math.Atan2(dv, du)
}

// polyval4 计算升幂三次多项式在x处的值
func polyval4(x float64, coeffs [4]float64) float64 {
	return coeffs[0] + x*(coeffs[1]+x*(coeffs[2]+x*coeffs[3]))
}
