package planview

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
)

// PlanView 道路参考线：有序几何段的拼接，按全局弧长取值
// 功能：将道路的全局弧长坐标s映射到平面位置与切向角
type PlanView struct {
	geometries []Geometry
}

// NewPlanView 创建空参考线
func NewPlanView() *PlanView {
	return &PlanView{geometries: make([]Geometry, 0)}
}

// AddLine 追加直线段
func (p *PlanView) AddLine(start geometry.Point, heading, length float64) {
	p.geometries = append(p.geometries, NewLine(start, heading, length))
}

// AddSpiral 追加欧拉螺线段
func (p *PlanView) AddSpiral(start geometry.Point, heading, length, curvStart, curvEnd float64) {
	p.geometries = append(p.geometries, NewSpiral(start, heading, length, curvStart, curvEnd))
}

// AddArc 追加圆弧段
func (p *PlanView) AddArc(start geometry.Point, heading, length, curvature float64) {
	p.geometries = append(p.geometries, NewArc(start, heading, length, curvature))
}

// AddParamPoly3 追加参数三次多项式段
func (p *PlanView) AddParamPoly3(start geometry.Point, heading, length float64, coeffsU, coeffsV [4]float64, pRange float64) {
	p.geometries = append(p.geometries, NewParamPoly3(start, heading, length, coeffsU, coeffsV, pRange))
}

// Geometries 获取全部几何段
func (p *PlanView) Geometries() []Geometry {
	return p.geometries
}

// Length 获取参考线总弧长
func (p *PlanView) Length() float64 {
	length := 0.0
	for _, g := range p.geometries {
		length += g.Length()
	}
	return length
}

// Calc 计算全局弧长sPos处的位置与切向角
// 功能：选出首个累计长度≥sPos的几何段（带浮点容差），扣除之前的累计长度后委托该段计算
// 参数：sPos-全局弧长
// 返回：位置、切向角与错误
// 说明：超出总长时钳制到末段终点而不报错，下游边界因长度舍入可能略微越界
func (p *PlanView) Calc(sPos float64) (geometry.Point, float64, error) {
	if len(p.geometries) == 0 {
		return geometry.Point{}, 0, fmt.Errorf("%w: empty plan view", ErrGeometry)
	}
	remaining := sPos
	for _, g := range p.geometries {
		if l := g.Length(); l < remaining && !isClose(l, remaining) {
			remaining -= l
			continue
		}
		pos, tangent := g.CalcPosition(remaining)
		return pos, tangent, nil
	}
	log.Debugf("plan view calc with s %v beyond total length %v, clamped to end", sPos, p.Length())
	last := p.geometries[len(p.geometries)-1]
	pos, tangent := last.CalcPosition(last.Length())
	return pos, tangent, nil
}

// isClose 浮点相近判断（相对1e-5，绝对1e-8）
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}
