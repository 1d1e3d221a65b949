package plane

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/lanelet"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive"
)

// RefSide 车道末端合并时的参考侧
type RefSide string

const (
	RefNone  RefSide = ""      // 不做附加偏移
	RefLeft  RefSide = "left"  // 以左边界为基准，附加偏移作用于外（右）边界
	RefRight RefSide = "right" // 以右边界为基准，附加偏移作用于内（左）边界
)

// PLane 参数化车道：一条车道在一个lane section内的单个宽度段
// 功能：以内外两条边界线描述一个宽度段，可离散化为车道元
// 说明：构造完成后不可变
type PLane struct {
	ID     string // "r.s.l.w"
	Type   opendrive.LaneType
	Length float64 // 宽度段沿s的弧长

	InnerBorder       *Border
	InnerBorderOffset float64 // 采样内边界前加到s上的偏移
	OuterBorder       *Border
	OuterBorderOffset float64 // 采样外边界前加到s上的偏移

	IsNotExistent bool // 宽度多项式恒为0
}

// CalcInnerBorder 采样内边界
// 参数：sPos-段内弧长，addOffset-附加横向距离
func (p *PLane) CalcInnerBorder(sPos, addOffset float64) (geometry.Point, float64, error) {
	return p.InnerBorder.CalcWithOffset(p.InnerBorderOffset+sPos, addOffset)
}

// CalcOuterBorder 采样外边界
// 参数：sPos-段内弧长，addOffset-附加横向距离
func (p *PLane) CalcOuterBorder(sPos, addOffset float64) (geometry.Point, float64, error) {
	return p.OuterBorder.CalcWithOffset(p.OuterBorderOffset+sPos, addOffset)
}

// CalcWidth 计算段内弧长sPos处的车道宽度
func (p *PLane) CalcWidth(sPos float64) (float64, error) {
	inner, _, err := p.CalcInnerBorder(sPos, 0)
	if err != nil {
		return 0, err
	}
	outer, _, err := p.CalcOuterBorder(sPos, 0)
	if err != nil {
		return 0, err
	}
	return math.Hypot(inner.X-outer.X, inner.Y-outer.Y), nil
}

// ConvertToLanelet 将宽度段离散化为车道元
// 功能：在[0,length]上等距采样内外边界，中心折线取逐点中点
// 参数：precision-离散化步长，ref-合并参考侧，refDistance-附加偏移的首末值
// 返回：车道元与错误
// 算法说明：
// 1. 采样点数nSteps=max(2, ceil(length/precision))，首末端点均包含
// 2. ref为left时外边界附加偏移d(s)=d0+(d1-d0)*s/length，为right时作用于内边界
// 3. 车道末端合并（见网络导出）即通过该附加偏移实现
func (p *PLane) ConvertToLanelet(precision float64, ref RefSide, refDistance [2]float64) (*lanelet.Lanelet, error) {
	nSteps := int(math.Ceil(p.Length / precision))
	if nSteps < 2 {
		nSteps = 2
	}

	left := make([]geometry.Point, 0, nSteps)
	right := make([]geometry.Point, 0, nSteps)
	for i := 0; i < nSteps; i++ {
		s := p.Length * float64(i) / float64(nSteps-1)

		innerAdd, outerAdd := 0.0, 0.0
		if ref != RefNone {
			d := refDistance[0] + (refDistance[1]-refDistance[0])*s/p.Length
			if ref == RefLeft {
				outerAdd = d
			} else {
				innerAdd = d
			}
		}

		innerPos, _, err := p.CalcInnerBorder(s, innerAdd)
		if err != nil {
			return nil, err
		}
		outerPos, _, err := p.CalcOuterBorder(s, outerAdd)
		if err != nil {
			return nil, err
		}
		left = append(left, innerPos)
		right = append(right, outerPos)
	}

	return lanelet.New(p.ID, left, right), nil
}
