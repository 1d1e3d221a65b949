package plane

import (
	"fmt"

	"github.com/tsinghua-fib-lab/opendrive2lanelet/lanelet"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive"
)

// PLaneGroup 参数化车道组：同一车道在一个lane section内全部宽度段的有序集合
// 功能：像单个PLane一样离散化为车道元，并携带邻接关系
// 说明：外侧邻居总是同向；Reverse为真（左侧车道）时输出折线取反使其沿行驶方向
type PLaneGroup struct {
	ID     string // "r.s.l.-1"
	PLanes []*PLane

	InnerNeighbour              string
	InnerNeighbourSameDirection bool
	OuterNeighbour              string

	Reverse bool
}

// Append 追加一个宽度段
func (g *PLaneGroup) Append(p *PLane) {
	g.PLanes = append(g.PLanes, p)
}

// Type 获取车道类型（取首个宽度段）
func (g *PLaneGroup) Type() opendrive.LaneType {
	return g.PLanes[0].Type
}

// Length 获取车道组总弧长
func (g *PLaneGroup) Length() float64 {
	length := 0.0
	for _, p := range g.PLanes {
		length += p.Length
	}
	return length
}

// ConvertToLanelet 将车道组离散化为车道元
// 功能：逐宽度段离散化并拼接（丢弃后继段折线的首个顶点），附加偏移按弧长占比
// 线性分配到各段，最后挂上邻接关系并按需取反
// 参数：precision-离散化步长，ref-合并参考侧，refDistance-附加偏移首末值
// 返回：车道元与错误
func (g *PLaneGroup) ConvertToLanelet(precision float64, ref RefSide, refDistance [2]float64) (*lanelet.Lanelet, error) {
	if len(g.PLanes) == 0 {
		return nil, fmt.Errorf("plane group %s has no planes", g.ID)
	}

	var result *lanelet.Lanelet
	total := g.Length()
	y1 := refDistance[0]
	x := 0.0
	for _, p := range g.PLanes {
		x += p.Length
		y2 := refDistance[0] + (refDistance[1]-refDistance[0])*x/total

		piece, err := p.ConvertToLanelet(precision, ref, [2]float64{y1, y2})
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = piece
			result.ID = g.ID
		} else {
			result = result.Concatenate(piece, g.ID)
		}
		y1 = y2
	}

	if g.InnerNeighbour != "" {
		result.AdjLeft = g.InnerNeighbour
		result.AdjLeftSameDirection = g.InnerNeighbourSameDirection
	}
	if g.OuterNeighbour != "" {
		result.AdjRight = g.OuterNeighbour
		result.AdjRightSameDirection = true
	}

	if g.Reverse {
		result = result.Reversed()
	}
	return result, nil
}
