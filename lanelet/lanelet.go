package lanelet

import (
	"errors"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
)

// ErrConcatenation 相邻折线端点不重合（软错误，默认仅告警）
var ErrConcatenation = errors.New("adjacent polylines do not coincide")

var (
	// concatTolerance 折线拼接端点容差(m)
	concatTolerance = 1e-6
	// concatHook 端点不重合时的回调，测试可替换以断言无违规
	concatHook = func(id string, gap float64) {
		log.Warnf("%v: lanelet %s endpoint gap %v", ErrConcatenation, id, gap)
	}
)

// SetConcatTolerance 设置折线拼接端点容差
func SetConcatTolerance(tolerance float64) {
	concatTolerance = tolerance
}

// SetConcatHook 设置端点不重合的回调
func SetConcatHook(hook func(id string, gap float64)) {
	concatHook = hook
}

// Lanelet 车道元：左/中/右三条等长折线与拓扑连接关系
// 功能：作为转换输出的基本单元，折线方向为行驶方向
// 说明：ID在装配期为"r.s.l.w"字符串，重编号后为十进制整数字符串，
// Description保留重编号前的原始ID
type Lanelet struct {
	ID          string
	Description string

	LeftVertices   []geometry.Point
	CenterVertices []geometry.Point
	RightVertices  []geometry.Point

	Predecessor []string
	Successor   []string

	AdjLeft              string // 空字符串表示无
	AdjLeftSameDirection bool

	AdjRight              string // 空字符串表示无
	AdjRightSameDirection bool

	SpeedLimit float64
}

// New 创建Lanelet
// 功能：根据左右折线创建车道元，中心折线取逐点中点
// 参数：id-车道元ID，left/right-左右边界折线
// 返回：车道元实例
// 说明：左右折线长度不一致时panic
func New(id string, left, right []geometry.Point) *Lanelet {
	if len(left) != len(right) {
		log.Panicf("lanelet %s: left/right vertex count mismatch %d vs %d", id, len(left), len(right))
	}
	center := make([]geometry.Point, len(left))
	for i := range left {
		center[i] = geometry.Blend(left[i], right[i], 0.5)
	}
	return &Lanelet{
		ID:             id,
		LeftVertices:   left,
		CenterVertices: center,
		RightVertices:  right,
		Predecessor:    make([]string, 0),
		Successor:      make([]string, 0),
	}
}

// WidthAtEnd 计算终点处的车道宽度（末个左右顶点的欧氏距离）
func (l *Lanelet) WidthAtEnd() float64 {
	left := l.LeftVertices[len(l.LeftVertices)-1]
	right := l.RightVertices[len(l.RightVertices)-1]
	return distance(left, right)
}

// Concatenate 将另一车道元拼接到本车道元之后
// 功能：丢弃后继折线的首个顶点后逐折线拼接，生成新车道元
// 参数：other-被拼接的后继车道元，newID-结果ID
// 返回：拼接后的新车道元
// 说明：端点间隙超出容差时调用回调并继续（容忍源数据的长度舍入）
func (l *Lanelet) Concatenate(other *Lanelet, newID string) *Lanelet {
	gap := distance(l.CenterVertices[len(l.CenterVertices)-1], other.CenterVertices[0])
	if g := distance(l.LeftVertices[len(l.LeftVertices)-1], other.LeftVertices[0]); g > gap {
		gap = g
	}
	if g := distance(l.RightVertices[len(l.RightVertices)-1], other.RightVertices[0]); g > gap {
		gap = g
	}
	if gap > concatTolerance {
		concatHook(newID, gap)
	}
	combined := New(newID,
		append(append([]geometry.Point{}, l.LeftVertices...), other.LeftVertices[1:]...),
		append(append([]geometry.Point{}, l.RightVertices...), other.RightVertices[1:]...),
	)
	combined.Predecessor = append(combined.Predecessor, l.Predecessor...)
	combined.Successor = append(combined.Successor, other.Successor...)
	return combined
}

// Reversed 生成行驶方向取反的车道元
// 功能：交换左右折线并逆序全部三条折线，邻接关系保持不变
// 说明：左侧车道（正id）的行驶方向与s轴相反，导出前需要取反
func (l *Lanelet) Reversed() *Lanelet {
	reversed := &Lanelet{
		ID:                    l.ID,
		Description:           l.Description,
		LeftVertices:          lo.Reverse(append([]geometry.Point{}, l.RightVertices...)),
		CenterVertices:        lo.Reverse(append([]geometry.Point{}, l.CenterVertices...)),
		RightVertices:         lo.Reverse(append([]geometry.Point{}, l.LeftVertices...)),
		Predecessor:           l.Predecessor,
		Successor:             l.Successor,
		AdjLeft:               l.AdjLeft,
		AdjLeftSameDirection:  l.AdjLeftSameDirection,
		AdjRight:              l.AdjRight,
		AdjRightSameDirection: l.AdjRightSameDirection,
		SpeedLimit:            l.SpeedLimit,
	}
	return reversed
}

// distance 两点的平面欧氏距离
func distance(a, b geometry.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
