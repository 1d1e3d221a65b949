package plane

import (
	"errors"
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/utils"
)

// ErrBorder 边界线定义错误：系数表为空或参考链非法
var ErrBorder = errors.New("invalid border definition")

// Reference 边界线的参考对象
// 说明：参考链由Border逐级委托，最终必须落在参考线（PlanView）上
type Reference interface {
	// Calc 计算弧长s处的位置与切向角
	Calc(s float64) (geometry.Point, float64, error)
}

// borderKey 采样缓存键
type borderKey struct {
	s         float64
	addOffset float64
}

// borderResult 采样缓存值
type borderResult struct {
	pos     geometry.Point
	tangent float64
}

// Border 车道边界线
// 功能：在参考对象（参考线或另一条边界线）之上叠加分段多项式横向偏移
// 说明：采样纯函数，按(s, 附加偏移)做进程内缓存，热循环中同一s会被反复查询；
// 缓存随Border一起废弃，不跨一次转换存活
type Border struct {
	reference Reference
	refOffset float64 // 委托参考对象前加到s上的偏移

	coeffsOffsets []float64   // 各多项式段的起始s，升序
	coeffs        [][]float64 // 各段升幂系数

	cache map[borderKey]borderResult
}

// NewBorder 创建边界线
// 参数：reference-参考对象，refOffset-委托前的s偏移
func NewBorder(reference Reference, refOffset float64) *Border {
	return &Border{
		reference:     reference,
		refOffset:     refOffset,
		coeffsOffsets: make([]float64, 0),
		coeffs:        make([][]float64, 0),
		cache:         make(map[borderKey]borderResult),
	}
}

// RefOffset 获取委托参考对象前的s偏移
func (b *Border) RefOffset() float64 {
	return b.refOffset
}

// Append 追加一个多项式段
// 说明：要求按offset升序追加
func (b *Border) Append(offset float64, coeffs []float64) {
	b.coeffsOffsets = append(b.coeffsOffsets, offset)
	b.coeffs = append(b.coeffs, coeffs)
}

// Calc 计算边界线在sPos处的位置与切向角
func (b *Border) Calc(sPos float64) (geometry.Point, float64, error) {
	return b.CalcWithOffset(sPos, 0)
}

// CalcWithOffset 计算边界线在sPos处、附加横向偏移addOffset后的位置与切向角
// 功能：向参考对象查询refOffset+sPos处的位置与切向角，选出起始s不大于sPos的
// 最后一个多项式段求出横向距离，再沿参考法向平移
// 参数：sPos-弧长，addOffset-附加横向距离（车道末端合并机制使用）
// 返回：位置、切向角（原样传递参考切向角）与错误
// 说明：sPos小于最小段起始s时取第0段
func (b *Border) CalcWithOffset(sPos, addOffset float64) (geometry.Point, float64, error) {
	key := borderKey{s: sPos, addOffset: addOffset}
	if cached, ok := b.cache[key]; ok {
		return cached.pos, cached.tangent, nil
	}

	if b.reference == nil {
		return geometry.Point{}, 0, fmt.Errorf("%w: no reference", ErrBorder)
	}
	refPos, refTangent, err := b.reference.Calc(b.refOffset + sPos)
	if err != nil {
		return geometry.Point{}, 0, err
	}
	if len(b.coeffs) == 0 || len(b.coeffsOffsets) == 0 {
		return geometry.Point{}, 0, fmt.Errorf("%w: no width definitions", ErrBorder)
	}

	idx := 0
	for i := len(b.coeffsOffsets) - 1; i >= 0; i-- {
		if b.coeffsOffsets[i] <= sPos {
			idx = i
			break
		}
	}
	distance := utils.Polyval(sPos-b.coeffsOffsets[idx], b.coeffs[idx]) + addOffset

	ortho := refTangent + math.Pi/2
	pos := geometry.Point{
		X: refPos.X + distance*math.Cos(ortho),
		Y: refPos.Y + distance*math.Sin(ortho),
	}
	b.cache[key] = borderResult{pos: pos, tangent: refTangent}
	return pos, refTangent, nil
}
