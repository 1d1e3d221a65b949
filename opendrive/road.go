package opendrive

import (
	"fmt"

	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive/planview"
)

// ContactPoint 道路连接的接触端，start或end
type ContactPoint string

const (
	ContactStart ContactPoint = "start" // 道路起点端
	ContactEnd   ContactPoint = "end"   // 道路终点端
)

// ElementType 道路连接目标的元素类型，road或junction
type ElementType string

const (
	ElementRoad     ElementType = "road"
	ElementJunction ElementType = "junction"
)

// Road 道路实体
// 功能：表示路网中的一条道路，包含参考线、车道块与前驱后继连接
type Road struct {
	ID       int
	Name     string
	Junction int // 所属路口ID，-1表示不在路口内
	Length   float64

	Link     RoadLink
	Types    []*RoadType
	PlanView *planview.PlanView

	// 高程与横断面数据仅解析保留，转换核心不使用
	ElevationProfile []*Poly3Record
	Superelevations  []*Poly3Record

	Lanes Lanes
}

func (r *Road) String() string {
	return fmt.Sprintf("Road %d", r.ID)
}

// RoadLink 道路级连接关系
type RoadLink struct {
	Predecessor *RoadLinkTarget     // 前驱连接，可为空
	Successor   *RoadLinkTarget     // 后继连接，可为空
	Neighbors   []*RoadLinkNeighbor // 平行邻接道路
}

// RoadLinkTarget 道路连接的目标端
// 说明：elementType为junction时contactPoint无意义
type RoadLinkTarget struct {
	ElementType  ElementType
	ElementID    int
	ContactPoint ContactPoint
}

func (t *RoadLinkTarget) String() string {
	return fmt.Sprintf("%s with id %d contact at %s", t.ElementType, t.ElementID, t.ContactPoint)
}

// RoadLinkNeighbor 平行邻接道路记录
type RoadLinkNeighbor struct {
	Side      string // left/right
	ElementID int
	Direction string // same/opposite
}

// RoadType 道路类型记录（限速等）
type RoadType struct {
	SPos     float64
	Type     string
	MaxSpeed float64 // 0表示未给出
	Unit     string
}

// Poly3Record 三次多项式记录，用于高程与横坡
type Poly3Record struct {
	SPos       float64
	A, B, C, D float64
}
