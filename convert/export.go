package convert

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/lanelet"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/plane"
)

// DefaultLaneTypeFilter 参与导出的缺省车道类型集合
var DefaultLaneTypeFilter = []opendrive.LaneType{
	opendrive.LaneTypeDriving,
	opendrive.LaneTypeOnRamp,
	opendrive.LaneTypeOffRamp,
	opendrive.LaneTypeExit,
	opendrive.LaneTypeEntry,
}

// ExportLaneletNetwork 导出车道元网络
// 功能：按类型过滤车道组，离散化为车道元并挂接前驱后继，随后修剪悬空引用、
// 执行车道末端邻接合并，最后整数重编号
// 参数：precision-离散化步长，filter-车道类型过滤集合（nil使用缺省集合）
// 返回：车道元网络与错误
// 说明：几何/边界错误与重复ID是整个转换的致命错误，不产出部分结果
func (n *Network) ExportLaneletNetwork(precision float64, filter []opendrive.LaneType) (*lanelet.LaneletNetwork, error) {
	if filter == nil {
		filter = DefaultLaneTypeFilter
	}
	filterSet := lo.SliceToMap(filter, func(t opendrive.LaneType) (opendrive.LaneType, struct{}) {
		return t, struct{}{}
	})

	network := lanelet.NewLaneletNetwork()
	refGroups := make(map[string]*plane.PLaneGroup)
	for _, group := range n.groups {
		if _, ok := filterSet[group.Type()]; !ok {
			continue
		}
		l, err := group.ConvertToLanelet(precision, plane.RefNone, [2]float64{0, 0})
		if err != nil {
			return nil, fmt.Errorf("convert group %s: %w", group.ID, err)
		}
		l.Predecessor = n.linkIndex.Predecessors(group.ID)
		l.Successor = n.linkIndex.Successors(group.ID)
		if err := network.Add(l); err != nil {
			return nil, err
		}
		refGroups[l.ID] = group
	}

	network.PruneReferences()

	if err := mergeAtLaneEnds(network, refGroups, precision); err != nil {
		return nil, err
	}

	network.Renumber()
	return network, nil
}

// mergeAtLaneEnds 车道末端邻接合并
// 功能：对没有后继（或前驱）但有邻接车道的车道元，以邻接车道末端宽度为附加
// 偏移重新离散化其车道组，使折线在端部并入邻接车道，并继承其后继（前驱）列表
// 算法说明：
// 1. 无后继且有左邻：ref=right、refDistance=[左邻末端宽度, 0]，后继并入左邻后继
// 2. 无后继且有右邻：ref=left、refDistance=[-右邻末端宽度, 0]，后继并入右邻后继
// 3. 无前驱为对称情形，refDistance=[0, ∓末端宽度]，前驱并入邻接前驱
// 说明：重写只替换三条折线并扩展连接列表，其余字段保持
func mergeAtLaneEnds(network *lanelet.LaneletNetwork, refGroups map[string]*plane.PLaneGroup, precision float64) error {
	rewrite := func(l *lanelet.Lanelet, ref plane.RefSide, refDistance [2]float64) error {
		group := refGroups[l.ID]
		if group == nil {
			return nil
		}
		merged, err := group.ConvertToLanelet(precision, ref, refDistance)
		if err != nil {
			return fmt.Errorf("merge rewrite %s: %w", l.ID, err)
		}
		l.LeftVertices = merged.LeftVertices
		l.CenterVertices = merged.CenterVertices
		l.RightVertices = merged.RightVertices
		return nil
	}

	for _, l := range network.Lanelets() {
		if len(l.Successor) == 0 {
			if l.AdjLeft != "" {
				if adjacent, ok := network.FindByID(l.AdjLeft); ok {
					if err := rewrite(l, plane.RefRight, [2]float64{adjacent.WidthAtEnd(), 0}); err != nil {
						return err
					}
					l.Successor = append(l.Successor, adjacent.Successor...)
				}
			}
			if l.AdjRight != "" {
				if adjacent, ok := network.FindByID(l.AdjRight); ok {
					if err := rewrite(l, plane.RefLeft, [2]float64{-adjacent.WidthAtEnd(), 0}); err != nil {
						return err
					}
					l.Successor = append(l.Successor, adjacent.Successor...)
				}
			}
		}
		if len(l.Predecessor) == 0 {
			if l.AdjLeft != "" {
				if adjacent, ok := network.FindByID(l.AdjLeft); ok {
					if err := rewrite(l, plane.RefRight, [2]float64{0, -adjacent.WidthAtEnd()}); err != nil {
						return err
					}
					l.Predecessor = append(l.Predecessor, adjacent.Predecessor...)
				}
			}
			if l.AdjRight != "" {
				if adjacent, ok := network.FindByID(l.AdjRight); ok {
					if err := rewrite(l, plane.RefLeft, [2]float64{0, adjacent.WidthAtEnd()}); err != nil {
						return err
					}
					l.Predecessor = append(l.Predecessor, adjacent.Predecessor...)
				}
			}
		}
	}
	return nil
}

// ExportCommonRoadScenario 导出完整CommonRoad场景
// 功能：导出车道元网络并装入场景容器
// 参数：dt-时间步长，benchmarkID-场景标识，precision-离散化步长，
// filter-车道类型过滤集合（nil使用缺省集合）
// 返回：场景与错误
func (n *Network) ExportCommonRoadScenario(dt float64, benchmarkID string, precision float64, filter []opendrive.LaneType) (*lanelet.Scenario, error) {
	network, err := n.ExportLaneletNetwork(precision, filter)
	if err != nil {
		return nil, err
	}
	scenario := lanelet.NewScenario(dt, benchmarkID)
	if err := scenario.AddNetwork(network); err != nil {
		return nil, err
	}
	return scenario, nil
}
