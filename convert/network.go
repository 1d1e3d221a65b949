package convert

import (
	"fmt"

	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive/planview"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/plane"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/utils"
)

// Network 参数化车道网络
// 功能：将OpenDRIVE路网降级为参数化车道组集合与后继关系索引，
// 作为车道元导出的中间形态
// 说明：一次转换内构建一次，构建完成后只读
type Network struct {
	groups    []*plane.PLaneGroup
	linkIndex *LinkIndex
}

// NewNetwork 创建空网络
func NewNetwork() *Network {
	return &Network{
		groups: make([]*plane.PLaneGroup, 0),
	}
}

// Groups 获取全部参数化车道组
func (n *Network) Groups() []*plane.PLaneGroup {
	return n.groups
}

// LoadOpenDrive 载入OpenDRIVE路网
// 功能：构建后继关系索引，再把每条道路的每个lane section降级为参数化车道组
// 参数：od-解析后的OpenDRIVE路网
// 返回：错误
// 算法说明：
// 1. 先遍历全部道路与路口建立后继索引
// 2. 每条道路先构建参考边界（laneOffset链），再逐断面降级
func (n *Network) LoadOpenDrive(od *opendrive.OpenDrive) error {
	if od == nil {
		return fmt.Errorf("load opendrive: nil input")
	}
	n.linkIndex = createLinkIndex(od)

	for _, road := range od.Roads {
		// 参考边界是整条道路的基准线
		referenceBorder := createReferenceBorder(road.PlanView, road.Lanes.LaneOffsets)

		// lane section是能独立转换的最小单元
		for _, section := range road.Lanes.LaneSections {
			n.groups = append(n.groups, laneSectionToPLaneGroups(road, section, referenceBorder)...)
		}
	}
	return nil
}

// createReferenceBorder 构建道路的参考边界
// 功能：以参考线为参考对象，把laneOffset三次多项式链作为横向偏移；
// 没有laneOffset时退化为单个零多项式
func createReferenceBorder(pv *planview.PlanView, laneOffsets []*opendrive.LaneOffset) *plane.Border {
	border := plane.NewBorder(pv, 0)
	if len(laneOffsets) > 0 {
		for _, offset := range laneOffsets {
			border.Append(offset.SPos, offset.Coeffs())
		}
	} else {
		border.Append(0, []float64{0})
	}
	return border
}

// laneSectionToPLaneGroups 将一个lane section降级为参数化车道组列表
// 功能：分侧自中心向外走车道列表，逐条叠边界线并按宽度段切出PLane
// 参数：road-所属道路，section-断面，referenceBorder-道路参考边界
// 返回：车道组列表
// 算法说明：
// 1. 右侧系数因子-1（id为-1,-2,…），左侧+1（id为1,2,…），中心车道无宽度不参与
// 2. 边界栈以参考边界起底；每条车道新建一条边界线，参考栈顶；
//    一侧的第一条新边界把断面起点偏移吸收进refOffset，其余为0
// 3. 每个宽度段产出一个PLane，内边界为新边界的下一层，外边界为新边界
// 4. |id|=1的内侧邻居为对侧最内车道（方向相反），其余为同侧|id|-1（同向）
// 5. 左侧车道组Reverse为真，使输出折线沿行驶方向
func laneSectionToPLaneGroups(road *opendrive.Road, section *opendrive.LaneSection, referenceBorder *plane.Border) []*plane.PLaneGroup {
	groups := make([]*plane.PLaneGroup, 0)
	sectionStart := section.SPos

	sides := []struct {
		lanes        []*opendrive.Lane
		coeffsFactor float64
	}{
		{section.RightLanes, -1.0},
		{section.LeftLanes, 1.0},
	}
	for _, side := range sides {
		laneBorders := []*plane.Border{referenceBorder}

		for _, lane := range side.lanes {
			var innerLaneID, outerLaneID int
			innerSameDirection := true
			if lane.ID > 1 || lane.ID < -1 {
				if lane.ID > 0 {
					innerLaneID = lane.ID - 1
					outerLaneID = lane.ID + 1
				} else {
					innerLaneID = lane.ID + 1
					outerLaneID = lane.ID - 1
				}
			} else {
				// 最内侧车道：内侧邻居换到对侧，方向相反
				if lane.ID == 1 {
					innerLaneID = -1
					outerLaneID = 2
				} else {
					innerLaneID = 1
					outerLaneID = -2
				}
				innerSameDirection = false
			}

			group := &plane.PLaneGroup{
				ID:                          utils.EncodeRoadSectionLaneWidthID(road.ID, section.Idx, lane.ID, -1),
				InnerNeighbour:              utils.EncodeRoadSectionLaneWidthID(road.ID, section.Idx, innerLaneID, -1),
				InnerNeighbourSameDirection: innerSameDirection,
				OuterNeighbour:              utils.EncodeRoadSectionLaneWidthID(road.ID, section.Idx, outerLaneID, -1),
				Reverse:                     lane.ID > 0,
			}

			refOffset := 0.0
			if len(laneBorders) == 1 {
				// 断面起点偏移只需吸收进一侧的第一条新边界
				refOffset = sectionStart
			}
			border := plane.NewBorder(laneBorders[len(laneBorders)-1], refOffset)
			for _, width := range lane.Widths {
				coeffs := width.Coeffs()
				scaled := make([]float64, len(coeffs))
				for i, c := range coeffs {
					scaled[i] = c * side.coeffsFactor
				}
				border.Append(width.SOffset, scaled)
			}
			laneBorders = append(laneBorders, border)

			for _, width := range lane.Widths {
				group.Append(&plane.PLane{
					ID:                utils.EncodeRoadSectionLaneWidthID(road.ID, section.Idx, lane.ID, width.Idx),
					Type:              lane.Type,
					Length:            width.Length,
					InnerBorder:       laneBorders[len(laneBorders)-2],
					InnerBorderOffset: width.SOffset + border.RefOffset(),
					OuterBorder:       border,
					OuterBorderOffset: width.SOffset,
					IsNotExistent:     utils.AllCloseToZero(width.Coeffs()),
				})
			}
			groups = append(groups, group)
		}
	}
	return groups
}

// createLinkIndex 建立后继关系索引
// 功能：遍历车道连接、道路连接与路口连接，按行驶方向统一编入索引
// 算法说明：
// OpenDRIVE的s轴只对右侧车道（负id）与行驶方向一致，
// 故每条"s方向的下一个"关系按车道id符号决定边方向：
// id≥0时边为(后继→本体)，id<0时边为(本体→后继)
func createLinkIndex(od *opendrive.OpenDrive) *LinkIndex {
	index := NewLinkIndex()

	add := func(pLaneID, successorID string, reverse bool) {
		if reverse {
			index.AddLink(successorID, pLaneID)
		} else {
			index.AddLink(pLaneID, successorID)
		}
	}

	// 道路内与道路间的车道连接
	for _, road := range od.Roads {
		for _, section := range road.Lanes.LaneSections {
			for _, lane := range section.AllLanes() {
				pLaneID := utils.EncodeRoadSectionLaneWidthID(road.ID, section.Idx, lane.ID, -1)

				if section.Idx < road.Lanes.LastSectionIdx() {
					// 非末断面：后继在同道路的下一断面
					if lane.Link.Successor != nil {
						successorID := utils.EncodeRoadSectionLaneWidthID(road.ID, section.Idx+1, *lane.Link.Successor, -1)
						add(pLaneID, successorID, lane.ID >= 0)
					} else {
						log.Debugf("lane %s has no successor link, skipped", pLaneID)
					}
				} else if successor := road.Link.Successor; successor != nil && successor.ElementType != opendrive.ElementJunction {
					// 末断面：后继在下一道路
					if nextRoad := od.GetRoad(successor.ElementID); nextRoad != nil && lane.Link.Successor != nil {
						sectionIdx := nextRoad.Lanes.LastSectionIdx()
						if successor.ContactPoint == opendrive.ContactStart {
							sectionIdx = 0
						}
						successorID := utils.EncodeRoadSectionLaneWidthID(nextRoad.ID, sectionIdx, *lane.Link.Successor, -1)
						add(pLaneID, successorID, lane.ID >= 0)
					}
				}

				if section.Idx > 0 {
					// 非首断面：前驱在同道路的上一断面
					if lane.Link.Predecessor != nil {
						predecessorID := utils.EncodeRoadSectionLaneWidthID(road.ID, section.Idx-1, *lane.Link.Predecessor, -1)
						add(predecessorID, pLaneID, lane.ID >= 0)
					} else {
						log.Debugf("lane %s has no predecessor link, skipped", pLaneID)
					}
				} else if predecessor := road.Link.Predecessor; predecessor != nil && predecessor.ElementType != opendrive.ElementJunction {
					// 首断面：前驱在上一道路
					if prevRoad := od.GetRoad(predecessor.ElementID); prevRoad != nil && lane.Link.Predecessor != nil {
						sectionIdx := prevRoad.Lanes.LastSectionIdx()
						if predecessor.ContactPoint == opendrive.ContactStart {
							sectionIdx = 0
						}
						predecessorID := utils.EncodeRoadSectionLaneWidthID(prevRoad.ID, sectionIdx, *lane.Link.Predecessor, -1)
						add(predecessorID, pLaneID, lane.ID >= 0)
					}
				}
			}
		}
	}

	// 路口连接
	for _, road := range od.Roads {
		if successor := road.Link.Successor; successor != nil && successor.ElementType == opendrive.ElementJunction {
			if junction := od.GetJunction(successor.ElementID); junction != nil {
				addJunctionLinks(index, od, road, junction, opendrive.ContactEnd)
			}
		}
		if predecessor := road.Link.Predecessor; predecessor != nil && predecessor.ElementType == opendrive.ElementJunction {
			if junction := od.GetJunction(predecessor.ElementID); junction != nil {
				addJunctionLinks(index, od, road, junction, opendrive.ContactStart)
			}
		}
	}

	return index
}

// addJunctionLinks 把一个路口的全部连接编入索引
// 功能：以当前道路的接触端roadAcp为基准，逐连接逐车道配对建边
// 参数：road-当前道路，junction-路口，roadAcp-当前道路被连接的端
// 算法说明：
// 1. roadA为当前道路一侧（incomingRoad与connectingRoad中匹配者），roadB为对侧，
//    roadB的接触端取连接的contactPoint
// 2. 每个车道配对(from,to)在各自道路的接触端断面（start取0，end取末断面）编ID；
//    接触端为start的一侧作为边的前件，为end的一侧作为边的后件
// 3. 边方向由from车道id符号决定（from<0按s方向）
// 4. 两端同为start或同为end的连接缺少一侧，跳过并记录
func addJunctionLinks(index *LinkIndex, od *opendrive.OpenDrive, road *opendrive.Road, junction *opendrive.Junction, roadAcp opendrive.ContactPoint) {
	add := func(pLaneID, successorID string, reverse bool) {
		if reverse {
			index.AddLink(successorID, pLaneID)
		} else {
			index.AddLink(pLaneID, successorID)
		}
	}

	for _, connection := range junction.Connections {
		roadA := od.GetRoad(connection.IncomingRoad)
		roadB := od.GetRoad(connection.ConnectingRoad)
		roadBcp := connection.ContactPoint
		if roadA == nil || roadB == nil {
			log.Debugf("junction %d connection %d references missing road, skipped", junction.ID, connection.ID)
			continue
		}
		if roadA.ID != road.ID {
			roadA, roadB = roadB, roadA
		}

		for _, laneLink := range connection.LaneLinks {
			var pLaneID, successorID string

			aID := encodeAtContact(roadA, roadAcp, laneLink.From)
			if roadAcp == opendrive.ContactStart {
				pLaneID = aID
			} else {
				successorID = aID
			}
			bID := encodeAtContact(roadB, roadBcp, laneLink.To)
			if roadBcp == opendrive.ContactStart {
				pLaneID = bID
			} else {
				successorID = bID
			}

			if pLaneID == "" || successorID == "" {
				// 两端接触点相同，连接缺少一侧
				log.Debugf("junction %d connection %d lane link %d->%d has degenerate contact points, skipped",
					junction.ID, connection.ID, laneLink.From, laneLink.To)
				continue
			}
			add(pLaneID, successorID, laneLink.From < 0)
		}
	}
}

// encodeAtContact 在道路的指定接触端编车道组ID
// 说明：start取断面0，end取末断面
func encodeAtContact(road *opendrive.Road, contact opendrive.ContactPoint, laneID int) string {
	sectionIdx := road.Lanes.LastSectionIdx()
	if contact == opendrive.ContactStart {
		sectionIdx = 0
	}
	return utils.EncodeRoadSectionLaneWidthID(road.ID, sectionIdx, laneID, -1)
}
