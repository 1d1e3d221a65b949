package opendrive

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive/planview"
)

// ErrParse OpenDRIVE输入格式错误
var ErrParse = errors.New("malformed OpenDRIVE input")

// 与XML文档结构一一对应的解码结构体

type xmlOpenDrive struct {
	XMLName   xml.Name      `xml:"OpenDRIVE"`
	Header    *xmlHeader    `xml:"header"`
	Roads     []xmlRoad     `xml:"road"`
	Junctions []xmlJunction `xml:"junction"`
}

type xmlHeader struct {
	RevMajor string `xml:"revMajor,attr"`
	RevMinor string `xml:"revMinor,attr"`
	Name     string `xml:"name,attr"`
	Version  string `xml:"version,attr"`
	Date     string `xml:"date,attr"`
	North    string `xml:"north,attr"`
	South    string `xml:"south,attr"`
	East     string `xml:"east,attr"`
	West     string `xml:"west,attr"`
	Vendor   string `xml:"vendor,attr"`
}

type xmlJunction struct {
	ID          int             `xml:"id,attr"`
	Name        string          `xml:"name,attr"`
	Connections []xmlConnection `xml:"connection"`
}

type xmlConnection struct {
	ID             int           `xml:"id,attr"`
	IncomingRoad   int           `xml:"incomingRoad,attr"`
	ConnectingRoad int           `xml:"connectingRoad,attr"`
	ContactPoint   string        `xml:"contactPoint,attr"`
	LaneLinks      []xmlLaneLink `xml:"laneLink"`
}

type xmlLaneLink struct {
	From int `xml:"from,attr"`
	To   int `xml:"to,attr"`
}

type xmlRoad struct {
	ID       int     `xml:"id,attr"`
	Name     string  `xml:"name,attr"`
	Junction string  `xml:"junction,attr"`
	Length   float64 `xml:"length,attr"`

	Link             *xmlRoadLink         `xml:"link"`
	Types            []xmlRoadType        `xml:"type"`
	PlanView         *xmlPlanView         `xml:"planView"`
	ElevationProfile *xmlElevationProfile `xml:"elevationProfile"`
	LateralProfile   *xmlLateralProfile   `xml:"lateralProfile"`
	Lanes            *xmlLanes            `xml:"lanes"`
}

type xmlRoadLink struct {
	Predecessor *xmlRoadLinkTarget `xml:"predecessor"`
	Successor   *xmlRoadLinkTarget `xml:"successor"`
	Neighbors   []xmlRoadNeighbor  `xml:"neighbor"`
}

type xmlRoadLinkTarget struct {
	ElementType  string `xml:"elementType,attr"`
	ElementID    int    `xml:"elementId,attr"`
	ContactPoint string `xml:"contactPoint,attr"`
}

type xmlRoadNeighbor struct {
	Side      string `xml:"side,attr"`
	ElementID int    `xml:"elementId,attr"`
	Direction string `xml:"direction,attr"`
}

type xmlRoadType struct {
	S     float64 `xml:"s,attr"`
	Type  string  `xml:"type,attr"`
	Speed *struct {
		Max  float64 `xml:"max,attr"`
		Unit string  `xml:"unit,attr"`
	} `xml:"speed"`
}

type xmlPlanView struct {
	Geometries []xmlGeometry `xml:"geometry"`
}

type xmlGeometry struct {
	S      float64 `xml:"s,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Hdg    float64 `xml:"hdg,attr"`
	Length float64 `xml:"length,attr"`

	Line   *struct{} `xml:"line"`
	Spiral *struct {
		CurvStart float64 `xml:"curvStart,attr"`
		CurvEnd   float64 `xml:"curvEnd,attr"`
	} `xml:"spiral"`
	Arc *struct {
		Curvature float64 `xml:"curvature,attr"`
	} `xml:"arc"`
	Poly3      *struct{} `xml:"poly3"`
	ParamPoly3 *struct {
		AU     float64 `xml:"aU,attr"`
		BU     float64 `xml:"bU,attr"`
		CU     float64 `xml:"cU,attr"`
		DU     float64 `xml:"dU,attr"`
		AV     float64 `xml:"aV,attr"`
		BV     float64 `xml:"bV,attr"`
		CV     float64 `xml:"cV,attr"`
		DV     float64 `xml:"dV,attr"`
		PRange string  `xml:"pRange,attr"`
	} `xml:"paramPoly3"`
}

type xmlElevationProfile struct {
	Elevations []xmlPoly3Record `xml:"elevation"`
}

type xmlLateralProfile struct {
	Superelevations []xmlPoly3Record `xml:"superelevation"`
}

type xmlPoly3Record struct {
	S float64 `xml:"s,attr"`
	A float64 `xml:"a,attr"`
	B float64 `xml:"b,attr"`
	C float64 `xml:"c,attr"`
	D float64 `xml:"d,attr"`
}

type xmlLanes struct {
	LaneOffsets  []xmlPoly3Record `xml:"laneOffset"`
	LaneSections []xmlLaneSection `xml:"laneSection"`
}

type xmlLaneSection struct {
	S          float64      `xml:"s,attr"`
	SingleSide string       `xml:"singleSide,attr"`
	Left       *xmlLaneSide `xml:"left"`
	Center     *xmlLaneSide `xml:"center"`
	Right      *xmlLaneSide `xml:"right"`
}

type xmlLaneSide struct {
	Lanes []xmlLane `xml:"lane"`
}

type xmlLane struct {
	ID    int    `xml:"id,attr"`
	Type  string `xml:"type,attr"`
	Level string `xml:"level,attr"`
	Link  *struct {
		Predecessor *struct {
			ID int `xml:"id,attr"`
		} `xml:"predecessor"`
		Successor *struct {
			ID int `xml:"id,attr"`
		} `xml:"successor"`
	} `xml:"link"`
	Widths  []xmlLaneWidth `xml:"width"`
	Borders []xmlLaneWidth `xml:"border"`
}

type xmlLaneWidth struct {
	SOffset float64 `xml:"sOffset,attr"`
	A       float64 `xml:"a,attr"`
	B       float64 `xml:"b,attr"`
	C       float64 `xml:"c,attr"`
	D       float64 `xml:"d,attr"`
}

// Parse 解析OpenDRIVE XML文档
// 功能：将输入流解码为OpenDrive内存镜像，并计算各断面与宽度段的派生长度
// 参数：r-XML输入流
// 返回：路网对象与错误
// 说明：一次性读入，解析完成后输入即可关闭；poly3几何段不受支持
func Parse(r io.Reader) (*OpenDrive, error) {
	var raw xmlOpenDrive
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	od := &OpenDrive{}
	if raw.Header != nil {
		od.Header = Header{
			RevMajor: raw.Header.RevMajor,
			RevMinor: raw.Header.RevMinor,
			Name:     raw.Header.Name,
			Version:  raw.Header.Version,
			Date:     raw.Header.Date,
			North:    raw.Header.North,
			South:    raw.Header.South,
			East:     raw.Header.East,
			West:     raw.Header.West,
			Vendor:   raw.Header.Vendor,
		}
	}

	// 路口先于道路装配，道路junction属性只做引用
	for _, rawJunction := range raw.Junctions {
		junction := &Junction{
			ID:   rawJunction.ID,
			Name: rawJunction.Name,
		}
		for _, rawConnection := range rawJunction.Connections {
			contact, err := parseContactPoint(rawConnection.ContactPoint)
			if err != nil {
				return nil, fmt.Errorf("junction %d connection %d: %w", rawJunction.ID, rawConnection.ID, err)
			}
			connection := &Connection{
				ID:             rawConnection.ID,
				IncomingRoad:   rawConnection.IncomingRoad,
				ConnectingRoad: rawConnection.ConnectingRoad,
				ContactPoint:   contact,
			}
			for _, rawLink := range rawConnection.LaneLinks {
				connection.LaneLinks = append(connection.LaneLinks, &ConnectionLaneLink{
					From: rawLink.From,
					To:   rawLink.To,
				})
			}
			junction.Connections = append(junction.Connections, connection)
		}
		od.Junctions = append(od.Junctions, junction)
	}

	for _, rawRoad := range raw.Roads {
		road, err := buildRoad(&rawRoad)
		if err != nil {
			return nil, fmt.Errorf("road %d: %w", rawRoad.ID, err)
		}
		od.Roads = append(od.Roads, road)
	}

	log.Debugf("parsed %d roads, %d junctions", len(od.Roads), len(od.Junctions))
	return od, nil
}

// buildRoad 装配单条道路
// 功能：构建参考线、连接关系与车道块，并计算断面与宽度段长度
func buildRoad(raw *xmlRoad) (*Road, error) {
	road := &Road{
		ID:       raw.ID,
		Name:     raw.Name,
		Junction: -1,
		Length:   raw.Length,
		PlanView: planview.NewPlanView(),
	}
	if raw.Junction != "" && raw.Junction != "-1" {
		junctionID, err := strconv.Atoi(raw.Junction)
		if err != nil {
			return nil, fmt.Errorf("%w: bad junction attr %q", ErrParse, raw.Junction)
		}
		road.Junction = junctionID
	}

	if raw.Link != nil {
		if raw.Link.Predecessor != nil {
			target, err := buildRoadLinkTarget(raw.Link.Predecessor)
			if err != nil {
				return nil, err
			}
			road.Link.Predecessor = target
		}
		if raw.Link.Successor != nil {
			target, err := buildRoadLinkTarget(raw.Link.Successor)
			if err != nil {
				return nil, err
			}
			road.Link.Successor = target
		}
		for _, rawNeighbor := range raw.Link.Neighbors {
			road.Link.Neighbors = append(road.Link.Neighbors, &RoadLinkNeighbor{
				Side:      rawNeighbor.Side,
				ElementID: rawNeighbor.ElementID,
				Direction: rawNeighbor.Direction,
			})
		}
	}

	for _, rawType := range raw.Types {
		roadType := &RoadType{SPos: rawType.S, Type: rawType.Type}
		if rawType.Speed != nil {
			roadType.MaxSpeed = rawType.Speed.Max
			roadType.Unit = rawType.Speed.Unit
		}
		road.Types = append(road.Types, roadType)
	}

	if raw.PlanView == nil || len(raw.PlanView.Geometries) == 0 {
		return nil, fmt.Errorf("%w: road must have planView geometry", ErrParse)
	}
	for _, rawGeometry := range raw.PlanView.Geometries {
		if err := addGeometry(road.PlanView, &rawGeometry); err != nil {
			return nil, err
		}
	}

	if raw.ElevationProfile != nil {
		for _, e := range raw.ElevationProfile.Elevations {
			road.ElevationProfile = append(road.ElevationProfile, &Poly3Record{SPos: e.S, A: e.A, B: e.B, C: e.C, D: e.D})
		}
	}
	if raw.LateralProfile != nil {
		for _, e := range raw.LateralProfile.Superelevations {
			road.Superelevations = append(road.Superelevations, &Poly3Record{SPos: e.S, A: e.A, B: e.B, C: e.C, D: e.D})
		}
	}

	if raw.Lanes == nil {
		return nil, fmt.Errorf("%w: road must have lanes element", ErrParse)
	}
	if err := buildLanes(road, raw.Lanes); err != nil {
		return nil, err
	}

	return road, nil
}

// buildRoadLinkTarget 装配道路连接目标并校验枚举值
func buildRoadLinkTarget(raw *xmlRoadLinkTarget) (*RoadLinkTarget, error) {
	elementType := ElementType(raw.ElementType)
	if elementType != ElementRoad && elementType != ElementJunction {
		return nil, fmt.Errorf("%w: bad link elementType %q", ErrParse, raw.ElementType)
	}
	target := &RoadLinkTarget{
		ElementType: elementType,
		ElementID:   raw.ElementID,
	}
	if raw.ContactPoint != "" {
		contact, err := parseContactPoint(raw.ContactPoint)
		if err != nil {
			return nil, err
		}
		target.ContactPoint = contact
	}
	return target, nil
}

// addGeometry 将XML几何段分派到参考线
// 说明：poly3不受支持，遇到即报错（包裹planview.ErrGeometry）
func addGeometry(pv *planview.PlanView, raw *xmlGeometry) error {
	start := geometry.Point{X: raw.X, Y: raw.Y}
	switch {
	case raw.Line != nil:
		pv.AddLine(start, raw.Hdg, raw.Length)
	case raw.Spiral != nil:
		pv.AddSpiral(start, raw.Hdg, raw.Length, raw.Spiral.CurvStart, raw.Spiral.CurvEnd)
	case raw.Arc != nil:
		pv.AddArc(start, raw.Hdg, raw.Length, raw.Arc.Curvature)
	case raw.Poly3 != nil:
		return fmt.Errorf("%w: poly3 geometry at s=%v", planview.ErrGeometry, raw.S)
	case raw.ParamPoly3 != nil:
		pRange := 0.0
		if raw.ParamPoly3.PRange == "arcLength" {
			pRange = raw.Length
		}
		pv.AddParamPoly3(start, raw.Hdg, raw.Length,
			[4]float64{raw.ParamPoly3.AU, raw.ParamPoly3.BU, raw.ParamPoly3.CU, raw.ParamPoly3.DU},
			[4]float64{raw.ParamPoly3.AV, raw.ParamPoly3.BV, raw.ParamPoly3.CV, raw.ParamPoly3.DV},
			pRange)
	default:
		return fmt.Errorf("%w: geometry at s=%v has no recognised primitive", ErrParse, raw.S)
	}
	return nil
}

// buildLanes 装配车道块
// 功能：构建横向偏移与lane section列表，排序并计算派生长度
// 算法说明：
// 1. laneOffset与laneSection按s升序排序，断面索引按排序后顺序编号
// 2. 断面长度=下一断面s-本断面s，末断面到参考线终点
// 3. 宽度段长度=下一宽度段sOffset-本段sOffset，末段到断面终点
func buildLanes(road *Road, raw *xmlLanes) error {
	for _, rawOffset := range raw.LaneOffsets {
		road.Lanes.LaneOffsets = append(road.Lanes.LaneOffsets, &LaneOffset{
			SPos: rawOffset.S, A: rawOffset.A, B: rawOffset.B, C: rawOffset.C, D: rawOffset.D,
		})
	}
	sort.SliceStable(road.Lanes.LaneOffsets, func(i, j int) bool {
		return road.Lanes.LaneOffsets[i].SPos < road.Lanes.LaneOffsets[j].SPos
	})

	for _, rawSection := range raw.LaneSections {
		section := &LaneSection{
			SPos:       rawSection.S,
			SingleSide: rawSection.SingleSide == "true",
		}
		sides := []struct {
			side  *xmlLaneSide
			lanes *[]*Lane
		}{
			{rawSection.Left, &section.LeftLanes},
			{rawSection.Center, &section.CenterLanes},
			{rawSection.Right, &section.RightLanes},
		}
		for _, s := range sides {
			if s.side == nil {
				// 可以只有单侧车道
				continue
			}
			for _, rawLane := range s.side.Lanes {
				lane, err := buildLane(&rawLane)
				if err != nil {
					return err
				}
				*s.lanes = append(*s.lanes, lane)
			}
		}
		// 左侧按id升序（自中心向外1,2,…），右侧按id降序（-1,-2,…）
		sort.SliceStable(section.LeftLanes, func(i, j int) bool {
			return section.LeftLanes[i].ID < section.LeftLanes[j].ID
		})
		sort.SliceStable(section.RightLanes, func(i, j int) bool {
			return section.RightLanes[i].ID > section.RightLanes[j].ID
		})
		road.Lanes.LaneSections = append(road.Lanes.LaneSections, section)
	}
	sort.SliceStable(road.Lanes.LaneSections, func(i, j int) bool {
		return road.Lanes.LaneSections[i].SPos < road.Lanes.LaneSections[j].SPos
	})
	for idx, section := range road.Lanes.LaneSections {
		section.Idx = idx
	}

	// OpenDRIVE本身不提供断面长度，由相邻断面推算
	planViewLength := road.PlanView.Length()
	for i, section := range road.Lanes.LaneSections {
		if i+1 < len(road.Lanes.LaneSections) {
			section.Length = road.Lanes.LaneSections[i+1].SPos - section.SPos
		} else {
			section.Length = planViewLength - section.SPos
		}
	}

	// 宽度段长度同理由相邻段推算
	for _, section := range road.Lanes.LaneSections {
		for _, lane := range section.AllLanes() {
			for i, width := range lane.Widths {
				if i+1 < len(lane.Widths) {
					width.Length = lane.Widths[i+1].SOffset - width.SOffset
				} else {
					width.Length = section.Length - width.SOffset
				}
			}
		}
	}

	return nil
}

// buildLane 装配单条车道并校验类型
func buildLane(raw *xmlLane) (*Lane, error) {
	laneType, ok := LaneTypeFromString(raw.Type)
	if !ok {
		return nil, fmt.Errorf("%w: bad lane type %q for lane %d", ErrParse, raw.Type, raw.ID)
	}
	lane := &Lane{
		ID:   raw.ID,
		Type: laneType,
		// 部分样例文件的level取值不符合OpenDRIVE规范
		Level: raw.Level == "true" || raw.Level == "1",
	}
	if raw.Link != nil {
		if raw.Link.Predecessor != nil {
			id := raw.Link.Predecessor.ID
			lane.Link.Predecessor = &id
		}
		if raw.Link.Successor != nil {
			id := raw.Link.Successor.ID
			lane.Link.Successor = &id
		}
	}
	for _, rawWidth := range raw.Widths {
		lane.Widths = append(lane.Widths, &LaneWidth{
			SOffset: rawWidth.SOffset,
			A:       rawWidth.A, B: rawWidth.B, C: rawWidth.C, D: rawWidth.D,
		})
	}
	sort.SliceStable(lane.Widths, func(i, j int) bool {
		return lane.Widths[i].SOffset < lane.Widths[j].SOffset
	})
	for idx, width := range lane.Widths {
		width.Idx = idx
	}
	for idx, rawBorder := range raw.Borders {
		lane.Borders = append(lane.Borders, &LaneWidth{
			Idx:     idx,
			SOffset: rawBorder.SOffset,
			A:       rawBorder.A, B: rawBorder.B, C: rawBorder.C, D: rawBorder.D,
		})
	}
	return lane, nil
}

// parseContactPoint 校验并转换contactPoint枚举
func parseContactPoint(s string) (ContactPoint, error) {
	switch ContactPoint(s) {
	case ContactStart, ContactEnd:
		return ContactPoint(s), nil
	default:
		return "", fmt.Errorf("%w: bad contactPoint %q", ErrParse, s)
	}
}
