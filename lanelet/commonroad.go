package lanelet

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/beevik/etree"
	"github.com/samber/lo"
)

// ErrExportValidation 序列化结果未通过CommonRoad结构校验
var ErrExportValidation = errors.New("commonroad export validation failed")

// commonRoadVersions 支持的commonRoadVersion取值
var commonRoadVersions = []string{"2017a", "2018a"}

// WriteScenario 将场景序列化为CommonRoad XML
// 功能：构建commonRoad文档（车道元边界、拓扑引用、邻接关系与占位planningProblem），
// 校验后输出字节串
// 参数：s-场景，version-commonRoadVersion（2017a或2018a）
// 返回：XML字节串与错误
// 说明：输出前对文档做结构校验，未通过则返回ErrExportValidation
func WriteScenario(s *Scenario, version string) ([]byte, error) {
	if !lo.Contains(commonRoadVersions, version) {
		return nil, fmt.Errorf("%w: bad commonRoadVersion %q", ErrExportValidation, version)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("commonRoad")
	root.CreateAttr("commonRoadVersion", version)
	root.CreateAttr("benchmarkID", s.BenchmarkID)
	root.CreateAttr("date", time.Now().Format("2006-01-02"))
	root.CreateAttr("timeStepSize", formatFloat(s.DT))

	for _, l := range s.LaneletNetwork.Lanelets() {
		laneletElement := root.CreateElement("lanelet")
		laneletElement.CreateAttr("id", l.ID)

		writeBound(laneletElement, "leftBound", l.LeftVertices)
		writeBound(laneletElement, "rightBound", l.RightVertices)

		for _, ref := range l.Predecessor {
			laneletElement.CreateElement("predecessor").CreateAttr("ref", ref)
		}
		for _, ref := range l.Successor {
			laneletElement.CreateElement("successor").CreateAttr("ref", ref)
		}
		if l.AdjLeft != "" {
			adjacent := laneletElement.CreateElement("adjacentLeft")
			adjacent.CreateAttr("ref", l.AdjLeft)
			adjacent.CreateAttr("drivingDir", drivingDir(l.AdjLeftSameDirection))
		}
		if l.AdjRight != "" {
			adjacent := laneletElement.CreateElement("adjacentRight")
			adjacent.CreateAttr("ref", l.AdjRight)
			adjacent.CreateAttr("drivingDir", drivingDir(l.AdjRightSameDirection))
		}
	}

	// 占位planningProblem：初始状态与目标状态均在原点
	problem := root.CreateElement("planningProblem")
	problem.CreateAttr("id", "1000")
	initial := problem.CreateElement("initialState")
	writeOriginPosition(initial)
	initial.CreateElement("orientation").CreateElement("exact").SetText("0")
	initial.CreateElement("time").CreateElement("exact").SetText("0")
	goal := problem.CreateElement("goalState")
	writeOriginPosition(goal)
	goal.CreateElement("time").CreateElement("exact").SetText("0")

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

// writeBound 写出一条边界折线
func writeBound(parent *etree.Element, name string, vertices []geometry.Point) {
	bound := parent.CreateElement(name)
	for _, v := range vertices {
		point := bound.CreateElement("point")
		point.CreateElement("x").SetText(formatFloat(v.X))
		point.CreateElement("y").SetText(formatFloat(v.Y))
	}
}

// writeOriginPosition 写出原点位置元素
func writeOriginPosition(parent *etree.Element) {
	point := parent.CreateElement("position").CreateElement("point")
	point.CreateElement("x").SetText("0")
	point.CreateElement("y").SetText("0")
}

// validateDocument 对commonRoad文档做结构校验
// 功能：逐项检查根属性、车道元边界与引用的结构合法性
// 算法说明：
// 1. 根属性齐全且版本取值合法
// 2. 每个lanelet有整数id、两条各≥2个点的边界，点坐标可解析
// 3. predecessor/successor引用为整数，adjacent的drivingDir取值合法
func validateDocument(doc *etree.Document) error {
	root := doc.SelectElement("commonRoad")
	if root == nil {
		return fmt.Errorf("%w: missing commonRoad root", ErrExportValidation)
	}
	for _, attr := range []string{"commonRoadVersion", "benchmarkID", "date", "timeStepSize"} {
		if root.SelectAttr(attr) == nil {
			return fmt.Errorf("%w: missing root attribute %s", ErrExportValidation, attr)
		}
	}
	if v := root.SelectAttrValue("commonRoadVersion", ""); !lo.Contains(commonRoadVersions, v) {
		return fmt.Errorf("%w: bad commonRoadVersion %q", ErrExportValidation, v)
	}
	for _, laneletElement := range root.SelectElements("lanelet") {
		id := laneletElement.SelectAttrValue("id", "")
		if _, err := strconv.Atoi(id); err != nil {
			return fmt.Errorf("%w: bad lanelet id %q", ErrExportValidation, id)
		}
		for _, name := range []string{"leftBound", "rightBound"} {
			bound := laneletElement.SelectElement(name)
			if bound == nil {
				return fmt.Errorf("%w: lanelet %s missing %s", ErrExportValidation, id, name)
			}
			points := bound.SelectElements("point")
			if len(points) < 2 {
				return fmt.Errorf("%w: lanelet %s %s has %d points", ErrExportValidation, id, name, len(points))
			}
			for _, point := range points {
				for _, coord := range []string{"x", "y"} {
					el := point.SelectElement(coord)
					if el == nil {
						return fmt.Errorf("%w: lanelet %s %s point missing %s", ErrExportValidation, id, name, coord)
					}
					if _, err := strconv.ParseFloat(el.Text(), 64); err != nil {
						return fmt.Errorf("%w: lanelet %s %s bad %s %q", ErrExportValidation, id, name, coord, el.Text())
					}
				}
			}
		}
		for _, name := range []string{"predecessor", "successor"} {
			for _, link := range laneletElement.SelectElements(name) {
				ref := link.SelectAttrValue("ref", "")
				if _, err := strconv.Atoi(ref); err != nil {
					return fmt.Errorf("%w: lanelet %s bad %s ref %q", ErrExportValidation, id, name, ref)
				}
			}
		}
		for _, name := range []string{"adjacentLeft", "adjacentRight"} {
			if adjacent := laneletElement.SelectElement(name); adjacent != nil {
				if _, err := strconv.Atoi(adjacent.SelectAttrValue("ref", "")); err != nil {
					return fmt.Errorf("%w: lanelet %s bad %s ref", ErrExportValidation, id, name)
				}
				if dir := adjacent.SelectAttrValue("drivingDir", ""); dir != "same" && dir != "opposite" {
					return fmt.Errorf("%w: lanelet %s bad drivingDir %q", ErrExportValidation, id, dir)
				}
			}
		}
	}
	return nil
}

// ReadScenario 从CommonRoad XML读回场景
// 功能：解析commonRoad文档为场景容器，中心折线按左右中点重建
// 参数：data-XML字节串
// 返回：场景与错误
func ReadScenario(data []byte) (*Scenario, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("read commonroad: %w", err)
	}
	root := doc.SelectElement("commonRoad")
	if root == nil {
		return nil, fmt.Errorf("read commonroad: missing commonRoad root")
	}
	dt, err := strconv.ParseFloat(root.SelectAttrValue("timeStepSize", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("read commonroad: bad timeStepSize: %w", err)
	}
	scenario := NewScenario(dt, root.SelectAttrValue("benchmarkID", ""))

	for _, laneletElement := range root.SelectElements("lanelet") {
		id := laneletElement.SelectAttrValue("id", "")
		left, err := readBound(laneletElement, "leftBound")
		if err != nil {
			return nil, fmt.Errorf("read commonroad: lanelet %s: %w", id, err)
		}
		right, err := readBound(laneletElement, "rightBound")
		if err != nil {
			return nil, fmt.Errorf("read commonroad: lanelet %s: %w", id, err)
		}
		if len(left) != len(right) {
			return nil, fmt.Errorf("read commonroad: lanelet %s: bound vertex count mismatch", id)
		}
		l := New(id, left, right)
		for _, link := range laneletElement.SelectElements("predecessor") {
			l.Predecessor = append(l.Predecessor, link.SelectAttrValue("ref", ""))
		}
		for _, link := range laneletElement.SelectElements("successor") {
			l.Successor = append(l.Successor, link.SelectAttrValue("ref", ""))
		}
		if adjacent := laneletElement.SelectElement("adjacentLeft"); adjacent != nil {
			l.AdjLeft = adjacent.SelectAttrValue("ref", "")
			l.AdjLeftSameDirection = adjacent.SelectAttrValue("drivingDir", "") == "same"
		}
		if adjacent := laneletElement.SelectElement("adjacentRight"); adjacent != nil {
			l.AdjRight = adjacent.SelectAttrValue("ref", "")
			l.AdjRightSameDirection = adjacent.SelectAttrValue("drivingDir", "") == "same"
		}
		if err := scenario.LaneletNetwork.Add(l); err != nil {
			return nil, err
		}
	}
	return scenario, nil
}

// readBound 读入一条边界折线
func readBound(parent *etree.Element, name string) ([]geometry.Point, error) {
	bound := parent.SelectElement(name)
	if bound == nil {
		return nil, fmt.Errorf("missing %s", name)
	}
	points := make([]geometry.Point, 0)
	for _, point := range bound.SelectElements("point") {
		var p geometry.Point
		for _, coord := range []string{"x", "y"} {
			el := point.SelectElement(coord)
			if el == nil {
				return nil, fmt.Errorf("%s point missing %s", name, coord)
			}
			v, err := strconv.ParseFloat(el.Text(), 64)
			if err != nil {
				return nil, fmt.Errorf("%s bad %s: %w", name, coord, err)
			}
			if coord == "x" {
				p.X = v
			} else {
				p.Y = v
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// formatFloat 输出最短可回读的十进制表示
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
