package convert_test

import (
	"math"
	"sort"
	"strconv"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/convert"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/lanelet"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive/planview"
)

// straightRoadAt 沿x轴的单断面直线道路
// 左右各给出若干行车道宽度，自中心向外
func straightRoadAt(id int, startX, length, laneOffsetA float64, leftWidths, rightWidths []float64) *opendrive.Road {
	pv := planview.NewPlanView()
	pv.AddLine(geometry.Point{X: startX}, 0, length)
	road := &opendrive.Road{ID: id, Junction: -1, Length: length, PlanView: pv}
	if laneOffsetA != 0 {
		road.Lanes.LaneOffsets = append(road.Lanes.LaneOffsets, &opendrive.LaneOffset{A: laneOffsetA})
	}
	section := &opendrive.LaneSection{Idx: 0, SPos: 0, Length: length}
	section.CenterLanes = append(section.CenterLanes, &opendrive.Lane{ID: 0, Type: opendrive.LaneTypeDriving})
	for i, w := range leftWidths {
		section.LeftLanes = append(section.LeftLanes, &opendrive.Lane{
			ID:     i + 1,
			Type:   opendrive.LaneTypeDriving,
			Widths: []*opendrive.LaneWidth{{Idx: 0, A: w, Length: length}},
		})
	}
	for i, w := range rightWidths {
		section.RightLanes = append(section.RightLanes, &opendrive.Lane{
			ID:     -(i + 1),
			Type:   opendrive.LaneTypeDriving,
			Widths: []*opendrive.LaneWidth{{Idx: 0, A: w, Length: length}},
		})
	}
	road.Lanes.LaneSections = append(road.Lanes.LaneSections, section)
	return road
}

func export(t *testing.T, od *opendrive.OpenDrive) *lanelet.LaneletNetwork {
	t.Helper()
	network := convert.NewNetwork()
	require.NoError(t, network.LoadOpenDrive(od))
	net, err := network.ExportLaneletNetwork(0.5, nil)
	require.NoError(t, err)
	assertNetworkInvariants(t, net)
	return net
}

// assertNetworkInvariants 检查通用不变式：
// 顶点数、中点关系、引用闭合、编号从100起连续唯一
func assertNetworkInvariants(t *testing.T, net *lanelet.LaneletNetwork) {
	t.Helper()
	ids := make([]int, 0, net.Len())
	for _, l := range net.Lanelets() {
		require.GreaterOrEqual(t, len(l.LeftVertices), 2)
		require.Equal(t, len(l.LeftVertices), len(l.CenterVertices))
		require.Equal(t, len(l.CenterVertices), len(l.RightVertices))
		for i, c := range l.CenterVertices {
			assert.InDelta(t, (l.LeftVertices[i].X+l.RightVertices[i].X)/2, c.X, 1e-9)
			assert.InDelta(t, (l.LeftVertices[i].Y+l.RightVertices[i].Y)/2, c.Y, 1e-9)
		}
		for _, ref := range append(append([]string{}, l.Predecessor...), l.Successor...) {
			_, ok := net.FindByID(ref)
			assert.True(t, ok, "dangling reference %s", ref)
		}
		for _, ref := range []string{l.AdjLeft, l.AdjRight} {
			if ref != "" {
				_, ok := net.FindByID(ref)
				assert.True(t, ok, "dangling adjacency %s", ref)
			}
		}
		id, err := strconv.Atoi(l.ID)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, 100+i, id)
	}
}

func findByDescription(t *testing.T, net *lanelet.LaneletNetwork, description string) *lanelet.Lanelet {
	t.Helper()
	for _, l := range net.Lanelets() {
		if l.Description == description {
			return l
		}
	}
	t.Fatalf("no lanelet with description %s", description)
	return nil
}

func polylineLength(points []geometry.Point) float64 {
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += math.Hypot(points[i].X-points[i-1].X, points[i].Y-points[i-1].Y)
	}
	return length
}

func TestStraightSingleLaneRoad(t *testing.T) {
	// 100m直路，单右侧行车道宽3.5，laneOffset抬高参考线使车道中心落在x轴上
	od := &opendrive.OpenDrive{
		Roads: []*opendrive.Road{straightRoadAt(1, 0, 100, 1.75, nil, []float64{3.5})},
	}
	net := export(t, od)
	require.Equal(t, 1, net.Len())

	l := net.Lanelets()[0]
	assert.Equal(t, "100", l.ID)
	assert.Equal(t, "1.0.-1.-1", l.Description)

	// 两端宽度3.5
	n := len(l.CenterVertices)
	widthAt := func(i int) float64 {
		return math.Hypot(l.LeftVertices[i].X-l.RightVertices[i].X, l.LeftVertices[i].Y-l.RightVertices[i].Y)
	}
	assert.InDelta(t, 3.5, widthAt(0), 1e-6)
	assert.InDelta(t, 3.5, widthAt(n-1), 1e-6)

	// 中心线沿x轴从(0,0)到(100,0)
	assert.InDelta(t, 0, l.CenterVertices[0].X, 1e-6)
	assert.InDelta(t, 0, l.CenterVertices[0].Y, 1e-6)
	assert.InDelta(t, 100, l.CenterVertices[n-1].X, 1e-6)
	assert.InDelta(t, 0, l.CenterVertices[n-1].Y, 1e-6)

	// 无前驱后继与邻接
	assert.Empty(t, l.Predecessor)
	assert.Empty(t, l.Successor)
	assert.Equal(t, "", l.AdjLeft)
	assert.Equal(t, "", l.AdjRight)

	// 右侧车道折线沿参考s单调
	for i := 1; i < n; i++ {
		assert.Greater(t, l.CenterVertices[i].X, l.CenterVertices[i-1].X)
	}
}

func TestTwoJoinedRoads(t *testing.T) {
	// 两条50m道路首尾相接，各一条右侧行车道宽3.0
	r1 := straightRoadAt(1, 0, 50, 0, nil, []float64{3.0})
	r2 := straightRoadAt(2, 50, 50, 0, nil, []float64{3.0})
	r1.Link.Successor = &opendrive.RoadLinkTarget{
		ElementType: opendrive.ElementRoad, ElementID: 2, ContactPoint: opendrive.ContactStart,
	}
	r2.Link.Predecessor = &opendrive.RoadLinkTarget{
		ElementType: opendrive.ElementRoad, ElementID: 1, ContactPoint: opendrive.ContactEnd,
	}
	successorID := -1
	r1.Lanes.LaneSections[0].RightLanes[0].Link.Successor = &successorID
	predecessorID := -1
	r2.Lanes.LaneSections[0].RightLanes[0].Link.Predecessor = &predecessorID

	net := export(t, &opendrive.OpenDrive{Roads: []*opendrive.Road{r1, r2}})
	require.Equal(t, 2, net.Len())

	a := findByDescription(t, net, "1.0.-1.-1")
	b := findByDescription(t, net, "2.0.-1.-1")
	assert.Equal(t, []string{b.ID}, a.Successor)
	assert.Equal(t, []string{a.ID}, b.Predecessor)

	// 方向约定：边A→B则A在B的前驱中
	for _, l := range net.Lanelets() {
		for _, succ := range l.Successor {
			target, ok := net.FindByID(succ)
			require.True(t, ok)
			assert.Contains(t, target.Predecessor, l.ID)
		}
	}

	// 总通行长度约100m
	total := polylineLength(a.CenterVertices) + polylineLength(b.CenterVertices)
	assert.InDelta(t, 100, total, 1e-3)
}

func TestTwoRightLanes(t *testing.T) {
	// 单道路80m，两条右侧行车道宽3.5与3.0
	od := &opendrive.OpenDrive{
		Roads: []*opendrive.Road{straightRoadAt(1, 0, 80, 0, nil, []float64{3.5, 3.0})},
	}
	net := export(t, od)
	require.Equal(t, 2, net.Len())

	innerLane := findByDescription(t, net, "1.0.-1.-1")
	outerLane := findByDescription(t, net, "1.0.-2.-1")

	// 内侧车道右邻为外侧车道，同向；与中心车道无邻接
	assert.Equal(t, outerLane.ID, innerLane.AdjRight)
	assert.True(t, innerLane.AdjRightSameDirection)
	assert.Equal(t, "", innerLane.AdjLeft)

	assert.Equal(t, innerLane.ID, outerLane.AdjLeft)
	assert.True(t, outerLane.AdjLeftSameDirection)
	assert.Equal(t, "", outerLane.AdjRight)
}

func TestLeftAndRightLane(t *testing.T) {
	// 单道路60m，左右各一条行车道宽3.5，互为左邻且方向相反
	od := &opendrive.OpenDrive{
		Roads: []*opendrive.Road{straightRoadAt(1, 0, 60, 0, []float64{3.5}, []float64{3.5})},
	}
	net := export(t, od)
	require.Equal(t, 2, net.Len())

	rightLane := findByDescription(t, net, "1.0.-1.-1")
	leftLane := findByDescription(t, net, "1.0.1.-1")

	assert.Equal(t, leftLane.ID, rightLane.AdjLeft)
	assert.False(t, rightLane.AdjLeftSameDirection)
	assert.Equal(t, rightLane.ID, leftLane.AdjLeft)
	assert.False(t, leftLane.AdjLeftSameDirection)

	// 右侧车道沿s方向，左侧车道取反后逆s方向
	nRight := len(rightLane.CenterVertices)
	assert.Less(t, rightLane.CenterVertices[0].X, rightLane.CenterVertices[nRight-1].X)
	nLeft := len(leftLane.CenterVertices)
	assert.Greater(t, leftLane.CenterVertices[0].X, leftLane.CenterVertices[nLeft-1].X)
}

func TestTJunction(t *testing.T) {
	// 入路1经路口分出两条连接路10、11
	r1 := straightRoadAt(1, 0, 50, 0, nil, []float64{3.5})
	r10 := straightRoadAt(10, 50, 30, 0, nil, []float64{3.5})
	r10.Junction = 100
	r11 := straightRoadAt(11, 50, 30, 0, nil, []float64{3.5})
	r11.Junction = 100
	r1.Link.Successor = &opendrive.RoadLinkTarget{
		ElementType: opendrive.ElementJunction, ElementID: 100,
	}
	junction := &opendrive.Junction{
		ID: 100,
		Connections: []*opendrive.Connection{
			{
				ID: 0, IncomingRoad: 1, ConnectingRoad: 10, ContactPoint: opendrive.ContactStart,
				LaneLinks: []*opendrive.ConnectionLaneLink{{From: -1, To: -1}},
			},
			{
				ID: 1, IncomingRoad: 1, ConnectingRoad: 11, ContactPoint: opendrive.ContactStart,
				LaneLinks: []*opendrive.ConnectionLaneLink{{From: -1, To: -1}},
			},
		},
	}
	net := export(t, &opendrive.OpenDrive{
		Roads:     []*opendrive.Road{r1, r10, r11},
		Junctions: []*opendrive.Junction{junction},
	})
	require.Equal(t, 3, net.Len())

	incoming := findByDescription(t, net, "1.0.-1.-1")
	first := findByDescription(t, net, "10.0.-1.-1")
	second := findByDescription(t, net, "11.0.-1.-1")

	// 入路末端接到两条连接路起点
	assert.ElementsMatch(t, []string{first.ID, second.ID}, incoming.Successor)
	assert.Equal(t, []string{incoming.ID}, first.Predecessor)
	assert.Equal(t, []string{incoming.ID}, second.Predecessor)

	// 方向约定
	for _, l := range net.Lanelets() {
		for _, succ := range l.Successor {
			target, ok := net.FindByID(succ)
			require.True(t, ok)
			assert.Contains(t, target.Predecessor, l.ID)
		}
	}
}

func TestJunctionLeftLaneDirection(t *testing.T) {
	// 左侧车道（正id）的行驶方向与s轴相反，路口边按fromId符号反向编入
	r1 := straightRoadAt(1, 0, 50, 0, []float64{3.5}, nil)
	r10 := straightRoadAt(10, 50, 30, 0, []float64{3.5}, nil)
	r10.Junction = 100
	r1.Link.Successor = &opendrive.RoadLinkTarget{
		ElementType: opendrive.ElementJunction, ElementID: 100,
	}
	junction := &opendrive.Junction{
		ID: 100,
		Connections: []*opendrive.Connection{
			{
				ID: 0, IncomingRoad: 1, ConnectingRoad: 10, ContactPoint: opendrive.ContactStart,
				LaneLinks: []*opendrive.ConnectionLaneLink{{From: 1, To: 1}},
			},
		},
	}
	net := export(t, &opendrive.OpenDrive{
		Roads:     []*opendrive.Road{r1, r10},
		Junctions: []*opendrive.Junction{junction},
	})
	require.Equal(t, 2, net.Len())

	incoming := findByDescription(t, net, "1.0.1.-1")
	connecting := findByDescription(t, net, "10.0.1.-1")

	// 左侧车道的交通从连接路流入入路
	assert.Equal(t, []string{incoming.ID}, connecting.Successor)
	assert.Equal(t, []string{connecting.ID}, incoming.Predecessor)
	assert.Empty(t, incoming.Successor)
	assert.Empty(t, connecting.Predecessor)
}

func TestLaneTypeFilter(t *testing.T) {
	// sidewalk不在缺省过滤集合内
	road := straightRoadAt(1, 0, 50, 0, nil, []float64{3.5, 2.0})
	road.Lanes.LaneSections[0].RightLanes[1].Type = opendrive.LaneTypeSidewalk
	net := export(t, &opendrive.OpenDrive{Roads: []*opendrive.Road{road}})
	require.Equal(t, 1, net.Len())
	assert.Equal(t, "1.0.-1.-1", net.Lanelets()[0].Description)
	// 邻接指向被过滤车道的引用被修剪
	assert.Equal(t, "", net.Lanelets()[0].AdjRight)

	// 显式过滤集合
	network := convert.NewNetwork()
	require.NoError(t, network.LoadOpenDrive(&opendrive.OpenDrive{
		Roads: []*opendrive.Road{straightRoadAt(2, 0, 50, 0, nil, []float64{3.5})},
	}))
	empty, err := network.ExportLaneletNetwork(0.5, []opendrive.LaneType{opendrive.LaneTypeSidewalk})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestEndOfLaneMergeRewritesVertices(t *testing.T) {
	// 内外两条右侧车道都没有后继：末端邻接合并重写折线
	od := &opendrive.OpenDrive{
		Roads: []*opendrive.Road{straightRoadAt(1, 0, 80, 0, nil, []float64{3.5, 3.0})},
	}
	network := convert.NewNetwork()
	require.NoError(t, network.LoadOpenDrive(od))
	net, err := network.ExportLaneletNetwork(0.5, nil)
	require.NoError(t, err)

	innerLane := findByDescription(t, net, "1.0.-1.-1")
	// 内侧车道先做后继合并（adjRight、refDistance=[-w,0]）再做前驱合并
	// （refDistance=[0,w]），后者最终生效：外（右）边界终点向内收w=3.0
	n := len(innerLane.LeftVertices)
	assert.InDelta(t, 0, innerLane.LeftVertices[0].Y, 1e-6)
	assert.InDelta(t, 0, innerLane.LeftVertices[n-1].Y, 1e-6)
	assert.InDelta(t, -3.5, innerLane.RightVertices[0].Y, 1e-6)
	assert.InDelta(t, -0.5, innerLane.RightVertices[n-1].Y, 1e-6)
}
