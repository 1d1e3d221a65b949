package lanelet_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/lanelet"
)

// renumberedScenario 已重编号的双车道元场景
func renumberedScenario(t *testing.T) *lanelet.Scenario {
	t.Helper()
	network := lanelet.NewLaneletNetwork()
	a := straightLanelet("1.0.-1.-1", 0, 50, 3.0, 6)
	a.Successor = []string{"2.0.-1.-1"}
	b := straightLanelet("2.0.-1.-1", 50, 100, 3.0, 6)
	b.Predecessor = []string{"1.0.-1.-1"}
	b.AdjRight = "1.0.-1.-1"
	b.AdjRightSameDirection = true
	require.NoError(t, network.Add(a))
	require.NoError(t, network.Add(b))
	network.Renumber()

	scenario := lanelet.NewScenario(0.1, "test-scenario")
	require.NoError(t, scenario.AddNetwork(network))
	return scenario
}

func TestWriteScenario(t *testing.T) {
	scenario := renumberedScenario(t)
	out, err := lanelet.WriteScenario(scenario, "2017a")
	require.NoError(t, err)
	assert.Contains(t, string(out), `benchmarkID="test-scenario"`)
	assert.Contains(t, string(out), `<lanelet id="100">`)
	assert.Contains(t, string(out), `<successor ref="101"/>`)
	assert.Contains(t, string(out), `<adjacentRight ref="100" drivingDir="same"/>`)
	assert.Contains(t, string(out), "<planningProblem")
}

func TestWriteScenarioBadVersion(t *testing.T) {
	scenario := renumberedScenario(t)
	_, err := lanelet.WriteScenario(scenario, "2016a")
	assert.ErrorIs(t, err, lanelet.ErrExportValidation)
}

func TestWriteScenarioRejectsUnnumberedIDs(t *testing.T) {
	// 未重编号的字符串ID通不过结构校验
	network := lanelet.NewLaneletNetwork()
	require.NoError(t, network.Add(straightLanelet("1.0.-1.-1", 0, 10, 3, 2)))
	scenario := lanelet.NewScenario(0.1, "x")
	require.NoError(t, scenario.AddNetwork(network))

	_, err := lanelet.WriteScenario(scenario, "2017a")
	assert.ErrorIs(t, err, lanelet.ErrExportValidation)
}

func TestScenarioRoundTrip(t *testing.T) {
	scenario := renumberedScenario(t)
	out, err := lanelet.WriteScenario(scenario, "2018a")
	require.NoError(t, err)

	loaded, err := lanelet.ReadScenario(out)
	require.NoError(t, err)

	// 车道元数量、顶点数量、前驱后继集合保持不变
	require.Equal(t, scenario.LaneletNetwork.Len(), loaded.LaneletNetwork.Len())
	for i, want := range scenario.LaneletNetwork.Lanelets() {
		got := loaded.LaneletNetwork.Lanelets()[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Len(t, got.LeftVertices, len(want.LeftVertices))
		assert.Len(t, got.CenterVertices, len(want.CenterVertices))
		assert.Len(t, got.RightVertices, len(want.RightVertices))
		assert.Equal(t, sorted(want.Predecessor), sorted(got.Predecessor))
		assert.Equal(t, sorted(want.Successor), sorted(got.Successor))
		assert.Equal(t, want.AdjLeft, got.AdjLeft)
		assert.Equal(t, want.AdjRight, got.AdjRight)
		for j, v := range want.CenterVertices {
			assert.InDelta(t, v.X, got.CenterVertices[j].X, 1e-9)
			assert.InDelta(t, v.Y, got.CenterVertices[j].Y, 1e-9)
		}
	}
	assert.Equal(t, scenario.BenchmarkID, loaded.BenchmarkID)
	assert.InDelta(t, scenario.DT, loaded.DT, 1e-12)
}

func TestDefaultBenchmarkID(t *testing.T) {
	a := lanelet.DefaultBenchmarkID([]byte("input-a"))
	b := lanelet.DefaultBenchmarkID([]byte("input-b"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, lanelet.DefaultBenchmarkID([]byte("input-a")))
	assert.Contains(t, a, "scenario-")
}

func sorted(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
