package lanelet

import (
	"fmt"

	"github.com/cespare/xxhash"
)

// Scenario CommonRoad场景容器
// 功能：持有车道元网络与场景元数据，交给序列化器输出
type Scenario struct {
	DT             float64
	BenchmarkID    string
	LaneletNetwork *LaneletNetwork
}

// NewScenario 创建空场景
// 参数：dt-时间步长，benchmarkID-场景标识
func NewScenario(dt float64, benchmarkID string) *Scenario {
	if benchmarkID == "" {
		benchmarkID = "none"
	}
	return &Scenario{
		DT:             dt,
		BenchmarkID:    benchmarkID,
		LaneletNetwork: NewLaneletNetwork(),
	}
}

// AddNetwork 将车道元网络并入场景
// 返回：ID冲突时返回ErrDuplicateLanelet
func (s *Scenario) AddNetwork(n *LaneletNetwork) error {
	for _, l := range n.Lanelets() {
		if err := s.LaneletNetwork.Add(l); err != nil {
			return err
		}
	}
	return nil
}

// DefaultBenchmarkID 根据输入内容生成缺省benchmarkID
// 功能：对输入字节做xxhash摘要，保证同一输入得到稳定的场景标识
func DefaultBenchmarkID(input []byte) string {
	return fmt.Sprintf("scenario-%016x", xxhash.Sum64(input))
}
