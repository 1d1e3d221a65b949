package lanelet

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// ErrDuplicateLanelet 以重复ID添加车道元
var ErrDuplicateLanelet = errors.New("duplicate lanelet id")

// laneletIDStart 重编号起始整数ID
const laneletIDStart = 100

// LaneletNetwork 车道元网络
// 功能：按插入顺序持有全部车道元，提供查找、引用修剪与整数重编号
type LaneletNetwork struct {
	lanelets []*Lanelet
	byID     map[string]*Lanelet
}

// NewLaneletNetwork 创建空车道元网络
func NewLaneletNetwork() *LaneletNetwork {
	return &LaneletNetwork{
		lanelets: make([]*Lanelet, 0),
		byID:     make(map[string]*Lanelet),
	}
}

// Add 添加车道元
// 返回：ID已存在时返回ErrDuplicateLanelet
func (n *LaneletNetwork) Add(l *Lanelet) error {
	if _, ok := n.byID[l.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLanelet, l.ID)
	}
	n.lanelets = append(n.lanelets, l)
	n.byID[l.ID] = l
	return nil
}

// FindByID 根据ID查找车道元
func (n *LaneletNetwork) FindByID(id string) (*Lanelet, bool) {
	l, ok := n.byID[id]
	return l, ok
}

// Lanelets 获取按插入顺序排列的全部车道元
func (n *LaneletNetwork) Lanelets() []*Lanelet {
	return n.lanelets
}

// Len 获取车道元数量
func (n *LaneletNetwork) Len() int {
	return len(n.lanelets)
}

// PruneReferences 修剪悬空引用
// 功能：删除前驱/后继/左邻/右邻中指向网络外的引用
// 说明：修剪在重编号之前进行，被剪掉的ID之后不得再被解引用
func (n *LaneletNetwork) PruneReferences() {
	exists := func(id string) bool {
		_, ok := n.byID[id]
		return ok
	}
	for _, l := range n.lanelets {
		l.Predecessor = lo.Filter(l.Predecessor, func(id string, _ int) bool { return exists(id) })
		l.Successor = lo.Filter(l.Successor, func(id string, _ int) bool { return exists(id) })
		if l.AdjLeft != "" && !exists(l.AdjLeft) {
			l.AdjLeft = ""
		}
		if l.AdjRight != "" && !exists(l.AdjRight) {
			l.AdjRight = ""
		}
	}
}

// Renumber 整数重编号
// 功能：按插入顺序从100起为每个车道元分配连续整数ID，原始ID保留在Description，
// 前驱/后继/邻接引用经同一映射重写
// 说明：对已重编号的网络再次调用不改变任何ID（幂等）
func (n *LaneletNetwork) Renumber() {
	assign := make(map[string]string)
	next := laneletIDStart
	convert := func(old string) string {
		if v, ok := assign[old]; ok {
			return v
		}
		v := strconv.Itoa(next)
		next++
		assign[old] = v
		return v
	}

	for _, l := range n.lanelets {
		old := l.ID
		l.ID = convert(old)
		if l.Description == "" {
			l.Description = old
		}
	}
	for _, l := range n.lanelets {
		l.Predecessor = lo.Map(l.Predecessor, func(id string, _ int) string { return convert(id) })
		l.Successor = lo.Map(l.Successor, func(id string, _ int) string { return convert(id) })
		if l.AdjLeft != "" {
			l.AdjLeft = convert(l.AdjLeft)
		}
		if l.AdjRight != "" {
			l.AdjRight = convert(l.AdjRight)
		}
	}

	n.byID = lo.SliceToMap(n.lanelets, func(l *Lanelet) (string, *Lanelet) {
		return l.ID, l
	})
}
