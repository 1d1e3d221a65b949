package convert

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// LinkIndex 车道组后继关系索引
// 功能：以有向多重图保存"B沿行驶方向紧随A"的边，统一存为后继表，
// 前驱通过反向扫描获得
// 说明：键按插入顺序另存一份，保证反向扫描结果确定；
// 后继表内按插入顺序去重
type LinkIndex struct {
	successors map[string][]string
	order      []string // successors键的插入顺序
}

// NewLinkIndex 创建空索引
func NewLinkIndex() *LinkIndex {
	return &LinkIndex{
		successors: make(map[string][]string),
		order:      make([]string, 0),
	}
}

// AddLink 添加一条边：successor沿行驶方向紧随pLaneID
func (i *LinkIndex) AddLink(pLaneID, successor string) {
	if _, ok := i.successors[pLaneID]; !ok {
		i.successors[pLaneID] = make([]string, 0)
		i.order = append(i.order, pLaneID)
	}
	if !lo.Contains(i.successors[pLaneID], successor) {
		i.successors[pLaneID] = append(i.successors[pLaneID], successor)
	}
}

// Remove 删除一个节点及其全部出现
func (i *LinkIndex) Remove(pLaneID string) {
	if _, ok := i.successors[pLaneID]; ok {
		delete(i.successors, pLaneID)
		i.order = lo.Filter(i.order, func(id string, _ int) bool { return id != pLaneID })
	}
	for id, successors := range i.successors {
		i.successors[id] = lo.Filter(successors, func(s string, _ int) bool { return s != pLaneID })
	}
}

// Successors 获取后继列表（副本）
func (i *LinkIndex) Successors(pLaneID string) []string {
	return append([]string{}, i.successors[pLaneID]...)
}

// Predecessors 反向扫描获取前驱列表
// 说明：按键插入顺序扫描，结果确定且去重
func (i *LinkIndex) Predecessors(pLaneID string) []string {
	predecessors := make([]string, 0)
	for _, candidate := range i.order {
		if !lo.Contains(i.successors[candidate], pLaneID) {
			continue
		}
		if lo.Contains(predecessors, candidate) {
			continue
		}
		predecessors = append(predecessors, candidate)
	}
	return predecessors
}

func (i *LinkIndex) String() string {
	var sb strings.Builder
	sb.WriteString("Link Index:\n")
	for _, pre := range i.order {
		fmt.Fprintf(&sb, "\t%-15s > %s\n", pre, strings.Join(i.successors[pre], ", "))
	}
	return sb.String()
}
