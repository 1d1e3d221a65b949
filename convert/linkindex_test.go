package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/convert"
)

func TestLinkIndexAddAndQuery(t *testing.T) {
	index := convert.NewLinkIndex()
	index.AddLink("a", "b")
	index.AddLink("a", "c")
	index.AddLink("a", "b") // 重复边去重
	index.AddLink("d", "b")

	assert.Equal(t, []string{"b", "c"}, index.Successors("a"))
	assert.Empty(t, index.Successors("b"))

	// 前驱为按插入顺序的反向扫描
	assert.Equal(t, []string{"a", "d"}, index.Predecessors("b"))
	assert.Equal(t, []string{"a"}, index.Predecessors("c"))
	assert.Empty(t, index.Predecessors("a"))
}

func TestLinkIndexSuccessorsCopy(t *testing.T) {
	index := convert.NewLinkIndex()
	index.AddLink("a", "b")

	successors := index.Successors("a")
	successors[0] = "mutated"
	assert.Equal(t, []string{"b"}, index.Successors("a"))
}

func TestLinkIndexRemove(t *testing.T) {
	index := convert.NewLinkIndex()
	index.AddLink("a", "b")
	index.AddLink("b", "c")
	index.AddLink("d", "b")

	index.Remove("b")

	assert.Empty(t, index.Successors("b"))
	assert.Empty(t, index.Successors("a"))
	assert.Empty(t, index.Successors("d"))
	assert.Empty(t, index.Predecessors("c"))
}
