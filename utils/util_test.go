package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/utils"
)

func TestPolyval(t *testing.T) {
	// 升幂系数：1 + 2x + 3x²
	assert.InDelta(t, 1.0, utils.Polyval(0, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 6.0, utils.Polyval(1, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 17.0, utils.Polyval(2, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 0.0, utils.Polyval(5, nil), 1e-12)
}

func TestAllCloseToZero(t *testing.T) {
	assert.True(t, utils.AllCloseToZero([]float64{0, 0, 0, 0}))
	assert.True(t, utils.AllCloseToZero([]float64{1e-10, -1e-12}))
	assert.False(t, utils.AllCloseToZero([]float64{3.5, 0, 0, 0}))
}

func TestEncodeDecodeID(t *testing.T) {
	id := utils.EncodeRoadSectionLaneWidthID(5, 0, -1, -1)
	assert.Equal(t, "5.0.-1.-1", id)

	roadID, sectionIdx, laneID, widthIdx, err := utils.DecodeRoadSectionLaneWidthID(id)
	assert.NoError(t, err)
	assert.Equal(t, 5, roadID)
	assert.Equal(t, 0, sectionIdx)
	assert.Equal(t, -1, laneID)
	assert.Equal(t, -1, widthIdx)

	// test: 非法格式
	_, _, _, _, err = utils.DecodeRoadSectionLaneWidthID("1.2.3")
	assert.ErrorIs(t, err, utils.ErrIDFormat)
	_, _, _, _, err = utils.DecodeRoadSectionLaneWidthID("1.2.x.4")
	assert.ErrorIs(t, err, utils.ErrIDFormat)
}
