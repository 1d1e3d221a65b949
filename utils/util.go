package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"git.fiblab.net/general/common/v2/mathutil"
)

// ErrIDFormat 车道片段ID字符串格式错误
var ErrIDFormat = errors.New("bad road.section.lane.width id")

// Polyval 计算升幂多项式（[0]+[1]*x+[2]*x²+…）在x处的值，Horner法
func Polyval(x float64, coeffs []float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

// AllCloseToZero 判断系数是否全部接近0
func AllCloseToZero(coeffs []float64) bool {
	for _, c := range coeffs {
		if mathutil.Abs(c) > 1e-8 {
			return false
		}
	}
	return true
}

// EncodeRoadSectionLaneWidthID 将(roadId, sectionIdx, laneId, widthIdx)编码为"r.s.l.w"字符串ID。
// widthIdx为-1时表示车道组粒度。
func EncodeRoadSectionLaneWidthID(roadID, sectionIdx, laneID, widthIdx int) string {
	return fmt.Sprintf("%d.%d.%d.%d", roadID, sectionIdx, laneID, widthIdx)
}

// DecodeRoadSectionLaneWidthID 解析"r.s.l.w"字符串ID为四元组
func DecodeRoadSectionLaneWidthID(id string) (roadID, sectionIdx, laneID, widthIdx int, err error) {
	parts := strings.Split(id, ".")
	if len(parts) != 4 {
		err = fmt.Errorf("%w: %q", ErrIDFormat, id)
		return
	}
	values := make([]int, 4)
	for i, part := range parts {
		v, convErr := strconv.Atoi(part)
		if convErr != nil {
			err = fmt.Errorf("%w: %q", ErrIDFormat, id)
			return
		}
		values[i] = v
	}
	return values[0], values[1], values[2], values[3], nil
}
