package opendrive

// LaneType OpenDRIVE车道类型（封闭枚举）
type LaneType string

const (
	LaneTypeNone          LaneType = "none"
	LaneTypeDriving       LaneType = "driving"
	LaneTypeStop          LaneType = "stop"
	LaneTypeShoulder      LaneType = "shoulder"
	LaneTypeBiking        LaneType = "biking"
	LaneTypeSidewalk      LaneType = "sidewalk"
	LaneTypeBorder        LaneType = "border"
	LaneTypeRestricted    LaneType = "restricted"
	LaneTypeParking       LaneType = "parking"
	LaneTypeBidirectional LaneType = "bidirectional"
	LaneTypeMedian        LaneType = "median"
	LaneTypeSpecial1      LaneType = "special1"
	LaneTypeSpecial2      LaneType = "special2"
	LaneTypeSpecial3      LaneType = "special3"
	LaneTypeRoadWorks     LaneType = "roadWorks"
	LaneTypeTram          LaneType = "tram"
	LaneTypeRail          LaneType = "rail"
	LaneTypeEntry         LaneType = "entry"
	LaneTypeExit          LaneType = "exit"
	LaneTypeOffRamp       LaneType = "offRamp"
	LaneTypeOnRamp        LaneType = "onRamp"
)

// laneTypes 全部合法车道类型集合
var laneTypes = map[LaneType]struct{}{
	LaneTypeNone: {}, LaneTypeDriving: {}, LaneTypeStop: {}, LaneTypeShoulder: {},
	LaneTypeBiking: {}, LaneTypeSidewalk: {}, LaneTypeBorder: {}, LaneTypeRestricted: {},
	LaneTypeParking: {}, LaneTypeBidirectional: {}, LaneTypeMedian: {}, LaneTypeSpecial1: {},
	LaneTypeSpecial2: {}, LaneTypeSpecial3: {}, LaneTypeRoadWorks: {}, LaneTypeTram: {},
	LaneTypeRail: {}, LaneTypeEntry: {}, LaneTypeExit: {}, LaneTypeOffRamp: {}, LaneTypeOnRamp: {},
}

// LaneTypeFromString 将字符串转换为车道类型
// 返回：车道类型与是否合法
func LaneTypeFromString(s string) (LaneType, bool) {
	t := LaneType(s)
	_, ok := laneTypes[t]
	return t, ok
}

// Lanes 道路的车道块
// 功能：保存参考线横向偏移与全部lane section
// 说明：LaneOffsets与LaneSections在解析时已按s升序排好
type Lanes struct {
	LaneOffsets  []*LaneOffset
	LaneSections []*LaneSection
}

// GetSection 根据索引查找lane section
func (l *Lanes) GetSection(idx int) *LaneSection {
	for _, section := range l.LaneSections {
		if section.Idx == idx {
			return section
		}
	}
	return nil
}

// LastSectionIdx 获取最后一个lane section的索引
func (l *Lanes) LastSectionIdx() int {
	if n := len(l.LaneSections); n > 1 {
		return n - 1
	}
	return 0
}

// LaneOffset 参考线中心的横向偏移三次多项式
type LaneOffset struct {
	SPos       float64
	A, B, C, D float64
}

// Coeffs 获取升幂系数
func (o *LaneOffset) Coeffs() []float64 {
	return []float64{o.A, o.B, o.C, o.D}
}

// LaneSection 车道断面：道路上车道集合保持不变的一段连续区间
// 功能：按左/中/右三侧保存车道列表
// 说明：LeftLanes按id升序（从1开始向外），RightLanes按id降序（从-1开始向外），
// 长度在解析后由相邻断面s值计算得到
type LaneSection struct {
	Idx        int
	SPos       float64
	Length     float64
	SingleSide bool

	LeftLanes   []*Lane
	CenterLanes []*Lane
	RightLanes  []*Lane
}

// AllLanes 获取三侧全部车道（不保证按id排序）
func (s *LaneSection) AllLanes() []*Lane {
	all := make([]*Lane, 0, len(s.LeftLanes)+len(s.CenterLanes)+len(s.RightLanes))
	all = append(all, s.LeftLanes...)
	all = append(all, s.CenterLanes...)
	all = append(all, s.RightLanes...)
	return all
}

// GetLane 根据带符号id查找车道
func (s *LaneSection) GetLane(id int) *Lane {
	for _, lane := range s.AllLanes() {
		if lane.ID == id {
			return lane
		}
	}
	return nil
}

// Lane 车道
// 功能：表示lane section内的一条车道，id符号表示侧别，绝对值表示自中心向外的序号
type Lane struct {
	ID    int
	Type  LaneType
	Level bool
	Link  LaneLink

	Widths  []*LaneWidth // 按sOffset升序
	Borders []*LaneWidth // 边界记录，仅解析保留
}

// GetWidth 根据索引查找宽度段
func (l *Lane) GetWidth(idx int) *LaneWidth {
	for _, width := range l.Widths {
		if width.Idx == idx {
			return width
		}
	}
	return nil
}

// LastWidthIdx 获取最后一个宽度段的索引
func (l *Lane) LastWidthIdx() int {
	if n := len(l.Widths); n > 1 {
		return n - 1
	}
	return 0
}

// LaneLink 车道级连接：相邻lane section（或相邻道路对应断面）内的车道id
// 说明：缺失的方向为nil
type LaneLink struct {
	Predecessor *int
	Successor   *int
}

// LaneWidth 宽度段：以sOffset为起点的三次多项式宽度定义
// 说明：Length为到下一宽度段（或断面终点）的距离，解析后计算
type LaneWidth struct {
	Idx        int
	SOffset    float64
	A, B, C, D float64
	Length     float64
}

// Coeffs 获取升幂系数
func (w *LaneWidth) Coeffs() []float64 {
	return []float64{w.A, w.B, w.C, w.D}
}
