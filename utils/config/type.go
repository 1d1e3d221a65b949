package config

// Input 指定转换器输入数据的配置项
// 功能：定义OpenDRIVE输入文件的来源
// 说明：File与Files可同时给出，转换时合并处理
type Input struct {
	File  string   `yaml:"file,omitempty"`  // 单个OpenDRIVE(.xodr)文件路径
	Files []string `yaml:"files,omitempty"` // OpenDRIVE文件路径列表
}

// Conversion 几何与拓扑转换过程的配置项
// 功能：定义离散化精度、拼接容差与车道类型过滤集合
type Conversion struct {
	Precision       float64  `yaml:"precision,omitempty"`        // 离散化步长(m)，默认0.5
	ConcatTolerance float64  `yaml:"concat_tolerance,omitempty"` // 折线拼接端点容差(m)，默认1e-6
	LaneTypes       []string `yaml:"lane_types,omitempty"`       // 参与导出的OpenDRIVE车道类型，为空则使用默认集合
}

// Output 指定CommonRoad输出的配置项
// 功能：定义输出文件格式版本与场景元数据
type Output struct {
	Version     string  `yaml:"version,omitempty"`      // commonRoadVersion，2017a或2018a，默认2017a
	BenchmarkID string  `yaml:"benchmark_id,omitempty"` // 场景benchmarkID，为空则按输入内容哈希生成
	TimeStep    float64 `yaml:"time_step,omitempty"`    // timeStepSize(s)，默认0.1
	Dir         string  `yaml:"dir,omitempty"`          // 输出目录，为空则输出到输入文件所在目录
}

// Config YAML配置文件的根结构
// 功能：定义整个转换器的配置结构
// 说明：包含输入、转换、输出三部分配置项
type Config struct {
	Input      Input      `yaml:"input"`      // 输入
	Conversion Conversion `yaml:"conversion"` // 转换过程控制
	Output     Output     `yaml:"output"`     // 输出
}
