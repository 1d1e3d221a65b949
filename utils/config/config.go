package config

// RuntimeConfig 运行时配置
// 功能：存储转换器运行时的配置信息，包含补全默认值后的各项参数
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All Config     // 全部配置
	C   Conversion // 转换过程配置
	O   Output     // 输出配置
}

// NewRuntimeConfig 根据配置创建运行时配置
// 功能：创建运行时配置对象，补全缺省项
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 创建运行时配置对象
// 2. 设置默认值：精度0.5m、拼接容差1e-6m、版本2017a、时间步长0.1s
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Conversion
	rc.O = config.Output

	if rc.C.Precision <= 0 {
		rc.C.Precision = 0.5
	}
	if rc.C.ConcatTolerance <= 0 {
		rc.C.ConcatTolerance = 1e-6
	}
	if rc.O.Version == "" {
		rc.O.Version = "2017a"
	}
	if rc.O.TimeStep <= 0 {
		rc.O.TimeStep = 0.1
	}

	return rc
}
