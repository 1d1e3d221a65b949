package main

import (
	"bytes"
	"encoding/base64"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"git.fiblab.net/general/common/v2/parallel"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/tsinghua-fib-lab/opendrive2lanelet/convert"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/lanelet"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/opendrive"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/utils/config"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 单个输入文件，优先于配置中的输入
	inputPath = flag.String("input", "", "OpenDRIVE (.xodr) input file, overrides config input")
	// 输出目录，优先于配置中的输出目录
	outputDir = flag.String("output", "", "output directory, overrides config output dir")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "opendrive2lanelet")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	if *configPath != "" {
		file, err := os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
		if err := yaml.UnmarshalStrict(file, &c); err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err := base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
		if err := yaml.UnmarshalStrict(file, &c); err != nil {
			log.Panicf("config data load err: %v", err)
		}
	}
	rc := config.NewRuntimeConfig(c)
	if *outputDir != "" {
		rc.O.Dir = *outputDir
	}

	inputs := make([]string, 0)
	if *inputPath != "" {
		inputs = append(inputs, *inputPath)
	} else {
		if c.Input.File != "" {
			inputs = append(inputs, c.Input.File)
		}
		inputs = append(inputs, c.Input.Files...)
	}
	inputs = lo.Uniq(inputs)
	if len(inputs) == 0 {
		log.Panic("input file must be specified via -input or config")
	}

	filter := laneTypeFilter(rc)

	// 多文件并发处理；单个文件的转换本身是严格单线程的
	parallel.GoFor(inputs, func(path string) {
		convertFile(path, rc, filter)
	})
	log.Infof("converted %d file(s)", len(inputs))
}

// laneTypeFilter 根据配置构建车道类型过滤集合
// 说明：配置为空时返回nil，由导出流程采用缺省集合
func laneTypeFilter(rc *config.RuntimeConfig) []opendrive.LaneType {
	if len(rc.C.LaneTypes) == 0 {
		return nil
	}
	return lo.Map(rc.C.LaneTypes, func(s string, _ int) opendrive.LaneType {
		t, ok := opendrive.LaneTypeFromString(s)
		if !ok {
			log.Panicf("bad lane type %q in config", s)
		}
		return t
	})
}

// convertFile 转换单个OpenDRIVE文件并写出CommonRoad XML
// 功能：读取→解析→载入网络→导出场景→序列化→落盘
// 说明：转换过程中的几何/边界/重复ID错误均为致命错误
func convertFile(path string, rc *config.RuntimeConfig, filter []opendrive.LaneType) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Panicf("input file load err: %v", err)
	}
	od, err := opendrive.Parse(bytes.NewReader(data))
	if err != nil {
		log.Panicf("parse %s err: %v", path, err)
	}

	lanelet.SetConcatTolerance(rc.C.ConcatTolerance)

	network := convert.NewNetwork()
	if err := network.LoadOpenDrive(od); err != nil {
		log.Panicf("load %s err: %v", path, err)
	}

	benchmarkID := rc.O.BenchmarkID
	if benchmarkID == "" {
		benchmarkID = lanelet.DefaultBenchmarkID(data)
	}
	scenario, err := network.ExportCommonRoadScenario(rc.O.TimeStep, benchmarkID, rc.C.Precision, filter)
	if err != nil {
		log.Panicf("convert %s err: %v", path, err)
	}
	out, err := lanelet.WriteScenario(scenario, rc.O.Version)
	if err != nil {
		log.Panicf("serialise %s err: %v", path, err)
	}

	outPath := outputPath(path, rc.O.Dir)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		log.Panicf("write %s err: %v", outPath, err)
	}
	log.Infof("%s: %d lanelets -> %s", path, scenario.LaneletNetwork.Len(), outPath)
}

// outputPath 推导输出文件路径
// 说明：输出文件名为输入文件名去扩展名加.xml，目录缺省为输入所在目录
func outputPath(inputPath, dir string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".xml"
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, base)
}
