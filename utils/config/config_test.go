package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/opendrive2lanelet/utils/config"
	"gopkg.in/yaml.v2"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	rc := config.NewRuntimeConfig(config.Config{})
	assert.Equal(t, 0.5, rc.C.Precision)
	assert.Equal(t, 1e-6, rc.C.ConcatTolerance)
	assert.Equal(t, "2017a", rc.O.Version)
	assert.Equal(t, 0.1, rc.O.TimeStep)
}

func TestConfigYAML(t *testing.T) {
	data := `
input:
  file: maps/town01.xodr
conversion:
  precision: 0.25
  lane_types: [driving, onRamp]
output:
  version: 2018a
  benchmark_id: town01
`
	var c config.Config
	assert.NoError(t, yaml.UnmarshalStrict([]byte(data), &c))

	rc := config.NewRuntimeConfig(c)
	assert.Equal(t, "maps/town01.xodr", rc.All.Input.File)
	assert.Equal(t, 0.25, rc.C.Precision)
	assert.Equal(t, []string{"driving", "onRamp"}, rc.C.LaneTypes)
	assert.Equal(t, "2018a", rc.O.Version)
	assert.Equal(t, "town01", rc.O.BenchmarkID)
	// 未给出的项补默认值
	assert.Equal(t, 1e-6, rc.C.ConcatTolerance)
	assert.Equal(t, 0.1, rc.O.TimeStep)
}
