package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersionString(t *testing.T) {
	s := GetFullVersionString("dashboards")

	assert.Contains(t, s, "dashboards v"+Version)
	assert.Contains(t, s, "vega-lite v5")
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
	assert.Equal(t, runtime.Version(), GetVersionInfo().GoVersion)
}
