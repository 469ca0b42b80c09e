package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "pontos"}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.ErrorContains(t, err, "application name")
}

func TestProfileTypes(t *testing.T) {
	assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU}, profileTypes(ProfilerConfig{}))

	all := profileTypes(ProfilerConfig{Memory: true, Goroutines: true})
	assert.Len(t, all, 6)
	assert.Contains(t, all, pyroscope.ProfileInuseSpace)
	assert.Contains(t, all, pyroscope.ProfileGoroutines)
}
