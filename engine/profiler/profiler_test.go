package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/stretchr/testify/assert"
)

func TestTickWaitsForInterval(t *testing.T) {
	p := NewProfiler()
	p.SetUpdateInterval(time.Hour)
	assert.False(t, p.Tick(renderer.Stats{DrawCalls: 3}))
	assert.Equal(t, Report{}, p.Last())
}

func TestTickReportsRendererStats(t *testing.T) {
	var buf bytes.Buffer
	logger.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer logger.SetLogger(nil)

	p := NewProfiler()
	p.SetUpdateInterval(0)
	stats := renderer.Stats{DrawCalls: 12, StateChanges: 4, SkippedDraws: 1}

	assert.True(t, p.Tick(stats))
	assert.Equal(t, stats, p.Last().Stats)
	assert.Positive(t, p.Last().FPS)
	assert.Contains(t, buf.String(), "draw_calls=12")
	assert.Contains(t, buf.String(), "component=profiler")
}
