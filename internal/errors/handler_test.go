package errors

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errorsTotalValue reads the errors_total counter for a label pair from the
// default registry.
func errorsTotalValue(t *testing.T, errType, severity string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != "errors_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchLabels(metric, errType, severity) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(metric *dto.Metric, errType, severity string) bool {
	var gotType, gotSeverity string
	for _, label := range metric.GetLabel() {
		switch label.GetName() {
		case "type":
			gotType = label.GetValue()
		case "severity":
			gotSeverity = label.GetValue()
		}
	}
	return gotType == errType && gotSeverity == severity
}

func TestHandle_DomainRejectionIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := NewHandler(log, false)

	before := errorsTotalValue(t, "E200", "high")

	h.Handle(context.Background(), ErrAlreadyQueued)
	h.Handle(context.Background(), ErrNotInChat)

	assert.Empty(t, buf.String(), "rejections must not log above debug")
	assert.Equal(t, before, errorsTotalValue(t, "E200", "high"))
}

func TestHandle_AppErrorIsCounted(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), false)

	before := errorsTotalValue(t, "E200", "high")
	h.Handle(context.Background(), NewStorageError("insert", errors.New("connection reset")))

	assert.Equal(t, before+1, errorsTotalValue(t, "E200", "high"))
}

func TestHandle_UnexpectedErrorIsCounted(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), false)

	before := errorsTotalValue(t, "unexpected", "high")
	h.Handle(context.Background(), errors.New("something else entirely"))

	assert.Equal(t, before+1, errorsTotalValue(t, "unexpected", "high"))
}

func TestHandle_NilErrorIsNoop(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	h.Handle(context.Background(), nil)
	assert.Empty(t, buf.String())
}
