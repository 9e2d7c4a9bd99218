package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/impact-report/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Company:    "Acme Corp",
			Status:     model.RunStatusComplete,
			OutputPath: "output/Acme Corp_Impact_Assessment_Report_20250615.docx",
			Tokens:     1234,
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Company:   "A Very Long Company Name That Needs Truncating",
			Status:    model.RunStatusInserting,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "COMPANY")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "1234")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "A Very Long Company Name Th...")
	assert.Contains(t, output, "inserting")
}

func TestRunsStats(t *testing.T) {
	now := time.Now()
	runs := []model.Run{
		{Status: model.RunStatusComplete, CreatedAt: now, UpdatedAt: now.Add(10 * time.Second), Tokens: 100, CostUSD: 0.01},
		{Status: model.RunStatusComplete, CreatedAt: now, UpdatedAt: now.Add(20 * time.Second), Tokens: 300, CostUSD: 0.02},
		{Status: model.RunStatusFailed, CreatedAt: now, UpdatedAt: now.Add(time.Second)},
		{Status: model.RunStatusResolving, CreatedAt: now, UpdatedAt: now},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, int64(400), s.Tokens)
	assert.InDelta(t, 0.03, s.Cost, 1e-9)
	assert.InDelta(t, 15.0, s.AvgDurSecs, 0.001)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "Avg duration:")
	assert.Contains(t, out, "15.0s")
	assert.Contains(t, out, "$0.0300")
}

func TestRunsStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Zero(t, s.Total)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	assert.NotContains(t, buf.String(), "Avg duration:")
}

func TestRunsSince(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{ID: "old", CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "new", CreatedAt: now.Add(-time.Hour)},
	}
	got := runsSince(runs, now.Add(-24*time.Hour))
	assert.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	assert.Len(t, runs, 2)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
