package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `{
  "A3": "Enrolled Sections",
  "B5": "CS101", "K5": "M-W-F | 9:00 AM - 9:50 AM | Hall 3", "M5": 45670, "N5": 45772
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertWritesDefaultOutputName(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "spring.json")
	require.NoError(t, os.WriteFile(input, []byte(export), 0o600))

	_, err := run(t, "convert", input, "--verify", "--log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "spring_calendar.ics"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTSTART;TZID=America/New_York:20250113T090000\r\n")
}

func TestConvertHonorsOutputAndZone(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "spring.json")
	output := filepath.Join(dir, "out.ics")
	require.NoError(t, os.WriteFile(input, []byte(export), 0o600))

	_, err := run(t, "convert", input, "-o", output, "--tz", "America/Denver", "--log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TZID:America/Denver\r\n")
}

func TestConvertRejectsUnknownZone(t *testing.T) {
	input := filepath.Join(t.TempDir(), "spring.json")
	require.NoError(t, os.WriteFile(input, []byte(export), 0o600))

	_, err := run(t, "convert", input, "--tz", "Mars/Olympus", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported --tz")
}

func TestConvertStructuralInputStillWritesEmptyCalendar(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(input, []byte(`[]`), 0o600))

	_, err := run(t, "convert", input, "--log-level", "error")
	require.Error(t, err)

	data, rerr := os.ReadFile(filepath.Join(dir, "broken_calendar.ics"))
	require.NoError(t, rerr)
	assert.True(t, strings.HasPrefix(string(data), "BEGIN:VCALENDAR\r\n"))
	assert.NotContains(t, string(data), "VEVENT")
}

func TestPreviewPrintsTable(t *testing.T) {
	input := filepath.Join(t.TempDir(), "spring.json")
	require.NoError(t, os.WriteFile(input, []byte(export), 0o600))

	out, err := run(t, "preview", input, "--weeks", "1", "--log-level", "error")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "Mon 2025-01-13")
	assert.Contains(t, lines[1], "09:00")
	assert.Contains(t, lines[1], "09:50")
	assert.Contains(t, lines[3], "Fri 2025-01-17")
}

func TestUnknownLogLevelFails(t *testing.T) {
	_, err := run(t, "convert", "x.json", "--log-level", "loud")
	assert.Error(t, err)
}
