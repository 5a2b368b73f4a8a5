package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormDataRoundTrip(t *testing.T) {
	data := FormData{"f_email": "a@b.co", "f_name": "Ada"}

	value, err := data.Value()
	require.NoError(t, err)

	var scanned FormData
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, data, scanned)
}

func TestFormDataScanNil(t *testing.T) {
	var scanned FormData
	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)
}

func TestFormDataScanRejectsUnknownType(t *testing.T) {
	var scanned FormData
	require.Error(t, scanned.Scan(42))
}

func TestDebugLogRender(t *testing.T) {
	dbg := NewDebugLog("FORCE SYNC")
	assert.True(t, dbg.Empty())

	dbg.Add("submit error: %v", "connection refused")
	dbg.Add("giving up")
	assert.False(t, dbg.Empty())

	rendered := dbg.Render()
	assert.True(t, strings.HasPrefix(rendered, "<FORCE SYNC>"))
	assert.True(t, strings.HasSuffix(rendered, "</FORCE SYNC>\n"))
	assert.Contains(t, rendered, "submit error: connection refused")

	openIdx := strings.Index(rendered, "connection refused")
	giveIdx := strings.Index(rendered, "giving up")
	assert.Less(t, openIdx, giveIdx)
}

func TestDebugLogNilSafe(t *testing.T) {
	var dbg *DebugLog
	assert.True(t, dbg.Empty())
	assert.Empty(t, dbg.Render())
}
