package handlers

import (
	"testing"
	"time"
	"vendtrack/models"

	"github.com/stretchr/testify/assert"
)

func TestCSVCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"=HYPERLINK(\"http://x\")", "'=HYPERLINK(\"http://x\")"},
		{"+90 555", "'+90 555"},
		{"-1", "'-1"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\tcmd", "'\tcmd"},
		{"Kadıköy", "Kadıköy"},
		{"DGS-00120240501", "DGS-00120240501"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, csvCell(tt.in), tt.in)
	}
}

func TestExportRow(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	row := exportRow(models.Report{
		ID:        "DGS-00120240501",
		Type:      models.ReportTypeFridge,
		UserID:    "u1",
		Location:  "=cmd|' /C calc'!A0",
		Notes:     "filled",
		Photos:    map[string][]string{"before": {"a", "b"}, "after": {"c"}},
		Details:   map[string]interface{}{"shelves": 4},
		CreatedAt: at,
		UpdatedAt: at,
	})

	assert.Len(t, row, len(exportHeader))
	assert.Equal(t, "DGS-00120240501", row[0])
	assert.Equal(t, "'=cmd|' /C calc'!A0", row[5])
	assert.Equal(t, "filled", row[6])
	assert.Equal(t, "3", row[7])
	assert.Equal(t, "2024-05-01T09:30:00Z", row[8])
	assert.Equal(t, `{"shelves":4}`, row[10])
}
