package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		format func(string) string
		name   string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: SuccessIcon},
		{name: "error", format: FormatError, icon: ErrorIcon},
		{name: "warning", format: FormatWarning, icon: WarningIcon},
		{name: "info", format: FormatInfo, icon: InfoIcon},
		{name: "title", format: FormatTitle, icon: ReceiptIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("kvittering")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "kvittering")
		})
	}
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Tittel", "innhold")
	assert.Contains(t, out, "Tittel")
	assert.Contains(t, out, "innhold")
}
