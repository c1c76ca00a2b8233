package ui_test

import (
	"testing"

	"github.com/jrsteele09/promptstudio/internal/ui"
	"github.com/stretchr/testify/require"
)

func TestMethod(t *testing.T) {
	require.Equal(t, ui.Green+" GET    "+ui.ResetColor, ui.Method("GET"))
	require.Equal(t, ui.Gray+" PATCH  "+ui.ResetColor, ui.Method("PATCH"))
}

func TestStatus(t *testing.T) {
	require.Equal(t, ui.Green+"200"+ui.ResetColor, ui.Status(200))
	require.Equal(t, ui.Red+"401"+ui.ResetColor, ui.Status(401))
}
