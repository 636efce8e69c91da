package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/sokogen/internal/scripting"
)

func TestRunLayoutString_StringRows(t *testing.T) {
	rows, err := scripting.RunLayoutString(context.Background(), `return { "#@", ". " }`, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"#", "@"}, {".", " "}}, rows)
}

func TestRunLayoutString_TokenRows(t *testing.T) {
	rows, err := scripting.RunLayoutString(context.Background(), `return { {"NOP", "A"}, {1, "#"} }`, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"NOP", "A"}, {"1", "#"}}, rows)
}

func TestRunLayoutString_Room(t *testing.T) {
	rows, err := scripting.RunLayoutString(context.Background(), `
		local g = layout.room(5, 1, "W", "F")
		g[3][3] = "P"
		return g
	`, 0)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"W", "W", "W", "W", "F"}, rows[0])
	assert.Equal(t, []string{"W", "F", "P", "W", "F"}, rows[2])
	assert.Equal(t, []string{"F", "F", "F", "F", "F"}, rows[4])
}

func TestRunLayoutString_Empty(t *testing.T) {
	rows, err := scripting.RunLayoutString(context.Background(), `return layout.empty(2, "F")`, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"F", "F"}, {"F", "F"}}, rows)
}

func TestRunLayoutString_RoomBadBorder(t *testing.T) {
	_, err := scripting.RunLayoutString(context.Background(), `return layout.room(4, 0, "W", "F")`, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "border")
}

func TestRunLayoutString_SizeTooLarge(t *testing.T) {
	_, err := scripting.RunLayoutString(context.Background(), `return layout.empty(100000, "F")`, 0)
	assert.Error(t, err)
}

func TestRunLayoutString_NoReturn(t *testing.T) {
	_, err := scripting.RunLayoutString(context.Background(), `local x = 1`, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned nothing")
}

func TestRunLayoutString_WrongReturnType(t *testing.T) {
	_, err := scripting.RunLayoutString(context.Background(), `return 42`, 0)
	assert.Error(t, err)
	_, err = scripting.RunLayoutString(context.Background(), `return { true }`, 0)
	assert.Error(t, err)
	_, err = scripting.RunLayoutString(context.Background(), `return { { {} } }`, 0)
	assert.Error(t, err)
}

func TestRunLayoutString_InstructionLimit(t *testing.T) {
	_, err := scripting.RunLayoutString(context.Background(), `while true do end`, 100)
	assert.Error(t, err)
}

func TestRunLayoutString_SyntaxError(t *testing.T) {
	_, err := scripting.RunLayoutString(context.Background(), `return {`, 0)
	assert.Error(t, err)
}

func TestRunLayoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.lua")
	require.NoError(t, os.WriteFile(path, []byte(`return layout.room(3, 1, "W", "F")`), 0o644))
	rows, err := scripting.RunLayoutFile(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"W", "W", "F"}, rows[1])
}

func TestRunLayoutFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.lua")
	_, err := scripting.RunLayoutFile(context.Background(), path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
