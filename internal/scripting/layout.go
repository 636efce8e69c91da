package scripting

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/sokogen/internal/grid"
)

// MaxLayoutSize bounds the grids the layout module will allocate.
const MaxLayoutSize = 1024

// RegisterLayoutModule defines the global `layout` table in L:
//
//	layout.empty(size, fill)               -> size x size grid of fill
//	layout.room(size, border, wall, floor) -> floor grid with a wall ring
//
// Grids are Lua arrays of rows, each an array of string codes, indexed from 1.
func RegisterLayoutModule(L *lua.LState) {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"empty": luaEmpty,
		"room":  luaRoom,
	})
	L.SetGlobal("layout", mod)
}

func checkSize(L *lua.LState, n int) int {
	size := L.CheckInt(n)
	if size < 0 || size > MaxLayoutSize {
		L.ArgError(n, fmt.Sprintf("size must be 0-%d, got %d", MaxLayoutSize, size))
	}
	return size
}

func luaEmpty(L *lua.LState) int {
	size := checkSize(L, 1)
	fill := L.CheckString(2)
	L.Push(gridToTable(L, grid.Filled(size, fill)))
	return 1
}

func luaRoom(L *lua.LState) int {
	size := checkSize(L, 1)
	border := L.CheckInt(2)
	wall := L.CheckString(3)
	floor := L.CheckString(4)
	rows, err := grid.Room(size, border, wall, floor)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(gridToTable(L, rows))
	return 1
}

func gridToTable(L *lua.LState, rows [][]string) *lua.LTable {
	t := L.CreateTable(len(rows), 0)
	for _, row := range rows {
		r := L.CreateTable(len(row), 0)
		for _, code := range row {
			r.Append(lua.LString(code))
		}
		t.Append(r)
	}
	return t
}

// RunLayoutFile executes the layout script at path and returns the rows it
// returns.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: returns token rows or an error naming path.
func RunLayoutFile(ctx context.Context, path string, instLimit int) ([][]string, error) {
	L, cancel := NewSandboxedState(ctx, instLimit)
	defer cancel()
	defer L.Close()
	RegisterLayoutModule(L)
	top := L.GetTop()
	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("running layout script %s: %w", path, err)
	}
	rows, err := tableToRows(L, top)
	if err != nil {
		return nil, fmt.Errorf("layout script %s: %w", path, err)
	}
	return rows, nil
}

// RunLayoutString is RunLayoutFile for an in-memory script.
func RunLayoutString(ctx context.Context, src string, instLimit int) ([][]string, error) {
	L, cancel := NewSandboxedState(ctx, instLimit)
	defer cancel()
	defer L.Close()
	RegisterLayoutModule(L)
	top := L.GetTop()
	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("running layout script: %w", err)
	}
	rows, err := tableToRows(L, top)
	if err != nil {
		return nil, fmt.Errorf("layout script: %w", err)
	}
	return rows, nil
}

// tableToRows converts the script's first return value. A row may be a string,
// split into one code per character, or an array of string or number tokens.
func tableToRows(L *lua.LState, top int) ([][]string, error) {
	if L.GetTop() <= top {
		return nil, fmt.Errorf("script returned nothing; want a table of rows")
	}
	tbl, ok := L.Get(top + 1).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("script returned %s; want a table of rows", L.Get(top+1).Type())
	}
	n := tbl.Len()
	rows := make([][]string, 0, n)
	for i := 1; i <= n; i++ {
		switch row := tbl.RawGetInt(i).(type) {
		case lua.LString:
			rows = append(rows, grid.SplitRows([]string{string(row)})[0])
		case *lua.LTable:
			m := row.Len()
			tokens := make([]string, 0, m)
			for j := 1; j <= m; j++ {
				switch tok := row.RawGetInt(j).(type) {
				case lua.LString:
					tokens = append(tokens, string(tok))
				case lua.LNumber:
					tokens = append(tokens, tok.String())
				default:
					return nil, fmt.Errorf("row %d token %d is %s; want string", i, j, tok.Type())
				}
			}
			rows = append(rows, tokens)
		default:
			return nil, fmt.Errorf("row %d is %s; want string or table", i, row.Type())
		}
	}
	return rows, nil
}
