package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vtk-lookingglass/lgwheel/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// knownSections are the top-level keys accepted in the lgwheel table.
var knownSections = map[string]bool{
	"sdk":             true,
	"repair":          true,
	"external_module": true,
	"python":          true,
	"build":           true,
	"state_dir":       true,
	"deps_dir":        true,
	"log_level":       true,
}

// Parser evaluates Lua config files.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a parser. A nil detector leaves the platform table out.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ParseFile reads and evaluates a Lua config file.
func (p *Parser) ParseFile(ctx context.Context, path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString evaluates Lua code and returns the lgwheel table as nested maps
// keyed the same way as Config's mapstructure tags.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (map[string]interface{}, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	root := L.GetGlobal(luaGlobalLgwheel)
	table, ok := root.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalLgwheel),
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	values, err := tableToMap(table, luaGlobalLgwheel)
	if err != nil {
		return nil, err
	}

	var unknown []string
	for key := range values {
		if !knownSections[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ParseError{
			Message: "unknown config keys",
			Detail:  strings.Join(unknown, ", "),
		}
	}

	return values, nil
}

// tableToMap converts a Lua table with string keys into nested Go maps.
// nil values (from platform.when) are dropped.
func tableToMap(table *lua.LTable, path string) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	var convErr error

	table.ForEach(func(key, value lua.LValue) {
		if convErr != nil {
			return
		}
		name, ok := key.(lua.LString)
		if !ok {
			convErr = &ParseError{
				Message: "config tables must use string keys",
				Detail:  fmt.Sprintf("%s has key of type %s", path, key.Type()),
			}
			return
		}

		v, err := luaToGo(value, path+"."+string(name))
		if err != nil {
			convErr = err
			return
		}
		if v != nil {
			out[string(name)] = v
		}
	})

	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

func luaToGo(value lua.LValue, path string) (interface{}, error) {
	switch v := value.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LString:
		return string(v), nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f), nil
		}
		return f, nil
	case *lua.LTable:
		if v.MaxN() > 0 {
			items := make([]interface{}, 0, v.MaxN())
			for i := 1; i <= v.MaxN(); i++ {
				item, err := luaToGo(v.RawGetInt(i), fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				if item != nil {
					items = append(items, item)
				}
			}
			return items, nil
		}
		return tableToMap(v, path)
	default:
		return nil, &ParseError{
			Message: "unsupported config value",
			Detail:  fmt.Sprintf("%s has type %s", path, value.Type()),
		}
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
