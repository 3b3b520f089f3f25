package sandbox

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
)

// ModuleFunc constructs a module value for one run. The returned value is
// run-local; no module state is shared across runs. ctx is the run context;
// blocking module functions (time.sleep) must honor it.
type ModuleFunc func(ctx context.Context, vm *goja.Runtime) (goja.Value, error)

// builtinModules returns the constructor table for the built-in module set.
// The table is a pure name -> constructor mapping; resolution state (the
// per-run instance cache) lives in the run, not here.
func builtinModules() map[string]ModuleFunc {
	return map[string]ModuleFunc{
		"json":    jsonModule,
		"math":    mathModule,
		"strings": stringsModule,
		"time":    timeModule,
		"base64":  base64Module,
		"hash":    hashModule,
		"uuid":    uuidModule,
		"rand":    randModule,
	}
}

// builtinModuleNames returns the built-in module names sorted.
func builtinModuleNames() []string {
	mods := builtinModules()
	out := make([]string, 0, len(mods))
	for name := range mods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// newModuleObject builds a module object from a name -> member map.
func newModuleObject(vm *goja.Runtime, members map[string]any) (goja.Value, error) {
	obj := vm.NewObject()
	for name, member := range members {
		if err := obj.Set(name, member); err != nil {
			return nil, fmt.Errorf("binding module member %q: %w", name, err)
		}
	}
	return obj, nil
}

func jsonModule(_ context.Context, vm *goja.Runtime) (goja.Value, error) {
	return newModuleObject(vm, map[string]any{
		"parse": func(s string) (any, error) {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, err
			}
			return out, nil
		},
		"stringify": func(v any) (string, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
		"pretty": func(v any) (string, error) {
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	})
}

func mathModule(_ context.Context, vm *goja.Runtime) (goja.Value, error) {
	return newModuleObject(vm, map[string]any{
		"sum": func(values []any) (float64, error) {
			var total float64
			for i, v := range values {
				n, ok := toFloat(v)
				if !ok {
					return 0, fmt.Errorf("math.sum: element %d is not a number", i)
				}
				total += n
			}
			return total, nil
		},
		"mean": func(values []any) (float64, error) {
			if len(values) == 0 {
				return 0, fmt.Errorf("math.mean: empty input")
			}
			var total float64
			for i, v := range values {
				n, ok := toFloat(v)
				if !ok {
					return 0, fmt.Errorf("math.mean: element %d is not a number", i)
				}
				total += n
			}
			return total / float64(len(values)), nil
		},
		"clamp": func(x, lo, hi float64) float64 {
			if x < lo {
				return lo
			}
			if x > hi {
				return hi
			}
			return x
		},
	})
}

func stringsModule(_ context.Context, vm *goja.Runtime) (goja.Value, error) {
	return newModuleObject(vm, map[string]any{
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"trim":     strings.TrimSpace,
		"fields":   strings.Fields,
		"contains": strings.Contains,
		"split":    func(s, sep string) []string { return strings.Split(s, sep) },
		"repeat":   strings.Repeat,
		"replace":  func(s, old, new string) string { return strings.ReplaceAll(s, old, new) },
		"join": func(parts []any, sep string) string {
			strs := make([]string, len(parts))
			for i, p := range parts {
				strs[i] = fmt.Sprintf("%v", p)
			}
			return strings.Join(strs, sep)
		},
	})
}

func timeModule(ctx context.Context, vm *goja.Runtime) (goja.Value, error) {
	return newModuleObject(vm, map[string]any{
		"now": func() int64 { return time.Now().UnixMilli() },
		"since": func(ms int64) int64 {
			return time.Now().UnixMilli() - ms
		},
		"stamp": func() string { return time.Now().UTC().Format(time.RFC3339) },
		// sleep honors the run context so a deadline cuts it short.
		"sleep": func(ms int64) error { return sleepFor(ctx, ms) },
	})
}

func base64Module(_ context.Context, vm *goja.Runtime) (goja.Value, error) {
	return newModuleObject(vm, map[string]any{
		"encode": func(s string) string {
			return base64.StdEncoding.EncodeToString([]byte(s))
		},
		"decode": func(s string) (string, error) {
			data, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	})
}

func hashModule(_ context.Context, vm *goja.Runtime) (goja.Value, error) {
	return newModuleObject(vm, map[string]any{
		"sha256": func(s string) string {
			sum := sha256.Sum256([]byte(s))
			return hex.EncodeToString(sum[:])
		},
		"sha1": func(s string) string {
			sum := sha1.Sum([]byte(s))
			return hex.EncodeToString(sum[:])
		},
		"md5": func(s string) string {
			sum := md5.Sum([]byte(s))
			return hex.EncodeToString(sum[:])
		},
	})
}

func uuidModule(_ context.Context, vm *goja.Runtime) (goja.Value, error) {
	return newModuleObject(vm, map[string]any{
		"new": uuid.NewString,
		"parse": func(s string) (string, error) {
			id, err := uuid.Parse(s)
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	})
}

func randModule(_ context.Context, vm *goja.Runtime) (goja.Value, error) {
	// Per-run source; runs never share generator state.
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return newModuleObject(vm, map[string]any{
		"float": r.Float64,
		"int": func(n int64) (int64, error) {
			if n <= 0 {
				return 0, fmt.Errorf("rand.int: n must be positive")
			}
			return r.Int63n(n), nil
		},
		"pick": func(values []any) (any, error) {
			if len(values) == 0 {
				return nil, fmt.Errorf("rand.pick: empty input")
			}
			return values[r.Intn(len(values))], nil
		},
	})
}

// sleepFor blocks for ms milliseconds or until ctx is done.
func sleepFor(ctx context.Context, ms int64) error {
	if ms <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// toFloat coerces exported goja numbers (int64 or float64) to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
