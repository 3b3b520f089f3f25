package sandbox_test

import (
	"context"
	"fmt"
	"time"

	"github.com/abshake96/ez-ptc/sandbox"
	"github.com/abshake96/ez-ptc/tool"
)

func Example() {
	weather, _ := tool.New("get_weather", "Get weather for a location",
		func(ctx context.Context, args ...any) (any, error) {
			return map[string]any{"temp": 22, "condition": "sunny"}, nil
		},
		tool.WithSignature("get_weather(location)"))

	exec, _ := sandbox.New(sandbox.Config{
		Tools: tool.MustSet(weather),
	})

	res, _ := exec.Execute(context.Background(), sandbox.Params{
		Code:    `const w = get_weather("Oslo"); print(w.condition);`,
		Timeout: time.Second,
	})
	fmt.Print(res.Output)
	fmt.Println(res.ToolCalls[0].Name)
	// Output:
	// sunny
	// get_weather
}

func Example_capabilityDenied() {
	exec, _ := sandbox.New(sandbox.Config{
		Surface: &sandbox.Surface{
			Builtins: []string{sandbox.BuiltinRequire},
			Modules:  []string{"json"},
		},
	})

	res, _ := exec.Execute(context.Background(), sandbox.Params{
		Code: `require("os")`,
	})
	fmt.Println(res.Success)
	fmt.Println(res.Error)
	// Output:
	// false
	// require of "os" is not allowed; available: json
}
