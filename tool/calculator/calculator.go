// Package calculator provides a math expression tool evaluated in a
// sandboxed JavaScript runtime.
package calculator

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/hupe1980/agentloop/tool"
)

// Name is the tool name shown to the model.
const Name = "calculator"

// FallbackAnswer is the observation returned for expressions that cannot be evaluated.
const FallbackAnswer = "I don't know how to do that."

const description = "Useful for getting the result of a math expression. " +
	"The input to this tool should be a valid mathematical expression that could be executed by a simple calculator."

var (
	identRegex   = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	allowedChars = regexp.MustCompile(`^[0-9A-Za-z_+\-*/%^().,\s]*$`)
)

// Math functions and constants usable in expressions.
var mathNames = map[string]bool{
	"abs": true, "acos": true, "asin": true, "atan": true, "atan2": true,
	"cbrt": true, "ceil": true, "cos": true, "exp": true, "floor": true,
	"log": true, "log10": true, "log2": true, "max": true, "min": true,
	"pow": true, "round": true, "sign": true, "sin": true, "sqrt": true,
	"tan": true, "trunc": true, "PI": true, "E": true,
}

// Options configures the calculator.
type Options struct {
	// Timeout bounds a single evaluation.
	Timeout time.Duration
}

// Calculator evaluates arithmetic expressions. Each call uses a fresh
// runtime, so a Calculator is safe for concurrent use.
type Calculator struct {
	opts Options
}

var _ tool.Tool = (*Calculator)(nil)

// New creates a calculator tool.
func New(optFns ...func(o *Options)) *Calculator {
	opts := Options{Timeout: time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Calculator{opts: opts}
}

// Name implements tool.Tool.
func (c *Calculator) Name() string { return Name }

// Description implements tool.Tool.
func (c *Calculator) Description() string { return description }

// ReturnDirect implements tool.Tool.
func (c *Calculator) ReturnDirect() bool { return false }

// Call implements tool.Tool. Expressions that fail to evaluate yield
// FallbackAnswer so the model can rephrase; only cancellation is an error.
func (c *Calculator) Call(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result, err := c.Evaluate(input)
	if err != nil {
		return FallbackAnswer, nil
	}

	return result, nil
}

// Evaluate computes expr and formats the numeric result. The caret is
// treated as exponentiation.
func (c *Calculator) Evaluate(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", fmt.Errorf("empty expression")
	}

	if !allowedChars.MatchString(expr) {
		return "", fmt.Errorf("expression contains unsupported characters")
	}

	for _, ident := range identRegex.FindAllString(expr, -1) {
		if !mathNames[ident] && !isExponent(ident) {
			return "", fmt.Errorf("unknown identifier %q", ident)
		}
	}

	vm := goja.New()

	mathObj := vm.Get("Math").ToObject(vm)
	for name := range mathNames {
		if err := vm.Set(name, mathObj.Get(name)); err != nil {
			return "", err
		}
	}

	timer := time.AfterFunc(c.opts.Timeout, func() { vm.Interrupt("timeout") })
	defer timer.Stop()

	v, err := vm.RunString("(" + strings.ReplaceAll(expr, "^", "**") + ")")
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}

	return formatResult(v)
}

// isExponent reports whether ident is the tail of a number in scientific
// notation such as the "e3" of "1e3".
func isExponent(ident string) bool {
	if len(ident) < 2 || (ident[0] != 'e' && ident[0] != 'E') {
		return false
	}
	_, err := strconv.Atoi(ident[1:])
	return err == nil
}

func formatResult(v goja.Value) (string, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", fmt.Errorf("expression has no value")
	}

	switch n := v.Export().(type) {
	case int64:
		return strconv.FormatInt(n, 10), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", fmt.Errorf("result is not a finite number")
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("result is not a number: %v", n)
	}
}
