package config

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/mockwire/pkg/request"
)

// whenEnv is the environment when expressions are evaluated against.
type whenEnv struct {
	Method        string            `expr:"method"`
	Path          string            `expr:"path"`
	URL           string            `expr:"url"`
	Params        map[string]string `expr:"params"`
	Query         map[string]string `expr:"query"`
	Headers       map[string]string `expr:"headers"`
	Body          any               `expr:"body"`
	OperationName string            `expr:"operationName"`
	Variables     map[string]any    `expr:"variables"`
}

func compileWhen(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(whenEnv{}), expr.AsBool())
}

func evalWhen(program *vm.Program, env whenEnv) (bool, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

// newWhenEnv exposes req to when expressions. Header names are lower-cased;
// the body is decoded JSON when possible, text otherwise.
func newWhenEnv(req *request.Request, params map[string]string) whenEnv {
	env := whenEnv{
		Method:    req.Method,
		Path:      req.URL.Path,
		URL:       req.URL.String(),
		Params:    params,
		Query:     make(map[string]string),
		Headers:   make(map[string]string, len(req.Header)),
		Variables: map[string]any{},
	}
	if env.Params == nil {
		env.Params = map[string]string{}
	}
	for name, values := range req.URL.Query() {
		env.Query[name] = values[0]
	}
	for name := range req.Header {
		env.Headers[strings.ToLower(name)] = req.Header.Get(name)
	}
	if v, ok := req.JSON(); ok {
		env.Body = v
	} else {
		env.Body = req.Text()
	}
	return env
}

type whenError struct {
	source string
	err    error
}

func (e *whenError) Error() string {
	return fmt.Sprintf("evaluating when of %s: %v", e.source, e.err)
}

func (e *whenError) Unwrap() error { return e.err }
