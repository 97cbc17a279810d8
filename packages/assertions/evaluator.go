package assertions

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

type Operator string

const (
	OpExists  Operator = "exists"
	OpEquals  Operator = "=="
	OpType    Operator = "type"
	OpBetween Operator = "between"
	OpSchema  Operator = "schema"
)

// Check is one expectation about a JSON body. An empty Subject addresses the
// body root.
type Check struct {
	Subject  string
	Operator Operator
	Expected any
}

func Exists(path string) Check {
	return Check{Subject: path, Operator: OpExists}
}

// Fields returns one Exists check per path
func Fields(paths ...string) []Check {
	checks := make([]Check, len(paths))
	for i, p := range paths {
		checks[i] = Exists(p)
	}
	return checks
}

func Equals(path string, expected any) Check {
	return Check{Subject: path, Operator: OpEquals, Expected: expected}
}

func IsType(path, typ string) Check {
	return Check{Subject: path, Operator: OpType, Expected: typ}
}

func IsArray(path string) Check {
	return IsType(path, "array")
}

func Between(path string, min, max float64) Check {
	return Check{Subject: path, Operator: OpBetween, Expected: [2]float64{min, max}}
}

// MatchesSchema validates the value at path against a JSON schema document
func MatchesSchema(path string, schema []byte) Check {
	return Check{Subject: path, Operator: OpSchema, Expected: schema}
}

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

type Evaluator struct {
	body gjson.Result
}

func NewEvaluator(resp *http.Response) *Evaluator {
	e := &Evaluator{}
	if resp != nil && gjson.ValidBytes(resp.Body) {
		e.body = gjson.ParseBytes(resp.Body)
	}
	return e
}

// Body returns the parsed JSON body; it does not exist when the body is not
// valid JSON.
func (e *Evaluator) Body() gjson.Result {
	return e.body
}

func (e *Evaluator) Evaluate(check Check) *Result {
	result := &Result{
		Subject:  displaySubject(check.Subject),
		Operator: string(check.Operator),
		Expected: check.Expected,
	}

	value := e.lookup(check.Subject)
	if value.Exists() {
		result.Actual = value.Value()
	}

	passed, msg := e.compare(value, check)
	result.Passed = passed
	result.Message = msg
	return result
}

func (e *Evaluator) lookup(path string) gjson.Result {
	if path == "" {
		return e.body
	}
	if !e.body.Exists() {
		return gjson.Result{}
	}
	return e.body.Get(path)
}

func (e *Evaluator) compare(value gjson.Result, check Check) (bool, string) {
	switch check.Operator {
	case OpExists:
		if !value.Exists() {
			return false, "expected to exist"
		}
		return true, ""
	case OpEquals:
		if !value.Exists() {
			return false, fmt.Sprintf("expected %v, got nothing", check.Expected)
		}
		return equals(value.Value(), check.Expected)
	case OpType:
		return typeCheck(value, fmt.Sprintf("%v", check.Expected))
	case OpBetween:
		bounds, ok := check.Expected.([2]float64)
		if !ok {
			return false, fmt.Sprintf("invalid range %v", check.Expected)
		}
		return between(value, bounds[0], bounds[1])
	case OpSchema:
		schema, ok := check.Expected.([]byte)
		if !ok {
			return false, "schema must be a JSON document"
		}
		return validateSchema(value, schema)
	default:
		return false, fmt.Sprintf("unknown operator: %v", check.Operator)
	}
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if aOk && eOk && actualNum == expectedNum {
		return true, ""
	}

	if fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected) {
		return true, ""
	}

	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func typeCheck(value gjson.Result, expectedType string) (bool, string) {
	if !value.Exists() {
		return false, fmt.Sprintf("expected type %s, got nothing", expectedType)
	}

	var actualType string
	switch {
	case value.IsArray():
		actualType = "array"
	case value.IsObject():
		actualType = "object"
	case value.Type == gjson.Null:
		actualType = "null"
	case value.Type == gjson.True, value.Type == gjson.False:
		actualType = "boolean"
	case value.Type == gjson.Number:
		actualType = "number"
	default:
		actualType = "string"
	}

	if actualType == expectedType {
		return true, ""
	}
	return false, fmt.Sprintf("expected type %s, got %s", expectedType, actualType)
}

func between(value gjson.Result, min, max float64) (bool, string) {
	if value.Type != gjson.Number {
		return false, fmt.Sprintf("expected a number between %v and %v, got %v", min, max, value.Raw)
	}
	n := value.Float()
	if n < min || n > max {
		return false, fmt.Sprintf("expected %v to be between %v and %v", n, min, max)
	}
	return true, ""
}

func validateSchema(value gjson.Result, schema []byte) (bool, string) {
	if !value.Exists() {
		return false, "no value to validate"
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewStringLoader(value.Raw),
	)
	if err != nil {
		return false, fmt.Sprintf("schema validation error: %v", err)
	}

	if result.Valid() {
		return true, ""
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return false, fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; "))
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func displaySubject(path string) string {
	if path == "" {
		return "body"
	}
	return path
}
