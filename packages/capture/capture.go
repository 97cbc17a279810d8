package capture

import (
	"github.com/abdul-hamid-achik/fitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/fitcheck/packages/http"
	"github.com/tidwall/gjson"
)

// Capture names a value to pull out of a JSON response body
type Capture struct {
	Name string
	Path string
}

func Body(name, path string) *Capture {
	return &Capture{Name: name, Path: path}
}

type Extractor struct {
	body gjson.Result
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{}
	if resp != nil && gjson.ValidBytes(resp.Body) {
		e.body = gjson.ParseBytes(resp.Body)
	}
	return e
}

// String renders the captured value as a string. Null and missing values
// yield false.
func (e *Extractor) String(c *Capture) (string, bool) {
	result := e.body
	if c.Path != "" {
		result = e.body.Get(c.Path)
	}
	if !result.Exists() || result.Type == gjson.Null {
		return "", false
	}
	return result.String(), true
}

// Required extracts every capture as a non-empty string, keyed by capture
// name. Missing, null and empty values are reported together as a
// *assertions.MissingFieldsError naming their paths.
func (e *Extractor) Required(captures ...*Capture) (map[string]string, error) {
	values := make(map[string]string, len(captures))
	var missing []string
	for _, c := range captures {
		v, ok := e.String(c)
		if !ok || v == "" {
			missing = append(missing, c.Path)
			continue
		}
		values[c.Name] = v
	}
	if len(missing) > 0 {
		return nil, &assertions.MissingFieldsError{Fields: missing}
	}
	return values, nil
}
