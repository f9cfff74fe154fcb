package ingest

import (
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"

	"github.com/agentic-research/wp2shopify/internal/record"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// DefaultSelector selects every element of a top-level JSON array.
const DefaultSelector = "$[*]"

// ReadJSON reads product records out of a JSON document. The selector is a
// JSONPath expression; every object it matches becomes one record.
// Scalars are rendered as strings, nested values as compact JSON, and null or
// missing keys are absent.
func ReadJSON(r io.Reader, selector string) (*record.Table, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data, err := oj.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	t := &record.Table{}
	seen := map[string]bool{}
	for i, match := range x.Get(data) {
		obj, ok := match.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("jsonpath '%s' match %d is %T, not an object", selector, i, match)
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rec := record.New(len(t.Records))
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
			if s, ok := scalarString(obj[k]); ok {
				rec.Set(k, s)
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case *big.Int:
		return s.String(), true
	case *big.Float:
		return s.Text('f', -1), true
	default:
		return oj.JSON(v), true
	}
}
