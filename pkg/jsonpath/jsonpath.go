// Package jsonpath extracts values from JSON documents using a subset of
// JSONPath syntax, translated onto gjson paths.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract returns the value at path in doc as a string. path uses
// JSONPath notation: $.users[0].name, $['key'], $[2].
func Extract(doc, path string) (string, error) {
	if doc == "" {
		return "", fmt.Errorf("empty JSON document")
	}
	if path == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}

	result := gjson.Get(doc, toGjsonPath(path))
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractMultiple evaluates several named JSONPath expressions against one
// document. All successful extractions are returned even when some paths
// fail; a combined error reports the failures.
func ExtractMultiple(doc string, paths map[string]string) (map[string]string, error) {
	if doc == "" {
		return nil, fmt.Errorf("empty JSON document")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	results := make(map[string]string, len(paths))
	var failed []string
	for name, path := range paths {
		value, err := Extract(doc, path)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}
	if len(failed) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(failed, "; "))
	}
	return results, nil
}

// toGjsonPath rewrites a JSONPath expression into gjson's dotted form:
// $.users[0].name becomes users.0.name. Filters and recursive descent are
// not supported.
func toGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	// Bracket notation: ['key'], ["key"] and [0] all become dotted
	// segments.
	var sb strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '[':
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
		case ']':
			// Segment terminator, nothing to emit.
		case '\'', '"':
			// Quotes inside brackets are decoration only.
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
