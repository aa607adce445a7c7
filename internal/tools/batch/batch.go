package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of in-flight Calendar calls per batch.
const DefaultConcurrency = 4

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of a single item in a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates batch results.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray accepts a single string or an array of strings and
// returns the trimmed ids with duplicates removed, keeping first-seen order.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		// Some clients send arrays as a JSON-encoded string.
		var arr []string
		if strings.HasPrefix(strings.TrimSpace(v), "[") && json.Unmarshal([]byte(v), &arr) == nil {
			if len(arr) == 0 {
				return nil, fmt.Errorf("%s cannot be empty", paramName)
			}
			raw = arr
		} else {
			raw = []string{v}
		}
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for i, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			if len(raw) == 1 {
				return nil, fmt.Errorf("%s cannot be empty", paramName)
			}
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Process calls fn for every id with at most limit calls in flight and
// returns one Result per id in input order. Items not started before ctx is
// cancelled are reported with the context error.
func Process(ctx context.Context, ids []string, limit int, fn func(ctx context.Context, id string) (string, error)) []Result {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([]Result, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = NewErrorResult(id, err)
				return nil
			}
			res, err := fn(ctx, id)
			if err != nil {
				results[i] = NewErrorResult(id, err)
			} else {
				results[i] = NewSuccessResult(id, res)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Summarize counts successes and failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// FormatResults renders results as indented JSON.
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(jsonBytes)
}

// NewSuccessResult creates a success result.
func NewSuccessResult(id, message string) Result {
	return Result{ID: id, Status: StatusSuccess, Result: message}
}

// NewErrorResult creates an error result.
func NewErrorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Error: err.Error()}
}
