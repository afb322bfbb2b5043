// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseStrategies is the ordered list of strategies ParseResponse tries.
// Replies that are neither JSON nor fenced JSON are rejected, not repaired.
var ParseStrategies = []ParseStrategy{
	{Name: "json", Parse: parseObject},
	{Name: "fenced", Parse: func(raw string) (map[string]any, error) {
		return parseObject(StripFence(raw))
	}},
}

// ParseResponse runs raw through ParseStrategies and returns the first success.
// When every strategy fails the result carries ErrUnparseable joined with
// the individual failures.
func ParseResponse(raw string) ParseResult {
	return ParseWith(ParseStrategies, raw)
}

// ParseWith runs raw through strategies in order.
func ParseWith(strategies []ParseStrategy, raw string) ParseResult {
	var errs []error
	result := ParseResult{}
	for _, s := range strategies {
		result.Strategy = s.Name
		value, err := s.Parse(raw)
		if err == nil && value != nil {
			return ParseResult{Strategy: s.Name, Value: value}
		}
		if err == nil {
			err = errors.New("no object")
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	result.Err = errors.Join(append([]error{ErrUnparseable}, errs...)...)
	return result
}

// StripFence removes a markdown code fence around a response. A ```json
// fence is preferred over a bare ``` fence; text outside the fence is
// discarded. Responses without a fence are returned trimmed.
func StripFence(s string) string {
	for _, marker := range []string{"```json", "```"} {
		idx := strings.Index(s, marker)
		if idx < 0 {
			continue
		}
		body := s[idx+len(marker):]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(s)
}

func parseObject(s string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Bool reads a JSON boolean, also accepting the strings "true" and "false".
func Bool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	}
	return false, false
}

// Float reads a JSON number, also accepting numeric strings.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// Strings reads a JSON array of strings, dropping blank and non-string elements.
func Strings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
