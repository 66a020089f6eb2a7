// Package template builds text/template templates for rendering records.
// Templates execute against a record's fields keyed by name, so
// {{.kind}} and {{.name}} refer to snapshot field names.
package template

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"
	"unicode"
)

func FuncMap() template.FuncMap {
	return template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"title": titleCase,
		"trim":  strings.TrimSpace,

		"default": defaultValue,
		"hex":     hexCode,
		"round":   round,
		"local":   localTime,

		"base64": base64Encode,
	}
}

// titleCase uses proper Unicode word boundaries.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}

// defaultValue returns def when v is missing or empty.
func defaultValue(def, v any) any {
	switch v := v.(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
	}
	return v
}

// hexCode renders ECHONET Lite property codes the way the standard lists
// them, e.g. 0xE7.
func hexCode(v any) (string, error) {
	switch v := v.(type) {
	case int:
		return fmt.Sprintf("0x%02X", v), nil
	case uint32:
		return fmt.Sprintf("0x%02X", v), nil
	default:
		return "", fmt.Errorf("hex: unsupported type %T", v)
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// localTime converts an RFC 3339 timestamp to the named location.
func localTime(zone, ts string) (string, error) {
	if ts == "" {
		return "", nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", err
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(time.RFC3339), nil
}

func base64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// New returns an empty template that fails on missing keys.
func New(name string) *template.Template {
	return template.New(name).Option("missingkey=error").Funcs(FuncMap())
}

func Parse(name, text string) (*template.Template, error) {
	tmpl, err := New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	return tmpl, nil
}

// MustParse panics if the template cannot be parsed.
func MustParse(name, text string) *template.Template {
	return template.Must(New(name).Parse(text))
}

func Apply(tmplStr string, data any) (string, error) {
	if tmplStr == "" {
		return "", nil
	}

	tmpl, err := Parse("", tmplStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
