package render

import (
	"fmt"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultFuncMap returns the functions available to Template sources.
func DefaultFuncMap() map[string]any {
	return map[string]any{
		"lower":      strings.ToLower,
		"upper":      strings.ToUpper,
		"trim":       strings.TrimSpace,
		"trimPrefix": strings.TrimPrefix,
		"trimSuffix": strings.TrimSuffix,
		"replace":    strings.ReplaceAll,
		"split":      strings.Split,
		"join":       strings.Join,
		"contains":   strings.Contains,
		"hasPrefix":  strings.HasPrefix,
		"hasSuffix":  strings.HasSuffix,
		"snake":      toSnakeCase,
		"kebab":      toKebabCase,
		"slug":       toKebabCase,
		"camel":      toCamelCase,
		"pascal":     toPascalCase,
		"title":      toTitle,
		"truncate":   truncate,

		"pathBase": path.Base,
		"pathDir":  path.Dir,
		"pathExt":  path.Ext,
		"pathJoin": path.Join,

		"now":        time.Now,
		"formatTime": formatTime,
		"uuid":       generateUUID,

		"default":  defaultValue,
		"isEmpty":  isEmpty,
		"markdown": markdownHTML,
	}
}

func formatTime(layout string, t time.Time) string {
	return t.Format(layout)
}

func generateUUID() string {
	return uuid.NewString()
}

// defaultValue returns def when given is nil or the zero value of its type.
func defaultValue(def any, given any) any {
	if isEmpty(given) {
		return def
	}
	return given
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String, reflect.Chan:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

func markdownHTML(value any) string {
	return string(MarkdownToHTML([]byte(fmt.Sprint(value))))
}
