// Package transform builds the task strings used in Filestack processing URLs.
//
//	tasks, err := transform.Build(
//	    transform.NewTask("resize").With("w", 300).With("h", 200),
//	    transform.NewTask("rotate").With("deg", 90),
//	)
//	// resize=w:300,h:200/rotate=deg:90
//
// Attributes are checked against filestack.AllowedAttrs. Tasks that are not in
// that table are accepted only without attributes, as in flip or enhance.
package transform

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tendant/filestack-go/pkg/filestack"
)

var (
	// ErrNoTasks is returned when building a task string from zero tasks
	ErrNoTasks = errors.New("transform: no tasks")

	// ErrUnknownTask indicates attributes on a task with no entry in filestack.AllowedAttrs
	ErrUnknownTask = errors.New("transform: unknown task")

	// ErrInvalidAttr indicates an attribute the task does not accept
	ErrInvalidAttr = errors.New("transform: attribute not allowed")

	// ErrMalformed indicates a task string that cannot be parsed
	ErrMalformed = errors.New("transform: malformed task string")
)

// TaskError reports a problem with one task.
type TaskError struct {
	Task string
	Attr string
	Err  error
}

func (e *TaskError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("task %s: attribute %s: %v", e.Task, e.Attr, e.Err)
	}
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Attr is a single task attribute.
type Attr struct {
	Key   string
	Value any
}

// Task is one processing step, e.g. resize=w:300,h:200.
type Task struct {
	Name  string
	Attrs []Attr
}

// NewTask returns a task with no attributes.
func NewTask(name string) Task {
	return Task{Name: name}
}

// With returns a copy of t with the attribute appended.
func (t Task) With(key string, value any) Task {
	attrs := make([]Attr, len(t.Attrs), len(t.Attrs)+1)
	copy(attrs, t.Attrs)
	t.Attrs = append(attrs, Attr{Key: key, Value: value})
	return t
}

// Validate checks the task name and attribute keys against filestack.AllowedAttrs.
// A task missing from the table is valid only when it has no attributes.
func (t Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: empty task name", ErrMalformed)
	}
	if _, ok := filestack.AllowedAttrs[t.Name]; !ok {
		if len(t.Attrs) == 0 {
			return nil
		}
		return &TaskError{Task: t.Name, Err: ErrUnknownTask}
	}
	for _, a := range t.Attrs {
		if !filestack.IsAllowedAttr(t.Name, a.Key) {
			return &TaskError{Task: t.Name, Attr: a.Key, Err: ErrInvalidAttr}
		}
	}
	return nil
}

// String renders the task as name or name=k:v,k:v.
func (t Task) String() string {
	if len(t.Attrs) == 0 {
		return t.Name
	}
	parts := make([]string, 0, len(t.Attrs))
	for _, a := range t.Attrs {
		parts = append(parts, a.Key+":"+formatValue(a.Value))
	}
	return t.Name + "=" + strings.Join(parts, ",")
}

// Build validates tasks and joins them into a task string.
func Build(tasks ...Task) (string, error) {
	if len(tasks) == 0 {
		return "", ErrNoTasks
	}
	parts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return "", err
		}
		parts = append(parts, t.String())
	}
	return strings.Join(parts, "/"), nil
}

// Parse splits a task string into tasks and validates them. Commas inside
// brackets belong to the value, as in crop=d:[0,0,200,200].
func Parse(s string) ([]Task, error) {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil, ErrNoTasks
	}

	var tasks []Task
	for _, part := range strings.Split(s, "/") {
		name, rawAttrs, hasAttrs := strings.Cut(part, "=")
		if name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, part)
		}

		task := NewTask(name)
		if hasAttrs {
			for _, kv := range splitAttrs(rawAttrs) {
				key, value, ok := strings.Cut(kv, ":")
				if !ok || key == "" {
					return nil, fmt.Errorf("%w: %q", ErrMalformed, kv)
				}
				task = task.With(key, value)
			}
		}

		if err := task.Validate(); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func splitAttrs(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// formatValue renders slices and arrays as [a,b,c].
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprint(v)
	}
}
