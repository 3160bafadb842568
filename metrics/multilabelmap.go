// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package metrics contains expvar-based metric types that can also be
// written in Prometheus text exposition format.
package metrics

import (
	"expvar"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// MultiLabelMap is a struct-value-to-counter map variable that satisfies the
// [expvar.Var] interface and renders each key's fields as Prometheus labels.
//
// T must be a struct type whose fields are strings, integers or bools. The
// struct field names (lowercased) are used as the labels, unless a "prom"
// struct tag is present.
type MultiLabelMap[T comparable] struct {
	Type string // optional Prometheus type ("counter", "gauge")
	Help string // optional Prometheus help string

	m sync.Map // map[T]*expvar.Int

	mu     sync.RWMutex
	sorted []labelsAndValue[T] // by labels string
}

// NewMultiLabelMap creates and publishes (via expvar.Publish) a new
// MultiLabelMap[T] variable with the given name and returns it.
func NewMultiLabelMap[T comparable](name string, promType, helpText string) *MultiLabelMap[T] {
	m := &MultiLabelMap[T]{
		Type: promType,
		Help: helpText,
	}
	var zero T
	_ = labelString(zero) // panic early if T is invalid
	expvar.Publish(name, m)
	return m
}

type labelsAndValue[T comparable] struct {
	key    T
	labels string // Prometheus-formatted {label="value",label="value"} string
	val    *expvar.Int
}

// labelString returns a Prometheus-formatted label string for the given key.
func labelString(k any) string {
	rv := reflect.ValueOf(k)
	t := rv.Type()
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("MultiLabelMap must use keys of type struct; got %v", t))
	}

	var sb strings.Builder
	sb.WriteString("{")
	for i := range t.NumField() {
		if i > 0 {
			sb.WriteString(",")
		}
		ft := t.Field(i)
		label := ft.Tag.Get("prom")
		if label == "" {
			label = strings.ToLower(ft.Name)
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fmt.Fprintf(&sb, "%s=%q", label, fv.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fmt.Fprintf(&sb, "%s=\"%d\"", label, fv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fmt.Fprintf(&sb, "%s=\"%d\"", label, fv.Uint())
		case reflect.Bool:
			fmt.Fprintf(&sb, "%s=\"%v\"", label, fv.Bool())
		default:
			panic(fmt.Sprintf("MultiLabelMap key field %q has unsupported type %v", ft.Name, fv.Type()))
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// String implements expvar.Var. It returns a JSON object keyed by the
// Prometheus label string of each entry.
func (v *MultiLabelMap[T]) String() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var sb strings.Builder
	sb.WriteString("{")
	for i, kv := range v.sorted {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q: %d", kv.labels, kv.val.Value())
	}
	sb.WriteString("}")
	return sb.String()
}

// WritePrometheus writes v to w in Prometheus exposition format.
// The name argument is the metric name.
func (v *MultiLabelMap[T]) WritePrometheus(w io.Writer, name string) {
	if v.Type != "" {
		fmt.Fprintf(w, "# TYPE %s %s\n", name, v.Type)
	}
	if v.Help != "" {
		fmt.Fprintf(w, "# HELP %s %s\n", name, v.Help)
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, kv := range v.sorted {
		fmt.Fprintf(w, "%s%s %d\n", name, kv.labels, kv.val.Value())
	}
}

// get returns the counter for key, atomically creating it once (for all
// callers) if it doesn't exist.
func (v *MultiLabelMap[T]) get(key T) *expvar.Int {
	if iv, ok := v.m.Load(key); ok {
		return iv.(*expvar.Int)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if iv, ok := v.m.Load(key); ok {
		return iv.(*expvar.Int)
	}
	nv := new(expvar.Int)
	ls := labelString(key)
	i := sort.Search(len(v.sorted), func(i int) bool {
		return v.sorted[i].labels >= ls
	})
	v.sorted = append(v.sorted, labelsAndValue[T]{})
	copy(v.sorted[i+1:], v.sorted[i:])
	v.sorted[i] = labelsAndValue[T]{key, ls, nv}
	v.m.Store(key, nv)
	return nv
}

// Add adds delta to the counter stored under key, creating it if it
// doesn't exist yet.
func (v *MultiLabelMap[T]) Add(key T, delta int64) {
	v.get(key).Add(delta)
}

// Value returns the current value of the counter under key, or 0.
func (v *MultiLabelMap[T]) Value(key T) int64 {
	if iv, ok := v.m.Load(key); ok {
		return iv.(*expvar.Int).Value()
	}
	return 0
}

// KeyValue represents a single entry in a [MultiLabelMap].
type KeyValue[T comparable] struct {
	Key   T
	Value int64
}

// Do calls f for each entry in the map, in label order.
// The map is locked during the iteration,
// but existing entries may be concurrently updated.
func (v *MultiLabelMap[T]) Do(f func(KeyValue[T])) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, e := range v.sorted {
		f(KeyValue[T]{e.key, e.val.Value()})
	}
}
