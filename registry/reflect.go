package registry

import (
	"reflect"
	"runtime"
	"strings"
)

// handlerName derives the bare function name of a handler for descriptors.
// Method values come out as "HandlerName-fm"; the suffix is stripped.
func handlerName(h any) string {
	if h == nil {
		return ""
	}

	v := reflect.ValueOf(h)
	if v.Kind() != reflect.Func {
		return ""
	}

	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return ""
	}

	name := fn.Name()
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// callerPackage reports the import path of the function skip frames up the
// stack, so descriptors record which package registered the route.
func callerPackage(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}

	name := fn.Name()
	if slash := strings.LastIndex(name, "/"); slash >= 0 {
		if dot := strings.Index(name[slash+1:], "."); dot >= 0 {
			return name[:slash+1+dot]
		}
	}
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		return name[:dot]
	}
	return ""
}

// TypeName returns the bare name of a declared payload type, unwrapping
// pointers and slices. An empty string means no concrete type is known.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t.Name()
}

// IsGenericObject reports whether the declared type carries no concrete
// shape: any, map-based payloads, or nil types all count.
func IsGenericObject(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Interface, reflect.Map:
		return true
	default:
		return t.Name() == ""
	}
}

// IsArray reports whether the declared type is a slice or array payload.
func IsArray(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}
