package program

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// Text converts an evaluated value to the text written for it.
//
// Strings are written as is, fmt.Stringer and error values through their
// methods, numbers in their shortest decimal form, and nil as nothing.
// Everything else is formatted with fmt's %v verb.
func Text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

// Truth reports whether v counts as true in a condition: false, zero
// numbers, empty strings/slices/maps, and nil are false.
func Truth(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String, reflect.Chan:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.UnsafePointer:
		return !rv.IsNil()
	}
	return true
}

// Range calls fn for each element of v with a key and a value:
//
//	slice, array     index, element
//	map              key, value (keys in sorted order)
//	string           byte offset, rune (as a string)
//	integer n        i, i for i in [0, n)
//	channel          index, received value (a nil channel is empty)
//	iter.Seq         index, value
//	iter.Seq2        key, value
//
// A nil v produces no iterations. Iteration stops at the first error
// returned by fn.
func Range(v any, fn func(key, val any) error) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, compareKeys)
		for _, k := range keys {
			if err := fn(k.Interface(), rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.String:
		for i, r := range rv.String() {
			if err := fn(i, string(r)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if rv.Elem().Kind() == reflect.Array {
			return Range(rv.Elem().Interface(), fn)
		}
	}

	t := rv.Type()
	switch {
	case t.CanSeq2():
		for k, val := range rv.Seq2() {
			if err := fn(k.Interface(), val.Interface()); err != nil {
				return err
			}
		}
		return nil
	case t.CanSeq():
		i := 0
		for val := range rv.Seq() {
			if err := fn(i, val.Interface()); err != nil {
				return err
			}
			i++
		}
		return nil
	}
	return fmt.Errorf("cannot range over %T", v)
}

func compareKeys(a, b reflect.Value) int {
	switch {
	case a.CanInt() && b.CanInt():
		return cmp.Compare(a.Int(), b.Int())
	case a.CanUint() && b.CanUint():
		return cmp.Compare(a.Uint(), b.Uint())
	case a.CanFloat() && b.CanFloat():
		return cmp.Compare(a.Float(), b.Float())
	case a.Kind() == reflect.String && b.Kind() == reflect.String:
		return cmp.Compare(a.String(), b.String())
	case a.Kind() == reflect.Bool && b.Kind() == reflect.Bool:
		return cmp.Compare(boolInt(a.Bool()), boolInt(b.Bool()))
	}
	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Equal reports whether a match subject and a pattern value are equal.
// Numbers compare by value across integer and float types; everything else
// compares with reflect.DeepEqual.
func Equal(a, b any) bool {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return x == y
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	case rv.CanFloat():
		return rv.Float(), true
	}
	return 0, false
}
