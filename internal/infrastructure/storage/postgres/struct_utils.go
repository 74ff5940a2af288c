package postgres

import (
	"reflect"
	"sync"
)

// Repositories derive column lists and insert maps from `db` struct
// tags so the entity definition stays the single source of truth.
// Reflection results are memoized per type; the walk happens once.

// fieldMeta describes one mapped struct field.
type fieldMeta struct {
	index int
	col   string
}

// typeMeta is the cached mapping for one struct type.
type typeMeta struct {
	fields   []fieldMeta
	embedded []int
}

var typeMetaCache sync.Map // reflect.Type -> *typeMeta

func metaFor(t reflect.Type) *typeMeta {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := typeMetaCache.Load(t); ok {
		return cached.(*typeMeta)
	}

	meta := &typeMeta{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embedded = append(meta.embedded, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldMeta{index: i, col: tag})
		}
	}

	typeMetaCache.Store(t, meta)
	return meta
}

// ExtractDBColumns lists the `db` column names of T, walking embedded
// structs (entity.BaseDocument and friends) depth-first in declaration
// order.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, columnsOf(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// StructToMap converts a struct to a column->value map using `db` tags,
// recursing into embedded structs. Fields without a tag, or tagged "-",
// are skipped. Feed the result to squirrel's SetMap.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metaFor(rv.Type())
	res := make(map[string]any, len(meta.fields))

	for _, fm := range meta.fields {
		res[fm.col] = rv.Field(fm.index).Interface()
	}
	for _, i := range meta.embedded {
		for k, val := range StructToMap(rv.Field(i).Interface()) {
			res[k] = val
		}
	}
	return res
}
