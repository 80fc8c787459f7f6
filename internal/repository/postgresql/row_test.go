package postgresql_test

import (
	"fmt"
	"reflect"
)

// fakeRow is a pgx.Row that scans fixed values or fails with err.
type fakeRow struct {
	values []any
	err    error
}

func rowOf(values ...any) fakeRow { return fakeRow{values: values} }

func failedRow(err error) fakeRow { return fakeRow{err: err} }

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

// assignRows appends one element per row to the slice dest points to,
// setting fields by name. It fills slices of unexported row types.
func assignRows(dest any, rows []map[string]any) error {
	slice := reflect.ValueOf(dest)
	if slice.Kind() != reflect.Pointer || slice.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("assignRows: %T is not a pointer to a slice", dest)
	}
	slice = slice.Elem()
	elemType := slice.Type().Elem()
	for _, row := range rows {
		elem := reflect.New(elemType).Elem()
		for name, v := range row {
			f := elem.FieldByName(name)
			if !f.IsValid() {
				return fmt.Errorf("assignRows: %s has no field %s", elemType, name)
			}
			f.Set(reflect.ValueOf(v))
		}
		slice.Set(reflect.Append(slice, elem))
	}
	return nil
}
