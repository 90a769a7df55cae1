package output

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Tabler is implemented by results that know their own table layout.
type Tabler interface {
	Table() *Table
}

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	NoHeaders bool
}

// Format renders a *Table, a Tabler, or a slice of structs. Struct columns
// are named by the `table` tag, falling back to the json tag and then the
// field name; `table:"-"` hides a field.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case *Table:
		return v.RenderWithOptions(w, f.NoHeaders)
	case Tabler:
		return v.Table().RenderWithOptions(w, f.NoHeaders)
	}

	t, err := sliceToTable(reflect.ValueOf(data))
	if err != nil {
		return err
	}
	return t.RenderWithOptions(w, f.NoHeaders)
}

func sliceToTable(v reflect.Value) (*Table, error) {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("table output: unsupported type %s", v.Type())
	}

	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("table output: unsupported element type %s", elemType)
	}

	table := &Table{}
	var fields []int
	for i := 0; i < elemType.NumField(); i++ {
		field := elemType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := columnName(field)
		if name == "" {
			continue
		}
		table.Headers = append(table.Headers, name)
		fields = append(fields, i)
	}

	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Ptr {
			if elem.IsNil() {
				continue
			}
			elem = elem.Elem()
		}
		row := make([]string, 0, len(fields))
		for _, idx := range fields {
			row = append(row, formatValue(elem.Field(idx)))
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func columnName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("table"); ok {
		if tag == "-" {
			return ""
		}
		return strings.ToUpper(tag)
	}
	if tag := strings.Split(field.Tag.Get("json"), ",")[0]; tag != "" {
		if tag == "-" {
			return ""
		}
		return strings.ToUpper(tag)
	}
	return strings.ToUpper(field.Name)
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return "-"
		}
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		if _, err := fmt.Fprintln(tw, strings.Join(t.Headers, "\t")); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
