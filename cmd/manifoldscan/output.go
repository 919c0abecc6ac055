package main

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/manifoldscan/codec"
)

func printRows(w io.Writer, rows *sql.Rows, format string) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	switch format {
	case "json":
		out := make([]map[string]any, 0, 16)
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			rec := make(map[string]any, len(cols))
			for i, col := range cols {
				if b, ok := values[i].([]byte); ok {
					rec[col] = string(b)
				} else {
					rec[col] = values[i]
				}
			}
			out = append(out, rec)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		data, err := codec.Default.Marshal(out)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case "table":
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(cols, "\t"))

		count := 0
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			cells := make([]string, len(cols))
			for i := range values {
				cells[i] = renderCell(values[i])
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
			count++
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if err := tw.Flush(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "(%d rows)\n", count)
		return err

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
