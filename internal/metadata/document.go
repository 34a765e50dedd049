// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package metadata

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// The snapshot document nests tables under Database.<db>.<table>. Inside a
// table, column entries sit alongside two scalar keys, censor_dims and rows,
// so decoding has to sort scalars from column objects.
//
//	{"Database": {"puf": {"puf_demo": {
//	    "age":  {"type": "int", "lower": 0, "upper": 95},
//	    "recid": {"type": "int", "private_id": true},
//	    "censor_dims": false,
//	    "rows": 1000
//	}}}}

// Decode parses a snapshot document in either JSON or YAML encoding and
// returns the single table it describes.
func Decode(data []byte) (*Table, error) {
	doc, jsonErr := decodeWith(data, json.Unmarshal)
	if jsonErr == nil {
		return doc, nil
	}
	doc, yamlErr := decodeWith(data, yaml.Unmarshal)
	if yamlErr == nil {
		return doc, nil
	}
	return nil, fmt.Errorf("snapshot is neither valid JSON (%v) nor valid YAML (%v)", jsonErr, yamlErr)
}

func decodeWith(data []byte, unmarshal func([]byte, any) error) (*Table, error) {
	var raw struct {
		Database map[string]map[string]map[string]any `json:"Database" yaml:"Database"`
	}
	if err := unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Database) == 0 {
		return nil, fmt.Errorf("snapshot has no Database entry")
	}
	for db, tables := range raw.Database {
		for name, body := range tables {
			return decodeTable(db, name, body)
		}
		return nil, fmt.Errorf("snapshot database %q has no tables", db)
	}
	return nil, fmt.Errorf("snapshot has no tables")
}

func decodeTable(db, name string, body map[string]any) (*Table, error) {
	t := &Table{
		Database: db,
		Name:     name,
		Columns:  make(map[string]Column),
	}
	for key, val := range body {
		switch key {
		case "censor_dims":
			b, ok := val.(bool)
			if !ok {
				return nil, fmt.Errorf("table %s: censor_dims is not a bool", name)
			}
			t.CensorDims = b
		case "rows":
			n, err := asInt64(val)
			if err != nil {
				return nil, fmt.Errorf("table %s: rows: %w", name, err)
			}
			t.Rows = n
		default:
			fields, ok := val.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("table %s: column %q is not an object", name, key)
			}
			col, err := decodeColumn(fields)
			if err != nil {
				return nil, fmt.Errorf("table %s: column %q: %w", name, key, err)
			}
			t.Columns[key] = col
		}
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", name)
	}
	return t, nil
}

func decodeColumn(fields map[string]any) (Column, error) {
	var col Column
	typ, ok := fields["type"].(string)
	if !ok {
		return col, fmt.Errorf("missing type")
	}
	switch ColumnType(typ) {
	case TypeInt, TypeFloat, TypeBoolean, TypeString:
		col.Type = ColumnType(typ)
	default:
		return col, fmt.Errorf("unknown type %q", typ)
	}
	if v, present := fields["lower"]; present && v != nil {
		f, err := asFloat64(v)
		if err != nil {
			return col, fmt.Errorf("lower: %w", err)
		}
		col.Lower = &f
	}
	if v, present := fields["upper"]; present && v != nil {
		f, err := asFloat64(v)
		if err != nil {
			return col, fmt.Errorf("upper: %w", err)
		}
		col.Upper = &f
	}
	if v, present := fields["cardinality"]; present && v != nil {
		n, err := asInt64(v)
		if err != nil {
			return col, fmt.Errorf("cardinality: %w", err)
		}
		c := int(n)
		col.Cardinality = &c
	}
	if v, present := fields["private_id"]; present {
		b, ok := v.(bool)
		if !ok {
			return col, fmt.Errorf("private_id is not a bool")
		}
		col.PrivateID = b
	}
	return col, nil
}

// asFloat64 accepts the numeric representations JSON and YAML decoders produce.
func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%T is not numeric", v)
	}
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%T is not an integer", v)
	}
}

// EncodeJSON renders the table as an indented JSON snapshot document.
func EncodeJSON(t *Table) ([]byte, error) {
	return json.MarshalIndent(document(t), "", "  ")
}

// EncodeYAML renders the table as a YAML snapshot document.
func EncodeYAML(t *Table) ([]byte, error) {
	return yaml.Marshal(document(t))
}

// document rebuilds the generic Database.<db>.<table> nesting.
func document(t *Table) map[string]any {
	body := make(map[string]any, len(t.Columns)+2)
	for name, col := range t.Columns {
		fields := map[string]any{"type": string(col.Type)}
		if col.Lower != nil {
			fields["lower"] = *col.Lower
		}
		if col.Upper != nil {
			fields["upper"] = *col.Upper
		}
		if col.Cardinality != nil {
			fields["cardinality"] = *col.Cardinality
		}
		if col.PrivateID {
			fields["private_id"] = true
		}
		body[name] = fields
	}
	body["censor_dims"] = t.CensorDims
	body["rows"] = t.Rows
	return map[string]any{
		"Database": map[string]any{
			t.Database: map[string]any{
				t.Name: body,
			},
		},
	}
}
