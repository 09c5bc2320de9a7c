package firestore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// RunQueryRequest is the body of documents:runQuery
type RunQueryRequest struct {
	StructuredQuery StructuredQuery `json:"structuredQuery"`
}

// StructuredQuery is the subset of Firestore's query language the app needs
type StructuredQuery struct {
	From    []CollectionSelector `json:"from"`
	Where   *Filter              `json:"where,omitempty"`
	OrderBy []Order              `json:"orderBy,omitempty"`
}

type CollectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type Filter struct {
	FieldFilter *FieldFilter `json:"fieldFilter,omitempty"`
}

type FieldFilter struct {
	Field FieldReference `json:"field"`
	Op    string         `json:"op"`
	Value Value          `json:"value"`
}

type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

type Order struct {
	Field     FieldReference `json:"field"`
	Direction string         `json:"direction"`
}

// RunQueryResponseItem is one element of the streamed runQuery reply.
// Items without a document only carry read metadata.
type RunQueryResponseItem struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}

// Document is a Firestore document with typed field values
type Document struct {
	Name       string           `json:"name"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// ID returns the last path segment of the document name
func (d *Document) ID() string {
	if i := strings.LastIndex(d.Name, "/"); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// Value is Firestore's tagged union. Exactly one field is set.
type Value struct {
	StringValue    *string     `json:"stringValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"` // int64 encoded as a string
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	NullValue      *string     `json:"nullValue,omitempty"`
	TimestampValue *string     `json:"timestampValue,omitempty"`
	ReferenceValue *string     `json:"referenceValue,omitempty"`
	MapValue       *MapValue   `json:"mapValue,omitempty"`
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
}

type MapValue struct {
	Fields map[string]Value `json:"fields"`
}

type ArrayValue struct {
	Values []Value `json:"values"`
}

// StringValueOf builds a string Value, used for query filters
func StringValueOf(s string) Value {
	return Value{StringValue: &s}
}

// Plain converts a typed value into the plain JSON value it represents
func (v Value) Plain() (any, error) {
	switch {
	case v.StringValue != nil:
		return *v.StringValue, nil
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integerValue %q: %w", *v.IntegerValue, err)
		}
		return n, nil
	case v.DoubleValue != nil:
		return *v.DoubleValue, nil
	case v.BooleanValue != nil:
		return *v.BooleanValue, nil
	case v.TimestampValue != nil:
		return *v.TimestampValue, nil
	case v.ReferenceValue != nil:
		return *v.ReferenceValue, nil
	case v.MapValue != nil:
		return plainFields(v.MapValue.Fields)
	case v.ArrayValue != nil:
		out := make([]any, 0, len(v.ArrayValue.Values))
		for _, item := range v.ArrayValue.Values {
			p, err := item.Plain()
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	default:
		// nullValue or an empty value
		return nil, nil
	}
}

func plainFields(fields map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		p, err := v.Plain()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = p
	}
	return out, nil
}

// PlainJSON flattens the document fields into a plain JSON object
func (d *Document) PlainJSON() (json.RawMessage, error) {
	fields, err := plainFields(d.Fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}
