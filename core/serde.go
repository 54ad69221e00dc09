package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/bndr/gotabulate"
)

const (
	ResourceTypeKey = "@resourceType"
	customRawKey    = "@raw" // used to store non-object values in Record
)

var empty = struct{}{}
var printableAttrs = map[string]struct{}{
	"id":            empty,
	"name":          empty,
	"userId":        empty,
	"userDirectory": empty,
	"value":         empty,
	"modifiedDate":  empty,
	"published":     empty,
	"status":        empty,
}

type FillFunc func(Record, any) error

var fillFunc FillFunc = func(r Record, container any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, container)
}

//  ######################################################
//              FUNCTION PARAMS
//  ######################################################

// Params represents a generic set of key-value parameters,
// used for constructing query strings or request bodies.
type Params map[string]any

// ToQuery serializes the Params into a URL-encoded query string.
func (pr *Params) ToQuery() string {
	values := url.Values{}
	for k, v := range *pr {
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}

// ToBody serializes the Params into a JSON-encoded io.Reader.
func (pr *Params) ToBody() (io.Reader, error) {
	buffer, err := json.Marshal(*pr)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buffer), nil
}

// Update merges another Params map into the original Params.
// Existing keys are kept unless override is true.
func (pr *Params) Update(other Params, override bool) {
	for key, value := range other {
		if _, exists := (*pr)[key]; exists && !override {
			continue
		}
		(*pr)[key] = value
	}
}

// Without removes the specified keys from the Params map.
func (pr *Params) Without(keys ...string) {
	for _, key := range keys {
		delete(*pr, key)
	}
}

// NewParamsFromStruct converts a struct (or pointer to struct) to Params using its json tags.
// omitempty and embedded structs behave exactly as in encoding/json.
func NewParamsFromStruct(obj any) (Params, error) {
	params := make(Params)
	if obj == nil {
		return params, nil
	}
	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return params, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, got %T", obj)
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return params, nil
}

//  ######################################################
//              RETURN TYPES
//  ######################################################

// getPrintableAttrs returns a slice of keys to be printed first from the Record
func getPrintableAttrs(r Record) []string {
	var attrs []string
	for key := range r {
		if _, ok := printableAttrs[key]; ok {
			attrs = append(attrs, key)
		}
	}
	sort.Strings(attrs)
	return attrs
}

// Renderable is an interface implemented by types that can render themselves
// into a human-readable string format.
type Renderable interface {
	PrettyTable() string
	PrettyJson(indent ...string) string
}

// Filler is a generic interface for filling a struct or slice of structs.
type Filler interface {
	Fill(container any) error
}

// DisplayableRecord combines rendering and data population capabilities.
type DisplayableRecord interface {
	Renderable
	Filler
}

// Record represents a single generic data object as a key-value map.
// When a response is empty (e.g., 204 No Content), an empty Record{} is returned.
type Record map[string]any

// RecordSet represents a list of Record objects.
type RecordSet []Record

// RecordUnion defines a union of supported record types for generic operations.
type RecordUnion interface {
	Record | RecordSet
}

// Fill populates the struct pointed to by container from the Record using json tags.
func (r Record) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a struct")
	}
	if val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("container must point to a struct")
	}
	return fillFunc(r, container)
}

// RecordID returns the "id" field of the record. QRS ids are GUID strings.
func (r Record) RecordID() string {
	idVal, ok := r["id"]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", idVal)
}

// RecordName returns the "name" field of the record.
func (r Record) RecordName() string {
	nameVal, ok := r["name"]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", nameVal)
}

// RawValue returns the payload of a response that was not a JSON object.
func (r Record) RawValue() (any, bool) {
	v, ok := r[customRawKey]
	return v, ok
}

// PrettyTable renders a single Record as a two column table.
func (r Record) PrettyTable() string {
	if len(r) == 0 {
		return "<>"
	}
	var name string
	if resourceTyp, ok := r[ResourceTypeKey].(string); ok {
		name = resourceTyp
	}
	var rows [][]any
	for _, key := range getPrintableAttrs(r) {
		if val := r[key]; val != nil {
			rows = append(rows, []any{key, fmt.Sprintf("%v", val)})
		}
	}
	remainingAttrs := make(map[string]any)
	for key, value := range r {
		if _, ok := printableAttrs[key]; ok || key == ResourceTypeKey || value == nil {
			continue
		}
		remainingAttrs[key] = value
	}
	if len(remainingAttrs) > 0 {
		remainingJSON, _ := json.Marshal(remainingAttrs)
		rows = append(rows, []any{"<<remaining attrs>>", string(remainingJSON)})
	}
	if len(rows) == 0 {
		return "<>"
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"attr", "value"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(85)
	if name != "" {
		return fmt.Sprintf("%s:\n%s", name, t.Render("grid"))
	}
	return fmt.Sprintf("\n%s", t.Render("grid"))
}

// PrettyJson prints the Record as JSON, optionally indented
func (r Record) PrettyJson(indent ...string) string {
	return prettyJson(r, indent...)
}

func (r Record) Empty() bool {
	return len(r) == 0
}

func (r Record) String() string {
	return r.PrettyTable()
}

// Fill populates the slice pointed to by container (*[]T or *[]*T) from the RecordSet.
func (rs RecordSet) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a slice")
	}
	sliceVal := val.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("container must point to a slice")
	}
	elemType := sliceVal.Type().Elem()
	isPtrElem := elemType.Kind() == reflect.Ptr
	targetType := elemType
	if isPtrElem {
		targetType = elemType.Elem()
	}
	if targetType.Kind() != reflect.Struct {
		return fmt.Errorf("slice element must be a struct or pointer to a struct")
	}
	for _, record := range rs {
		elemPtr := reflect.New(targetType)
		if err := record.Fill(elemPtr.Interface()); err != nil {
			return err
		}
		if isPtrElem {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr.Elem()))
		}
	}
	return nil
}

// PrettyTable renders the RecordSet as a single table with one column per key.
func (rs RecordSet) PrettyTable() string {
	if len(rs) == 0 {
		return "[]"
	}
	columns := rs.Columns()
	rows := make([][]any, 0, len(rs))
	for _, record := range rs {
		row := make([]any, len(columns))
		for i, col := range columns {
			if v, ok := record[col]; ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			} else {
				row[i] = ""
			}
		}
		rows = append(rows, row)
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(columns)
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(40)
	return t.Render("grid")
}

// Columns returns the union of keys of all records, printable attributes first.
func (rs RecordSet) Columns() []string {
	seen := map[string]struct{}{ResourceTypeKey: empty}
	var primary, rest []string
	for _, record := range rs {
		for key := range record {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = empty
			if _, ok := printableAttrs[key]; ok {
				primary = append(primary, key)
			} else {
				rest = append(rest, key)
			}
		}
	}
	sort.Strings(primary)
	sort.Strings(rest)
	return append(primary, rest...)
}

func (rs RecordSet) Empty() bool {
	return len(rs) == 0
}

// PrettyJson prints the RecordSet as JSON, optionally indented
func (rs RecordSet) PrettyJson(indent ...string) string {
	return prettyJson(rs, indent...)
}

func prettyJson(v any, indent ...string) string {
	var (
		b   []byte
		err error
	)
	if len(indent) > 0 {
		b, err = json.MarshalIndent(v, "", indent[0])
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

// unmarshalToRecordUnion parses an HTTP response body into a Record (JSON object,
// empty body, scalar) or a RecordSet (JSON array).
func unmarshalToRecordUnion(response *http.Response) (Renderable, error) {
	defer response.Body.Close()

	if response.ContentLength == 0 || response.StatusCode == http.StatusNoContent {
		return Record{}, nil
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Record{}, nil
	}
	switch trimmed[0] {
	case '{':
		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, err
		}
		return rec, nil
	case '[':
		var recSet RecordSet
		if err := json.Unmarshal(trimmed, &recSet); err == nil {
			return recSet, nil
		}
		var anySlice []any
		if err := json.Unmarshal(trimmed, &anySlice); err != nil {
			return nil, err
		}
		recordSet := make(RecordSet, len(anySlice))
		for i, item := range anySlice {
			recordSet[i] = Record{customRawKey: item}
		}
		return recordSet, nil
	default:
		var scalar any
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			// Some endpoints answer with plain text.
			return Record{customRawKey: strings.TrimSpace(string(trimmed))}, nil
		}
		return Record{customRawKey: scalar}, nil
	}
}

// typeMatch checks whether the dynamic type of val is T.
func typeMatch[T RecordUnion](val Renderable) bool {
	var zero T
	return reflect.TypeOf(val) == reflect.TypeOf(zero)
}

// setResourceKey sets resource type key for tabular formatting (only if not already set).
func setResourceKey(result Renderable, resourceType string) error {
	switch v := result.(type) {
	case Record:
		if _, ok := v[ResourceTypeKey]; !ok && len(v) > 0 {
			v[ResourceTypeKey] = resourceType
		}
		return nil
	case RecordSet:
		for _, rec := range v {
			if _, ok := rec[ResourceTypeKey]; !ok && len(rec) > 0 {
				rec[ResourceTypeKey] = resourceType
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %T", result)
	}
}
