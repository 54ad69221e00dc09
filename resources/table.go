package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/xuri/excelize/v2"

	"github.com/qrs-tools/go-qrs-client/core"
	"github.com/qrs-tools/go-qrs-client/filter"
)

// TableRowVariable is the name rows are known by in table filters ("row.name eq 'x'").
const TableRowVariable = "row"

// Column types understood by the table endpoint.
const (
	ColumnProperty = "Property"
	ColumnFunction = "Function"
	ColumnList     = "List"
)

// TableColumn selects one attribute of the queried entity. List columns nest columns of a
// related collection, e.g. {Name: "tags", ColumnType: ColumnList, Definition: "tag", List: ...}.
type TableColumn struct {
	Name       string        `json:"name"`
	ColumnType string        `json:"columnType"`
	Definition string        `json:"definition"`
	List       []TableColumn `json:"list,omitempty"`
}

// TableRequest describes an ad-hoc table query.
type TableRequest struct {
	Type           string        // collection path, e.g. "app"
	Entity         string        // entity name sent in the body; defaults to Type capitalized
	Columns        []TableColumn // at least one column
	ServerFilter   string        // repository filter sent as the filter query parameter
	Filter         string        // evaluated client side against every row, see package filter
	Skip           int
	Take           int // page size; zero fetches everything
	SortColumn     string
	OrderAscending *bool
}

func (req TableRequest) entity() string {
	if req.Entity != "" {
		return req.Entity
	}
	return strings.ToUpper(req.Type[:1]) + req.Type[1:]
}

func (req TableRequest) validate() error {
	const op = "table.query"
	if strings.TrimSpace(req.Type) == "" {
		return &core.ValidationError{Op: op, Message: "type is required"}
	}
	if len(req.Columns) == 0 {
		return &core.ValidationError{Op: op, Message: "at least one column is required"}
	}
	for _, column := range req.Columns {
		if column.Name == "" {
			return &core.ValidationError{Op: op, Message: "column name is required"}
		}
		switch column.ColumnType {
		case ColumnProperty, ColumnFunction, ColumnList:
		default:
			return &core.ValidationError{Op: op, Message: fmt.Sprintf("unknown column type %q for column %q", column.ColumnType, column.Name)}
		}
	}
	if req.Skip < 0 || req.Take < 0 {
		return &core.ValidationError{Op: op, Message: "skip and take must not be negative"}
	}
	return nil
}

// compile returns nil when the request has no client side filter.
func (req TableRequest) compile() (filter.Predicate, error) {
	if strings.TrimSpace(req.Filter) == "" {
		return nil, nil
	}
	return filter.Compile(req.Filter, TableRowVariable)
}

// TableResult holds rows keyed by column name, in server order.
type TableResult struct {
	ColumnNames []string
	Rows        core.RecordSet
}

type tableResponse struct {
	ColumnNames []string `json:"columnNames"`
	Rows        [][]any  `json:"rows"`
}

// Table runs queries against the /qrs/{type}/table endpoints.
type Table struct {
	*core.QRSResource
}

// QueryWithContext fetches one page of rows (all rows when Take is zero) and applies the
// client side filter. A malformed filter fails before any request is sent.
func (t *Table) QueryWithContext(ctx context.Context, req TableRequest) (*TableResult, error) {
	const op = "table.query"
	if err := req.validate(); err != nil {
		return nil, err
	}
	pred, err := req.compile()
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	result, err := t.fetch(ctx, req, req.Skip, req.Take)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	if result.Rows, err = applyPredicate(result.Rows, pred); err != nil {
		return nil, core.WrapOp(op, err)
	}
	return result, nil
}

func (t *Table) Query(req TableRequest) (*TableResult, error) {
	return t.QueryWithContext(t.Rest.GetCtx(), req)
}

// IteratorWithContext pages through the table with skip/take, filtering every page.
// The page size is req.Take, or the configured page size when zero.
func (t *Table) IteratorWithContext(ctx context.Context, req TableRequest) (*TableIterator, error) {
	const op = "table.iterator"
	if err := req.validate(); err != nil {
		return nil, err
	}
	pred, err := req.compile()
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	pageSize := req.Take
	if pageSize == 0 {
		if config := t.Session().GetConfig(); config != nil {
			pageSize = config.PageSize
		}
	}
	fetch := func(ctx context.Context, skip, take int) (core.RecordSet, error) {
		result, err := t.fetch(ctx, req, req.Skip+skip, take)
		if err != nil {
			return nil, core.WrapOp(op, err)
		}
		return result.Rows, nil
	}
	return &TableIterator{pages: core.NewPageIterator(ctx, fetch, pageSize), pred: pred}, nil
}

func (t *Table) Iterator(req TableRequest) (*TableIterator, error) {
	return t.IteratorWithContext(t.Rest.GetCtx(), req)
}

func (t *Table) fetch(ctx context.Context, req TableRequest, skip, take int) (*TableResult, error) {
	params := core.Params{}
	if req.ServerFilter != "" {
		params[core.QueryFilter] = req.ServerFilter
	}
	if take > 0 {
		params["skip"] = skip
		params["take"] = take
	}
	if req.SortColumn != "" {
		params["sortColumn"] = req.SortColumn
	}
	if req.OrderAscending != nil {
		params["orderAscending"] = *req.OrderAscending
	}
	body := core.Params{"entity": req.entity(), "columns": req.Columns}
	record, err := post(ctx, t.QRSResource, strings.Trim(req.Type, "/")+"/table", params, body)
	if err != nil {
		return nil, err
	}
	var response tableResponse
	if err = record.Fill(&response); err != nil {
		return nil, err
	}
	return reshapeRows(response)
}

// reshapeRows turns columnar rows into records keyed by column name.
func reshapeRows(response tableResponse) (*TableResult, error) {
	result := &TableResult{ColumnNames: response.ColumnNames, Rows: make(core.RecordSet, 0, len(response.Rows))}
	for i, row := range response.Rows {
		if len(row) != len(response.ColumnNames) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(response.ColumnNames))
		}
		record := make(core.Record, len(row))
		for j, name := range response.ColumnNames {
			record[name] = row[j]
		}
		result.Rows = append(result.Rows, record)
	}
	return result, nil
}

func applyPredicate(rows core.RecordSet, pred filter.Predicate) (core.RecordSet, error) {
	if pred == nil {
		return rows, nil
	}
	matched, err := filter.Apply(rows, pred)
	if err != nil {
		return nil, err
	}
	return core.RecordSet(matched), nil
}

// TableIterator walks table pages and filters rows client side. Filtering never shortens
// the paging: a page is the last one only when the server returned fewer rows than requested.
type TableIterator struct {
	pages *core.PageIterator
	pred  filter.Predicate
}

func (it *TableIterator) Next() (core.RecordSet, error) {
	page, err := it.pages.Next()
	if err != nil {
		return nil, err
	}
	return applyPredicate(page, it.pred)
}

func (it *TableIterator) HasNext() bool {
	return it.pages.HasNext()
}

func (it *TableIterator) PageSize() int {
	return it.pages.PageSize()
}

func (it *TableIterator) Reset() (core.RecordSet, error) {
	page, err := it.pages.Reset()
	if err != nil {
		return nil, err
	}
	return applyPredicate(page, it.pred)
}

func (it *TableIterator) All() (core.RecordSet, error) {
	rows, err := it.pages.All()
	if err != nil {
		return nil, err
	}
	return applyPredicate(rows, it.pred)
}

var _ core.Iterator = (*TableIterator)(nil)

// cellValue renders nested values (list columns) as JSON and everything else as is.
func cellValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	case nil:
		return ""
	}
	return v
}

// PrettyTable renders the rows as a grid with the server's column order.
func (t *TableResult) PrettyTable() string {
	if len(t.Rows) == 0 {
		return "[]"
	}
	rows := make([][]any, 0, len(t.Rows))
	for _, record := range t.Rows {
		row := make([]any, len(t.ColumnNames))
		for i, name := range t.ColumnNames {
			row[i] = cellValue(record[name])
		}
		rows = append(rows, row)
	}
	tab := gotabulate.Create(rows)
	tab.SetHeaders(t.ColumnNames)
	tab.SetAlign("left")
	tab.SetWrapStrings(true)
	tab.SetMaxCellSize(40)
	return tab.Render("grid")
}

// WriteXLSX writes the rows as a workbook with a header row to w.
func (t *TableResult) WriteXLSX(w io.Writer, sheet string) error {
	const defaultSheet = "Sheet1"
	if sheet == "" {
		sheet = defaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return err
		}
	}
	header := make([]any, len(t.ColumnNames))
	for i, name := range t.ColumnNames {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, record := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, len(t.ColumnNames))
		for j, name := range t.ColumnNames {
			row[j] = cellValue(record[name])
		}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
