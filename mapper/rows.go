// Package mapper turns decoded transactional-commit responses into ordered
// row mappings and provides type coercion for dynamically typed cells.
package mapper

import (
	"github.com/textkernel/neo4j-connector-go/protocol"
)

// Row is one result row keyed by column name. Cell values hold whatever the
// codec decoded: string, json.Number, bool, nil, []interface{} or
// map[string]interface{}.
type Row map[string]interface{}

// ResultRows zips one result's columns with each datum's values. Row order
// matches the server's order. The codec guarantees arity, so no bounds
// checks are repeated here.
func ResultRows(result protocol.Result) []Row {
	rows := make([]Row, 0, len(result.Data))
	for _, datum := range result.Data {
		row := make(Row, len(result.Columns))
		for i, column := range result.Columns {
			row[column] = datum.Row[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// FlattenResults concatenates every statement's rows in response order,
// producing the same sequence a single combined statement list would have.
func FlattenResults(results []protocol.Result) []Row {
	rows := make([]Row, 0)
	for _, result := range results {
		rows = append(rows, ResultRows(result)...)
	}
	return rows
}
