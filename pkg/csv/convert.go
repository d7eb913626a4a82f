// Package csv provides conversion utilities between AST nodes and records.
package csv

import (
	"fmt"

	"github.com/shapestone/shape/pkg/ast"
	"github.com/shapestone/shape-rfc4180/internal/parser"
)

// NodeToRecords converts an AST node back into records.
//
// The node must be an *ast.ArrayDataNode of records, each an
// *ast.ArrayDataNode of *ast.LiteralNode fields, as returned by ParseAST.
// Non-string literal values are formatted with %v; nil becomes "".
//
// Example:
//
//	node, _ := csv.ParseAST("name,age\r\nAlice,30\r\n")
//	records, _ := csv.NodeToRecords(node)
//	// records is [][]string{{"name","age"}, {"Alice","30"}}
func NodeToRecords(node ast.SchemaNode) ([][]string, error) {
	file, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return nil, fmt.Errorf("unsupported node type for CSV records: %T", node)
	}

	elements := file.Elements()
	records := make([][]string, len(elements))
	for i, elem := range elements {
		record, ok := elem.(*ast.ArrayDataNode)
		if !ok {
			return nil, fmt.Errorf("unexpected element type in array: %T", elem)
		}

		fields := record.Elements()
		records[i] = make([]string, len(fields))
		for j, f := range fields {
			lit, ok := f.(*ast.LiteralNode)
			if !ok {
				return nil, fmt.Errorf("unexpected field type in record %d: %T", i, f)
			}
			switch v := lit.Value().(type) {
			case string:
				records[i][j] = v
			case nil:
				// empty field
			default:
				records[i][j] = fmt.Sprintf("%v", v)
			}
		}
	}
	return records, nil
}

// RecordsToNode converts records to an AST node shaped like the output of
// ParseAST. Nodes carry no source position.
//
// Example:
//
//	records := [][]string{
//	    {"name", "age"},
//	    {"Alice", "30"},
//	}
//	node := csv.RecordsToNode(records)
func RecordsToNode(records [][]string) ast.SchemaNode {
	return parser.BuildAST(records, nil)
}
