package connector

import (
	"github.com/cespare/xxhash"

	"github.com/textkernel/neo4j-connector-go/protocol"
)

// Statement is a single Cypher statement with optional named parameters.
// The Cypher text is opaque to the connector and forwarded verbatim;
// parameters are merged into the statement server-side, which lets Neo4j
// cache execution plans for identical statement text.
type Statement struct {
	Cypher     string
	Parameters map[string]interface{}
}

// NewStatement creates a statement without parameters.
func NewStatement(cypher string) Statement {
	return Statement{Cypher: cypher}
}

// NewStatementWithParams creates a parametrized statement.
func NewStatementWithParams(cypher string, params map[string]interface{}) Statement {
	return Statement{Cypher: cypher, Parameters: params}
}

// Fingerprint returns a stable hash of the Cypher text. Logs and hooks use
// it to correlate repeated statements without emitting query text.
func (s Statement) Fingerprint() uint64 {
	return xxhash.Sum64String(s.Cypher)
}

// wire converts the statement into its request form.
func (s Statement) wire() protocol.Statement {
	return protocol.Statement{
		Statement:  s.Cypher,
		Parameters: s.Parameters,
	}
}

func wireStatements(statements []Statement) []protocol.Statement {
	wired := make([]protocol.Statement, len(statements))
	for i, statement := range statements {
		wired[i] = statement.wire()
	}
	return wired
}
