// Package protocol provides the wire types and error codes for Neo4j's
// HTTP transactional-commit endpoint.
package protocol

// Statement is one entry of the request's "statements" array. The statement
// text is opaque and forwarded verbatim; parameters are merged into the
// statement server-side.
type Statement struct {
	Statement  string                 `json:"statement"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Request is the body POSTed to the transactional-commit endpoint.
type Request struct {
	Statements []Statement `json:"statements"`
}

// Datum is a single row entry within a statement result. Meta is carried
// through undecoded row metadata; the connector does not interpret it.
type Datum struct {
	Row  []interface{} `json:"row"`
	Meta []interface{} `json:"meta,omitempty"`
}

// Result is the tabular output of one statement: column names plus one
// Datum per row, in server order.
type Result struct {
	Columns []string `json:"columns"`
	Data    []Datum  `json:"data"`
}

// ServerError is one entry of the response's "errors" array, carrying a
// Neo4j status code (e.g. "Neo.ClientError.Statement.SyntaxError") and a
// descriptive message.
type ServerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the decoded transactional-commit response. A non-empty
// Errors list means the server rolled the transaction back.
type Response struct {
	Results []Result      `json:"results"`
	Errors  []ServerError `json:"errors"`
}
