package protocol

import (
	"bytes"
	"encoding/json"
)

// EncodeRequest serializes the request body for the transactional-commit
// endpoint. A nil statement list encodes as an empty array, which the
// server accepts as a keep-alive/no-op transaction.
func EncodeRequest(req *Request) ([]byte, error) {
	if req.Statements == nil {
		req = &Request{Statements: []Statement{}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, EncodeError(err)
	}

	return body, nil
}

// DecodeResponse parses a transactional-commit payload into typed form.
// Numbers are decoded as json.Number so large integer IDs survive the
// round trip without float64 truncation. Every row is checked against its
// result's column arity.
func DecodeResponse(payload []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, MalformedResponseError(err)
	}

	for i, result := range resp.Results {
		for j, datum := range result.Data {
			if len(datum.Row) != len(result.Columns) {
				return nil, ArityMismatchError(i, j, len(result.Columns), len(datum.Row))
			}
		}
	}

	return &resp, nil
}
