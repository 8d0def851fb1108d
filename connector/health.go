package connector

import (
	"context"

	"github.com/textkernel/neo4j-connector-go/protocol"
)

// Ping verifies that the endpoint accepts transactional requests by
// committing an empty statement list. It returns nil when the server
// answers 2xx with an empty error list.
func (c *Connector) Ping(ctx context.Context) error {
	body, err := protocol.EncodeRequest(&protocol.Request{})
	if err != nil {
		return ErrMalformedStatements(err)
	}

	status, payload, err := c.tr.Post(ctx, body)
	if err != nil {
		return ErrRequestFailed(status, err, nil)
	}
	if status < 200 || status >= 300 {
		return ErrRequestFailed(status, nil, nil)
	}

	resp, err := protocol.DecodeResponse(payload)
	if err != nil {
		return ErrRequestFailed(status, err, nil)
	}
	if len(resp.Errors) > 0 {
		return NewStatementError(0, resp.Errors)
	}

	return nil
}
