package connector

// Version is set by build flags during compilation.
// Example: go build -ldflags "-X github.com/textkernel/neo4j-connector-go/connector.Version=$(git describe --tags --always --dirty)"
var Version = "dev"
