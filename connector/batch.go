package connector

// makeBatches partitions statements into consecutive chunks of at most
// batchSize elements, preserving the original order. The last chunk may be
// shorter. batchSize must be >= 1; callers validate before reaching here.
func makeBatches(statements []Statement, batchSize int) [][]Statement {
	batches := make([][]Statement, 0, (len(statements)+batchSize-1)/batchSize)

	for start := 0; start < len(statements); start += batchSize {
		end := start + batchSize
		if end > len(statements) {
			end = len(statements)
		}
		batches = append(batches, statements[start:end])
	}

	return batches
}
