package indexer

import "fmt"

// HeightRange is an inclusive range of block heights.
type HeightRange struct {
	From int64
	To   int64
}

// SplitRange splits a height range into batches of at most batchSize heights.
func SplitRange(from, to, batchSize int64) ([]HeightRange, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if from <= 0 {
		return nil, fmt.Errorf("from height must be positive")
	}
	if to < from {
		return nil, fmt.Errorf("to height must be >= from height")
	}

	ranges := make([]HeightRange, 0, (to-from)/batchSize+1)
	for start := from; start <= to; start += batchSize {
		end := start + batchSize - 1
		if end > to {
			end = to
		}
		ranges = append(ranges, HeightRange{From: start, To: end})
	}
	return ranges, nil
}
