package evmi

import "fmt"

func blockRegressionError(current, requested uint64) error {
	return fmt.Errorf("block number must not decrease: currently at %d, requested %d", current, requested)
}
