package embedder

import "fmt"

func errCountMismatch(want, got int) error {
	return fmt.Errorf("embedding result count mismatch: expected %d got %d", want, got)
}
