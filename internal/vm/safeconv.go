package vm

import "fmt"

// AddressError reports that a memory address fell outside the values
// the VM can index with: addresses are non-negative, per spec.
type AddressError struct {
	Addr int64
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("negative address %d", e.Addr)
}

// safeAddr safely converts a signed intcode address into a slice
// index, failing when the address is negative -- a negative index
// would otherwise panic when used on the memory slice.
func safeAddr(addr int64) (int, error) {
	if addr < 0 {
		return 0, &AddressError{Addr: addr}
	}
	return int(addr), nil
}
