package debugger

import (
	"fmt"
	"sync"

	"github.com/hollowvm/intcode/internal/vm"
)

// WatchType represents the kind of access a watchpoint is nominally
// interested in. The underlying detection is the same for every type:
// a write reported by the VM's LastWriteAddr, or a value change. The VM
// records no reads, so a watchpoint cannot distinguish a read from a
// write. WatchType is kept so conditions can be expressed and reported
// in familiar terms even though all three behave identically.
type WatchType int

const (
	WatchWrite     WatchType = iota // trigger on write (same detection as WatchReadWrite)
	WatchRead                       // trigger on read (same detection as WatchReadWrite; reads are not seen)
	WatchReadWrite                  // trigger on either (write or value change detection)
)

// Watchpoint monitors one memory cell for a write or a value change. Intcode has
// no registers, so unlike the teacher's design a watchpoint always
// names a memory address.
type Watchpoint struct {
	ID         int
	Type       WatchType
	Expression string // expression the user typed, e.g. "mem[8]"
	Address    int64
	Enabled    bool
	LastValue  int64
	HitCount   int
}

// WatchpointManager manages all watchpoints for a debug session.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

// NewWatchpointManager creates a new, empty watchpoint manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint adds a new watchpoint on address.
func (wm *WatchpointManager) AddWatchpoint(wpType WatchType, expression string, address int64) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{
		ID:         wm.nextID,
		Type:       wpType,
		Expression: expression,
		Address:    address,
		Enabled:    true,
	}

	wm.watchpoints[wp.ID] = wp
	wm.nextID++

	return wp
}

// DeleteWatchpoint removes a watchpoint by ID.
func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	delete(wm.watchpoints, id)
	return nil
}

// EnableWatchpoint enables a watchpoint by ID.
func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = true
	return nil
}

// DisableWatchpoint disables a watchpoint by ID.
func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = false
	return nil
}

// GetWatchpoint gets a watchpoint by ID.
func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return wm.watchpoints[id]
}

// GetAllWatchpoints returns all watchpoints.
func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}

	return result
}

func memReadWord(machine *vm.Computer, addr int64) (int64, error) {
	if addr < 0 {
		return 0, fmt.Errorf("negative memory address: %d", addr)
	}
	mem := machine.Memory()
	if int(addr) >= len(mem) {
		return 0, nil
	}
	return mem[addr], nil
}

// CheckWatchpoints checks all enabled watchpoints and returns the
// first one that fired: either the VM's most recent instruction wrote
// to its address, or (as a fallback, e.g. when checked several steps
// after the write that changed it) its memory cell no longer matches
// the last value observed.
func (wm *WatchpointManager) CheckWatchpoints(machine *vm.Computer) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	writeAddr, hasWrite := machine.LastWriteAddr()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}

		currentValue, err := memReadWord(machine, wp.Address)
		if err != nil {
			continue
		}

		if (hasWrite && writeAddr == wp.Address) || currentValue != wp.LastValue {
			wp.HitCount++
			wp.LastValue = currentValue
			return wp, true
		}
	}

	return nil, false
}

// InitializeWatchpoint seeds a watchpoint's last-known value so the
// first CheckWatchpoints call doesn't spuriously fire against the
// zero value.
func (wm *WatchpointManager) InitializeWatchpoint(id int, machine *vm.Computer) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	value, err := memReadWord(machine, wp.Address)
	if err != nil {
		return fmt.Errorf("failed to initialize watchpoint: %w", err)
	}
	wp.LastValue = value

	return nil
}

// Clear removes all watchpoints.
func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wm.watchpoints = make(map[int]*Watchpoint)
}

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return len(wm.watchpoints)
}
