package led

import "fmt"

// maxLockIDLen bounds the size of a caller supplied lock token.
const maxLockIDLen = 256

// lock gives l to the holder of id. An LED that is already locked can't be
// locked again, not even by the current holder.
func (r *Registry) lock(l *LED, id string) error {
	if len(id) > maxLockIDLen {
		return fmt.Errorf("%w: lock ID longer than %d bytes", ErrResourceExhausted, maxLockIDLen)
	}
	if l.lockID != "" {
		return ErrAlreadyLocked
	}
	l.lockID = id
	r.observer.LockChanged(l.name, id, true)
	return nil
}

// unlock releases l. The lock is left intact on any failure.
func (r *Registry) unlock(l *LED, id string) error {
	switch {
	case l.lockID == "":
		return ErrNotLocked
	case id == "":
		return ErrLockIDMissing
	case id != l.lockID:
		return ErrIncorrectLockID
	}
	l.lockID = ""
	r.observer.LockChanged(l.name, id, false)
	return nil
}
