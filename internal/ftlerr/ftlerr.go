// Package ftlerr defines the sentinel error kinds the FTL core can surface
// (spec §7) and the wrapping conventions used to annotate them with context.
package ftlerr

import "github.com/pkg/errors"

// NotFound is never returned to callers directly: GET/DELETE of an absent
// key is a boolean false, not an error. It exists so internal helpers can
// share a single sentinel when a lookup comes up empty.
var NotFound = errors.New("ftl: key not found")

// FlashFull indicates the allocator completed a full revolution of the page
// space without finding an unoccupied page. Recoverable by a forced GC
// round; only surfaced to the caller if that GC reclaims nothing.
var FlashFull = errors.New("ftl: flash device full")

// UnknownMode is a fatal configuration error raised when the policy
// factory is given an inlining mode name it doesn't recognize.
var UnknownMode = errors.New("ftl: unknown inlining mode")

// WrapFlashFull annotates FlashFull with the operation that observed it.
func WrapFlashFull(op string) error {
	return errors.Wrapf(FlashFull, "op=%s", op)
}

// WrapUnknownMode annotates UnknownMode with the offending mode string.
func WrapUnknownMode(mode string) error {
	return errors.Wrapf(UnknownMode, "mode=%q", mode)
}

// Is reports whether err is, or wraps, target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
