package netlab

import (
	"errors"
	"fmt"
)

// Validator accumulates frame validation errors across one or more checks.
// The zero value is ready to use. By default only the first error added is
// kept; call SetStrict to accumulate and join every error found instead
// (useful for diagnostics, not for the hot receive path).
type Validator struct {
	strict bool
	accum  []error
}

// SetStrict controls whether the validator accumulates every error it is
// given (true) or keeps only the first one, cheaply dropping the rest
// (false, the default). The stack's receive path uses the default cheap
// mode.
func (v *Validator) SetStrict(strict bool) { v.strict = strict }

// ResetErr clears all accumulated errors, preparing the validator for reuse.
func (v *Validator) ResetErr() {
	v.accum = v.accum[:0]
}

// HasError reports whether any error has been added since the last ResetErr.
func (v *Validator) HasError() bool {
	return len(v.accum) != 0
}

// AddError records err. err must be non-nil.
func (v *Validator) AddError(err error) {
	if err == nil {
		panic("netlab: AddError called with nil error")
	}
	if len(v.accum) != 0 && !v.strict {
		return
	}
	v.accum = append(v.accum, err)
}

// Err returns the accumulated error, joining multiple errors together when
// in strict mode. It returns nil if no error was added.
func (v *Validator) Err() error {
	switch len(v.accum) {
	case 0:
		return nil
	case 1:
		return v.accum[0]
	default:
		return errors.Join(v.accum...)
	}
}

// ErrPop returns and discards the first accumulated error, or nil if none
// was recorded. It leaves any remaining errors (strict mode) in place.
func (v *Validator) ErrPop() error {
	if len(v.accum) == 0 {
		return nil
	}
	err := v.accum[0]
	v.accum = append(v.accum[:0], v.accum[1:]...)
	return err
}

// BitPosErr annotates err with the bit range of the offending header field,
// for diagnostics such as the stack's trace log of dropped datagrams.
type BitPosErr struct {
	BitStart int
	BitLen   int
	Err      error
}

func (bpe *BitPosErr) Error() string {
	return fmt.Sprintf("%s at bits %d..%d", bpe.Err.Error(), bpe.BitStart, bpe.BitStart+bpe.BitLen)
}

// AddBitPosErr is like AddError but tags the error with the header bit
// range that failed validation.
func (v *Validator) AddBitPosErr(bitStart, bitLen int, err error) {
	if err == nil {
		panic("netlab: AddBitPosErr called with nil error")
	} else if bitLen <= 0 {
		panic("netlab: AddBitPosErr called with non-positive bitLen")
	}
	v.AddError(&BitPosErr{BitStart: bitStart, BitLen: bitLen, Err: err})
}
