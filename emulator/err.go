package emulator

import (
	"github.com/ezrec/gtusim/translate"
)

var f = translate.From

// ErrCycleCeiling indicates the run loop stopped after n steps without
// the machine halting. This is not fatal: it stops the simulation with
// a diagnostic, per the CycleCeiling error class.
type ErrCycleCeiling int

func (err ErrCycleCeiling) Error() string {
	return f("cycle ceiling of %d steps reached without halt", int(err))
}
