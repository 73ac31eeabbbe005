package mem

import "errors"

// ErrRAMSizeNotPowerOfTwo is returned by NewRAM/NewBus when the requested
// RAM size in kilobytes is not a power of two.
var ErrRAMSizeNotPowerOfTwo = errors.New("ram size must be a power of two kilobytes")
