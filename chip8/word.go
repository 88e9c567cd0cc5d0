package chip8

// word is a single 16-bit instruction as fetched from memory, big-endian.
// Every 16-bit value decodes totally into its fields; whether the fields
// name a real instruction is decided separately by decode.
type word uint16

// op returns the leading nibble (bits 15-12), the instruction group.
func (w word) op() byte { return byte(w >> 12) }

// x returns the first register operand (bits 11-8).
func (w word) x() byte { return byte(w>>8) & 0x0F }

// y returns the second register operand (bits 7-4).
func (w word) y() byte { return byte(w>>4) & 0x0F }

// n returns the trailing nibble (bits 3-0).
func (w word) n() byte { return byte(w) & 0x0F }

// nn returns the 8-bit immediate (bits 7-0).
func (w word) nn() byte { return byte(w) }

// nnn returns the 12-bit address field (bits 11-0).
func (w word) nnn() uint16 { return uint16(w) & 0x0FFF }
