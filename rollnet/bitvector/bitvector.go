package bitvector

const BITVECTOR_NIBBLE_SIZE = 9

// MAX_NIBBLET is the largest bit index a nibblet can address.
const MAX_NIBBLET = 1<<BITVECTOR_NIBBLE_SIZE - 1

// Vector is a little-endian bit stream. Writes grow the buffer; reads past
// the end yield zero bits and set Overrun.
type Vector struct {
	Bits    []byte
	Offset  int64
	Overrun bool
}

func NewReader(bits []byte) *Vector {
	return &Vector{Bits: bits}
}

func (v *Vector) grow() {
	for (v.Offset / 8) >= int64(len(v.Bits)) {
		v.Bits = append(v.Bits, 0)
	}
}

func (v *Vector) SetBit() {
	v.grow()
	v.Bits[v.Offset/8] |= 1 << uint(v.Offset%8)
	v.Offset++
}

func (v *Vector) ClearBit() {
	v.grow()
	v.Bits[v.Offset/8] &^= 1 << uint(v.Offset%8)
	v.Offset++
}

func (v *Vector) WriteNibblet(nibble int64) {
	for i := 0; i < BITVECTOR_NIBBLE_SIZE; i++ {
		if nibble&(1<<uint(i)) != 0 {
			v.SetBit()
		} else {
			v.ClearBit()
		}
	}
}

func (v *Vector) ReadBit() int64 {
	if v.Offset/8 >= int64(len(v.Bits)) {
		v.Overrun = true
		v.Offset++
		return 0
	}
	var retval int64
	if v.Bits[v.Offset/8]&(1<<uint(v.Offset%8)) != 0 {
		retval = 1
	}
	v.Offset++
	return retval
}

func (v *Vector) ReadNibblet() int64 {
	var nibblet int64
	for i := 0; i < BITVECTOR_NIBBLE_SIZE; i++ {
		nibblet |= v.ReadBit() << uint(i)
	}
	return nibblet
}

// Len is the number of bits written or read so far.
func (v *Vector) Len() int64 {
	return v.Offset
}
