package sent

// slowChannelSlot is one entry of SlowChannelTable.
type slowChannelSlot struct {
	value uint16
	id    uint8
	valid bool
}

// SlowChannelTable stores decoded slow-channel values by message ID in
// a fixed arena of SlowChannelCapacity slots. Lookups scan linearly.
type SlowChannelTable struct {
	slots [SlowChannelCapacity]slowChannelSlot
}

// Store updates the slot holding id, or claims the first free slot.
// It returns ErrSlowChannelFull and leaves the table untouched when
// id is new and no slot is free.
func (t *SlowChannelTable) Store(id uint8, value uint16) error {
	for i := range t.slots {
		if s := &t.slots[i]; s.valid && s.id == id {
			s.value = value
			return nil
		}
	}
	for i := range t.slots {
		if s := &t.slots[i]; !s.valid {
			*s = slowChannelSlot{value: value, id: id, valid: true}
			return nil
		}
	}
	return ErrSlowChannelFull
}

// Lookup returns the value stored for id.
func (t *SlowChannelTable) Lookup(id uint8) (uint16, bool) {
	for i := range t.slots {
		if s := &t.slots[i]; s.valid && s.id == id {
			return s.value, true
		}
	}
	return 0, false
}

// Each calls fn for every stored value in slot order.
func (t *SlowChannelTable) Each(fn func(id uint8, value uint16)) {
	for i := range t.slots {
		if s := &t.slots[i]; s.valid {
			fn(s.id, s.value)
		}
	}
}

// Len returns the number of stored IDs.
func (t *SlowChannelTable) Len() (n int) {
	for i := range t.slots {
		if t.slots[i].valid {
			n++
		}
	}
	return
}

// Invalidate drops every stored value.
func (t *SlowChannelTable) Invalidate() {
	for i := range t.slots {
		t.slots[i].valid = false
	}
}

// Slow channel message patterns matched against the bit 3 register.
const (
	shortMask     = 0xffff
	shortPattern  = 0x8000 // 1000 0000 0000 0000
	enhancedMask  = 0x3f821
	enhancedMatch = 0x3f000 // 11 1111 0xxx xx0x xxx0
	// enhancedConfigBit selects 16-bit data with a 4-bit ID.
	enhancedConfigBit = 1 << 10
)

// slowChannel accumulates status bits 2 and 3 of consecutive valid
// frames. Each register is a rolling window, newest bit in bit 0.
type slowChannel struct {
	shift2   uint32 // bit 2 of status, 1 bit per frame
	shift3   uint32 // bit 3 of status, 1 bit per frame
	crcShift uint32 // (bit 2, bit 3) per frame, CRC-6 input order

	table SlowChannelTable
}

// decode shifts in the status nibble of a valid frame and stores any
// completed message.
func (c *slowChannel) decode(status uint8, stats *Statistics) {
	b2 := uint32(status>>2) & 1
	b3 := uint32(status>>3) & 1

	c.shift2 = c.shift2<<1 | b2
	c.shift3 = c.shift3<<1 | b3
	c.crcShift = c.crcShift<<2 | b2<<1 | b3

	if c.shift3&shortMask == shortPattern {
		// Short Serial Message: 4-bit ID, 8-bit data, CRC not verified.
		id := uint8(c.shift2>>12) & 0x0f
		value := uint16(c.shift2>>4) & 0xff
		c.store(id, value, stats)
		return
	}

	if c.shift3&enhancedMask != enhancedMatch {
		return
	}
	sixteenBit := c.shift3&enhancedConfigBit != 0
	if sixteenBit {
		stats.SlowChannel16++
	} else {
		stats.SlowChannel12++
	}
	if crc := uint8(c.shift2>>12) & 0x3f; crc != CRC6(c.crcShift) {
		stats.SlowCRCErr++
		return
	}
	var id uint8
	var value uint16
	if sixteenBit {
		id = uint8(c.shift3>>6) & 0x0f
		value = uint16(c.shift2)&0x0fff | uint16((c.shift3>>1)&0x0f)<<12
	} else {
		id = uint8(c.shift3>>1)&0x0f | uint8(c.shift3>>2)&0xf0
		value = uint16(c.shift2) & 0x0fff
	}
	c.store(id, value, stats)
}

func (c *slowChannel) store(id uint8, value uint16, stats *Statistics) {
	if c.table.Store(id, value) != nil {
		stats.SlowTableFull++
	}
}

// reset drops the partially received message, stored values survive.
func (c *slowChannel) reset() {
	c.shift2 = 0
	c.shift3 = 0
}

// restart drops partial messages and all stored values.
func (c *slowChannel) restart() {
	c.reset()
	c.table.Invalidate()
}
