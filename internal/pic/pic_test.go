package pic

import "testing"

type fakeBus struct {
	data map[uint16]uint8
}

func newFakeBus() *fakeBus { return &fakeBus{data: make(map[uint16]uint8)} }

func (b *fakeBus) Inb(port uint16) uint8         { return b.data[port] }
func (b *fakeBus) Outb(port uint16, val uint8)   { b.data[port] = val }
func (b *fakeBus) Inw(port uint16) uint16        { return 0 }
func (b *fakeBus) Outw(port uint16, val uint16)  {}

func TestNewMasksExceptCascade(t *testing.T) {
	bus := newFakeBus()
	New(bus)

	if bus.data[masterData] != 0xFB {
		t.Fatalf("master mask = %x, want 0xfb", bus.data[masterData])
	}
	if bus.data[slaveData] != 0xFF {
		t.Fatalf("slave mask = %x, want 0xff", bus.data[slaveData])
	}
}

func TestEnableDisableIRQ(t *testing.T) {
	bus := newFakeBus()
	p := New(bus)

	p.Enable(1) // keyboard
	if p.Masked(1) {
		t.Fatal("IRQ1 should be unmasked after Enable")
	}
	if bus.data[masterData]&(1<<1) != 0 {
		t.Fatal("master data port did not reflect unmask")
	}

	p.Disable(1)
	if !p.Masked(1) {
		t.Fatal("IRQ1 should be masked after Disable")
	}
}

func TestEnableSlaveIRQ(t *testing.T) {
	bus := newFakeBus()
	p := New(bus)

	p.Enable(8) // RTC, on slave chip
	if p.Masked(8) {
		t.Fatal("IRQ8 should be unmasked after Enable")
	}
	if bus.data[slaveData]&1 != 0 {
		t.Fatal("slave data port did not reflect unmask")
	}
}

func TestEOICascade(t *testing.T) {
	bus := newFakeBus()
	p := New(bus)

	p.EOI(8)
	if bus.data[slaveCommand] != eoi {
		t.Fatalf("slave EOI = %x, want %x", bus.data[slaveCommand], eoi)
	}
	if bus.data[masterCommand] != eoi|SlaveIRQ {
		t.Fatalf("master cascade EOI = %x, want %x", bus.data[masterCommand], eoi|SlaveIRQ)
	}
}
