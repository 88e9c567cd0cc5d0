package chip8

// Recording fakes for the collaborator capabilities.

type fakeKeyboard struct {
	pressed [NumKeys]bool
}

func (k *fakeKeyboard) IsPressed(key byte) bool {
	return k.pressed[key]
}

type fakeDisplay struct {
	changes int
}

func (d *fakeDisplay) DisplayChanged() {
	d.changes++
}

type fakeSound struct {
	starts int
	stops  int
}

func (s *fakeSound) StartSound() {
	s.starts++
}

func (s *fakeSound) StopSound() {
	s.stops++
}
