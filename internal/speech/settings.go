package speech

import "sync/atomic"

// Settings holds the live style selection. The drain loop reads it on
// every iteration, so a change applies to not-yet-dispatched segments only.
type Settings struct {
	style atomic.Value
}

func NewSettings(style Style) *Settings {
	s := &Settings{}
	s.style.Store(style)
	return s
}

func (s *Settings) Style() Style {
	return s.style.Load().(Style)
}

func (s *Settings) SetStyle(style Style) {
	s.style.Store(style)
}
