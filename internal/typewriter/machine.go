// Package typewriter implements the cycling "typewriter" headline: a phrase is
// typed one character at a time, held, erased, and the next phrase follows.
package typewriter

import (
	"errors"
	"time"
)

// ErrNoWords is returned when a cycler is configured without phrases.
var ErrNoWords = errors.New("typewriter: at least one word is required")

type Mode int

const (
	Typing Mode = iota
	Pausing
	Erasing
)

func (m Mode) String() string {
	switch m {
	case Typing:
		return "typing"
	case Pausing:
		return "pausing"
	case Erasing:
		return "erasing"
	default:
		return "unknown"
	}
}

// Machine is the timer-free state of a cycler. Lengths count runes, so
// multi-byte characters are typed and erased whole.
type Machine struct {
	words     [][]rune
	wordIndex int
	charIndex int
	mode      Mode
}

func NewMachine(words []string) (*Machine, error) {
	m := &Machine{}
	if err := m.SetWords(words); err != nil {
		return nil, err
	}
	m.Reset()
	return m, nil
}

// SetWords replaces the phrase list. The active word index falls back to 0
// when it no longer exists and the character index is clamped to the new word.
func (m *Machine) SetWords(words []string) error {
	if len(words) == 0 {
		return ErrNoWords
	}

	rw := make([][]rune, len(words))
	for i, w := range words {
		rw[i] = []rune(w)
	}
	m.words = rw

	if m.wordIndex >= len(m.words) {
		m.wordIndex = 0
	}
	if n := len(m.words[m.wordIndex]); m.charIndex > n {
		m.charIndex = n
	}
	if m.mode == Typing && m.charIndex == len(m.words[m.wordIndex]) {
		m.mode = Pausing
	}
	return nil
}

// Reset puts the machine at the start of the current word in Typing mode.
func (m *Machine) Reset() {
	m.charIndex = 0
	m.mode = Typing
	if len(m.current()) == 0 {
		m.mode = Pausing
	}
}

func (m *Machine) current() []rune {
	return m.words[m.wordIndex]
}

// Text is the prefix of the active word currently on display.
func (m *Machine) Text() string { return string(m.current()[:m.charIndex]) }

func (m *Machine) Mode() Mode { return m.mode }

func (m *Machine) WordIndex() int { return m.wordIndex }

func (m *Machine) CharIndex() int { return m.charIndex }

func (m *Machine) Words() []string {
	out := make([]string, len(m.words))
	for i, w := range m.words {
		out[i] = string(w)
	}
	return out
}

// Delay returns how long to wait before the next Step for the given timings.
func (m *Machine) Delay(typing, erasing, pause time.Duration) time.Duration {
	switch m.mode {
	case Pausing:
		return pause
	case Erasing:
		return erasing
	default:
		return typing
	}
}

// Step advances the machine by one tick and reports the display text and
// whether it changed.
//
// Typing the last character moves to Pausing in the same step. The pause
// ends in a silent switch to Erasing. Erasing the last character advances to
// the next word and moves to Typing in the same step, so the empty text is
// emitted exactly once per word boundary.
func (m *Machine) Step() (string, bool) {
	switch m.mode {
	case Typing:
		word := m.current()
		if m.charIndex >= len(word) {
			m.mode = Pausing
			return m.Text(), false
		}
		m.charIndex++
		if m.charIndex == len(word) {
			m.mode = Pausing
		}
		return m.Text(), true

	case Pausing:
		m.mode = Erasing
		if m.charIndex == 0 {
			// Nothing to erase: an empty word goes straight to the next one.
			m.advance()
		}
		return m.Text(), false

	case Erasing:
		erased := m.charIndex > 0
		if erased {
			m.charIndex--
		}
		if m.charIndex == 0 {
			m.advance()
		}
		return m.Text(), erased
	}
	return m.Text(), false
}

func (m *Machine) advance() {
	m.wordIndex = (m.wordIndex + 1) % len(m.words)
	m.Reset()
}
