package session

import "lms-quiz-session/internal/domain"

// Cursor points at the displayed question. Forward movement is sequential only;
// any position at or before the cursor can be jumped to.
type Cursor struct {
	pos   int
	total int
}

// NewCursor returns a cursor on the first of total questions.
func NewCursor(total int) *Cursor {
	return &Cursor{total: total}
}

// Index is the current position.
func (c *Cursor) Index() int { return c.pos }

// Total is the number of positions.
func (c *Cursor) Total() int { return c.total }

// AtLast reports whether the cursor is on the final question.
func (c *Cursor) AtLast() bool { return c.total > 0 && c.pos == c.total-1 }

// Next advances one position. It reports false when already on the last question.
func (c *Cursor) Next() bool {
	if c.pos >= c.total-1 {
		return false
	}
	c.pos++
	return true
}

// Previous moves back one position. It reports false on the first question.
func (c *Cursor) Previous() bool {
	if c.pos <= 0 {
		return false
	}
	c.pos--
	return true
}

// JumpTo moves to index when 0 <= index <= current position.
func (c *Cursor) JumpTo(index int) error {
	if index < 0 || index > c.pos {
		return domain.ErrJumpAhead
	}
	c.pos = index
	return nil
}
