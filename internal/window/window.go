// Package window tracks where the sign-in box sits on screen and the
// arithmetic of dragging it around with the pointer.
package window

// Position is the top-left offset of the box, in terminal cells.
type Position struct {
	X, Y int
}

// Controller owns one box's position. The zero value is usable and sits at 0,0.
type Controller struct {
	pos      Position
	dragging bool
	start    Position // box position when the drag began
	anchor   Position // pointer position when the drag began
}

// Open resets the box to the centre of a viewW x viewH viewport. The top
// offset is clamped to zero; the left offset is not.
func (c *Controller) Open(viewW, viewH, boxW, boxH int) Position {
	c.dragging = false
	c.pos = Position{
		X: (viewW - boxW) / 2,
		Y: max((viewH-boxH)/2, 0),
	}
	return c.pos
}

// Position returns the current offset.
func (c *Controller) Position() Position { return c.pos }

// Dragging reports whether a drag gesture is in progress.
func (c *Controller) Dragging() bool { return c.dragging }

// BeginDrag records the pointer position that later moves are measured from.
func (c *Controller) BeginDrag(px, py int) {
	c.dragging = true
	c.start = c.pos
	c.anchor = Position{X: px, Y: py}
}

// DragTo moves the box by the pointer's delta since BeginDrag. Both
// coordinates are clamped to zero; there is no right or bottom bound.
func (c *Controller) DragTo(px, py int) Position {
	if !c.dragging {
		return c.pos
	}
	c.pos = Position{
		X: max(c.start.X+px-c.anchor.X, 0),
		Y: max(c.start.Y+py-c.anchor.Y, 0),
	}
	return c.pos
}

// EndDrag finishes the gesture, keeping the last position.
func (c *Controller) EndDrag() { c.dragging = false }

// Contains reports whether the pointer at px,py is inside a w x h box at the
// current position.
func (c *Controller) Contains(px, py, w, h int) bool {
	return px >= c.pos.X && px < c.pos.X+w && py >= c.pos.Y && py < c.pos.Y+h
}
