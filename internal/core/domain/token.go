package domain

// BoundingBox is a rectangle in page-normalised coordinates.
// All values are in [0,1] with X0 <= X1 and Y0 <= Y1.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Valid reports whether the box is well formed and inside the unit square.
func (b BoundingBox) Valid() bool {
	if b.X0 > b.X1 || b.Y0 > b.Y1 {
		return false
	}
	return b.X0 >= 0 && b.Y0 >= 0 && b.X1 <= 1 && b.Y1 <= 1
}

// IsZero reports whether the box is the zero box.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Area returns the box area.
func (b BoundingBox) Area() float64 {
	w := b.X1 - b.X0
	h := b.Y1 - b.Y0
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// IoU returns the intersection area over the union area of two boxes.
// Degenerate boxes yield 0.
func (b BoundingBox) IoU(o BoundingBox) float64 {
	ix0 := max(b.X0, o.X0)
	iy0 := max(b.Y0, o.Y0)
	ix1 := min(b.X1, o.X1)
	iy1 := min(b.Y1, o.Y1)
	inter := BoundingBox{X0: ix0, Y0: iy0, X1: ix1, Y1: iy1}.Area()
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// UnionAll returns the union of all boxes, or the zero box when empty.
func UnionAll(boxes []BoundingBox) BoundingBox {
	if len(boxes) == 0 {
		return BoundingBox{}
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out
}

// Token is one positioned word on a page. Tokens are ephemeral and never persisted.
type Token struct {
	Text string      `json:"text"`
	Box  BoundingBox `json:"box"`
}

// PageTokens is the token list of one page. Page numbers start at 1.
type PageTokens struct {
	Page   int     `json:"page"`
	Tokens []Token `json:"tokens"`
}
