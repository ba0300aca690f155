package layout

// Request is one entry of a render plan before its source is loaded.
type Request struct {
	File  string
	Start float64
	Pos   Point
	Cap   float64
}

// TestPlan is the fixed three-clip render: baeuh, then boom one cell to the
// right, then baeuh again in the first cell.
func TestPlan() []Request {
	return []Request{
		{File: "baeuh.mp4", Start: 0.0, Pos: Cell(0, 0), Cap: TrimCap},
		{File: "boom.mp4", Start: 2.0, Pos: Cell(1, 0), Cap: TrimCap},
		{File: "baeuh.mp4", Start: 4.0, Pos: Cell(0, 0), Cap: TrimCap},
	}
}
