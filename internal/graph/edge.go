package graph

// Link is a directed family relationship between two nodes
type Link struct {
	From string `json:"from" toml:"from"`
	To   string `json:"to" toml:"to"`
}

// Segment is a link whose endpoints were both resolved, ready to be drawn
// as a straight line between the two percentage coordinates.
type Segment struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}
