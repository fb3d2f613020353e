package graph

// NodeStyle is the palette triple a node is drawn with
type NodeStyle struct {
	Border string `json:"border"`
	Fill   string `json:"fill"`
	Text   string `json:"text"`
}

// Legend colors shown next to the canvas.
const (
	LegendRoot   = "#F59E0B"
	LegendMale   = "#3B82F6"
	LegendFemale = "#DB2777"
	EdgeColor    = "#1E3A8A"
)

var (
	rootStyle   = NodeStyle{Border: "border-yellow-500", Fill: "bg-yellow-900/40", Text: "text-yellow-500"}
	femaleStyle = NodeStyle{Border: "border-pink-600", Fill: "bg-pink-900/30", Text: "text-pink-400"}
	maleStyle   = NodeStyle{Border: "border-blue-500", Fill: "bg-blue-900/30", Text: "text-blue-400"}
)

// StyleFor picks the palette from the root flag, the selection and the gender tag.
// Selection keeps the border and overrides fill and text.
func StyleFor(n PersonNode, selected bool) NodeStyle {
	var s NodeStyle
	switch {
	case n.IsRoot:
		s = rootStyle
	case n.Gender == GenderFemale:
		s = femaleStyle
	default:
		s = maleStyle
	}

	if selected {
		s.Fill = "bg-white/10"
		s.Text = "text-white"
	}
	return s
}
