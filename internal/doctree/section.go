package doctree

// Section is a node of the assembled outline. It owns its leaf blocks and
// child sections; blocks hold no reference back to their section.
type Section struct {
	ID             string `json:"id"`
	Level          int    `json:"level"`
	Text           string `json:"text"`
	NormalizedText string `json:"normalized_text,omitempty"`

	HeadingSource     string   `json:"heading_source,omitempty"`
	HeadingConfidence float64  `json:"heading_confidence"`
	HeadingScore      float64  `json:"heading_score"`
	StyleID           string   `json:"style_id,omitempty"`
	StyleName         string   `json:"style_name,omitempty"`
	OutlineLvlRaw     *int     `json:"outline_lvl_raw,omitempty"`
	NumberingID       string   `json:"numbering_id,omitempty"`
	NumberingIlvl     *int     `json:"numbering_ilvl,omitempty"`
	IsCandidate       bool     `json:"is_candidate"`
	Evidence          string   `json:"evidence,omitempty"`
	Signals           []string `json:"signals,omitempty"`

	Blocks   []Block    `json:"blocks"`
	Children []*Section `json:"children"`
}

// Walk visits s and its descendants depth first with their depth (s is 1).
func (s *Section) Walk(fn func(sec *Section, depth int)) {
	s.walk(fn, 1)
}

func (s *Section) walk(fn func(*Section, int), depth int) {
	fn(s, depth)
	for _, c := range s.Children {
		c.walk(fn, depth+1)
	}
}
