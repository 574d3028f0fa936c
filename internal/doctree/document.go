package doctree

// Document is what a loader hands to the pipeline: the ordered block stream
// plus the style sheet the scorer walks.
type Document struct {
	Meta       DocMeta
	Blocks     []Block
	Styles     Styles
	ImageCount int
}

// Style is one named paragraph style. OutlineLevel is 0-based, as declared.
type Style struct {
	ID           string
	Name         string
	BasedOn      string
	OutlineLevel *int
}

// Styles indexes styles by id.
type Styles map[string]Style

// Lookup returns the style with the given id.
func (s Styles) Lookup(id string) (Style, bool) {
	st, ok := s[id]
	return st, ok
}

// DocMeta describes the source document.
type DocMeta struct {
	Filename      string `json:"filename"`
	TitleCoreprop string `json:"title_coreprop,omitempty"`
	PageCount     *int   `json:"page_count,omitempty"`
	WordCount     int    `json:"word_count"`
	Created       string `json:"created,omitempty"`
	Modified      string `json:"modified,omitempty"`
}

// LayoutStats summarizes the block stream after analysis.
type LayoutStats struct {
	HeadingCounts  map[string]int `json:"heading_counts"`
	ParagraphCount int            `json:"paragraph_count"`
	TableCount     int            `json:"table_count"`
	ImageCount     int            `json:"image_count"`
	TableDensity   float64        `json:"table_density"`
	AvgHeadingGap  float64        `json:"avg_heading_gap"`
	ListBlockCount int            `json:"list_block_count"`
}

// AnalysisResult is the persisted output. Field names are consumed by
// downstream tooling and must stay stable.
type AnalysisResult struct {
	DocMeta     DocMeta     `json:"doc_meta"`
	LayoutStats LayoutStats `json:"layout_stats"`
	Blocks      []Block     `json:"blocks"`
	Sections    []*Section  `json:"sections"`
}

// Chunk is a sized text segment with its heading path, ready for indexing.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	SectionID  string   `json:"section_id,omitempty"`
	Breadcrumb []string `json:"breadcrumb"`
}
