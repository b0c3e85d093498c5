package models

import "time"

// SectionType is the closed set of creative disciplines a section can assess.
type SectionType string

const (
	SectionDesign         SectionType = "design"
	SectionVideo          SectionType = "video"
	SectionEditing        SectionType = "editing"
	SectionPhotography    SectionType = "photography"
	SectionMotionGraphics SectionType = "motion_graphics"
	SectionWriting        SectionType = "writing"
)

var validSectionTypes = map[SectionType]bool{
	SectionDesign:         true,
	SectionVideo:          true,
	SectionEditing:        true,
	SectionPhotography:    true,
	SectionMotionGraphics: true,
	SectionWriting:        true,
}

// IsValidSectionType reports whether t is a known section type.
func IsValidSectionType(t SectionType) bool {
	return validSectionTypes[t]
}

// Test is a creative-skills assessment composed of ordered sections.
type Test struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Role        string    `json:"role"`
	Discipline  string    `json:"discipline"`
	Category    string    `json:"category"`
	TotalTime   int       `json:"total_time"`
	CreatedBy   string    `json:"created_by"`
	AIGenerated bool      `json:"ai_generated"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TestSection struct {
	ID            string      `json:"id"`
	TestID        string      `json:"test_id"`
	Title         string      `json:"title"`
	Type          SectionType `json:"type"`
	TimeLimit     int         `json:"time_limit"`
	Instructions  string      `json:"instructions"`
	ReferenceLink string      `json:"reference_link"`
	DownloadLink  string      `json:"download_link"`
	OutputFormat  string      `json:"output_format"`
	OrderIndex    int         `json:"order_index"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
