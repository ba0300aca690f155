package types

// ClipMetadata represents probed metadata for a source video clip
type ClipMetadata struct {
	Key      string  `json:"key"`
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps,omitempty"`
	HasAudio bool    `json:"has_audio"`
}

// PlacementMetadata describes a placed clip as reported by the plan command
type PlacementMetadata struct {
	Index     int     `json:"index"`
	Key       string  `json:"key"`
	Path      string  `json:"path"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Trim      float64 `json:"trim"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Size      []int   `json:"size"`
	IsTrimmed bool    `json:"is_trimmed,omitempty"`
}
