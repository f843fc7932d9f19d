package types

// InputDigest records which bytes a run was computed from
type InputDigest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
}
