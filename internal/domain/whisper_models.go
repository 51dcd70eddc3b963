package domain

// WhisperModelOption describes one whisper.cpp model preset offered by
// the UI model picker.
type WhisperModelOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
	SizeLabel   string `json:"size_label,omitempty"`
	Description string `json:"description,omitempty"`
	Downloaded  bool   `json:"downloaded"`
	LocalPath   string `json:"local_path,omitempty"`
}
