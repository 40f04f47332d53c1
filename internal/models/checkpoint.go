package models

// CheckpointRow is one sample row from the server-persisted checkpoint
// file. The backend sends whole CSV records; these are the columns the
// dashboard renders.
type CheckpointRow struct {
	Name     string `json:"name"`
	Rating   string `json:"rating"`
	Reviews  string `json:"reviews"`
	Industry string `json:"industry"`
	Status   string `json:"status"`
}

// CheckpointSummary is the body returned by /api/get_checkpoint.
// TotalRows counts every persisted row; Data holds at most the first
// 100 of them.
type CheckpointSummary struct {
	Success   bool            `json:"success"`
	TotalRows int             `json:"total_rows"`
	Data      []CheckpointRow `json:"data"`
	File      string          `json:"file,omitempty"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Empty reports whether there is no checkpoint data to show.
func (s *CheckpointSummary) Empty() bool {
	return s.TotalRows == 0
}

// DebugInfo is the body returned by /api/debug_tasks.
type DebugInfo struct {
	ActiveTasks     map[string]DebugTask `json:"active_tasks"`
	TempFiles       []string             `json:"temp_files"`
	CheckpointFiles []DebugFile          `json:"checkpoint_files"`
}

// DebugTask describes one in-memory task on the backend.
type DebugTask struct {
	Status      string `json:"status"`
	ResultsFile string `json:"results_file"`
	FileExists  bool   `json:"file_exists"`
}

// DebugFile describes one checkpoint candidate file on the backend.
type DebugFile struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Exists bool   `json:"exists"`
}
