package models

// ArchitectureDiff is the structural comparison of two code graphs. Plain
// set difference on file paths and technology names; a renamed file shows
// up as one removal plus one addition (no rename detection).
type ArchitectureDiff struct {
	AddedFiles          []string `json:"added_files"`
	RemovedFiles        []string `json:"removed_files"`
	AddedTechnologies   []string `json:"added_technologies"`
	RemovedTechnologies []string `json:"removed_technologies"`
	CurrentFileCount    int      `json:"current_file_count"`
	HistoricalFileCount int      `json:"historical_file_count"`
	CurrentTechCount    int      `json:"current_tech_count"`
	HistoricalTechCount int      `json:"historical_tech_count"`
}
