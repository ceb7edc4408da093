package config

const (
	// MaxSessionTitleLength is the maximum length for chat session titles.
	// The first user message is truncated to this length when it becomes
	// the title.
	MaxSessionTitleLength = 50

	// ChatHistoryWindow is the number of trailing history messages included
	// when assembling completion context. Older messages are dropped, never
	// summarized.
	ChatHistoryWindow = 10

	// FileSummaryCharBudget is the per-file character budget for summary
	// text inside the system context block. Longer summaries are cut at the
	// budget with an explicit truncation marker.
	FileSummaryCharBudget = 500

	// DefaultDiffListLimit caps added/removed lists in an architecture diff
	// before they reach a narrative prompt. Overridable via Config, never
	// baked into the differ.
	DefaultDiffListLimit = 50

	// MaxQuestionLength bounds a single chat question. Questions should fit
	// comfortably inside one completion request alongside the context block.
	MaxQuestionLength = 4000

	// MaxFilesPerAnalysis bounds the file list accepted by one analysis.
	MaxFilesPerAnalysis = 20000
)
