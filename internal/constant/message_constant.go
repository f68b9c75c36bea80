package constant

// Progress messages pushed to sync clients while a visualization runs.
const (
	ProgressExtracting      = "Extracting concepts from text..."
	ProgressVisualizing     = "Generating %d visualizations..."
	ProgressVisualizedCount = "Completed %d of %d visualizations"
	ProgressFormatting      = "Formatting text for better readability..."
	ProgressDone            = "Visualized %d of %d concepts"
)
