package offense

// JSONOffense is the machine-readable shape of a single offense.
type JSONOffense struct {
	Check       string `json:"check"`
	Severity    string `json:"severity"`
	StartRow    int    `json:"start_row"`
	StartColumn int    `json:"start_column"`
	EndRow      int    `json:"end_row"`
	EndColumn   int    `json:"end_column"`
	Message     string `json:"message"`
}

// FileReport is the machine-readable shape of one file's offenses.
type FileReport struct {
	Path         string        `json:"path"`
	Offenses     []JSONOffense `json:"offenses"`
	ErrorCount   int           `json:"errorCount"`
	WarningCount int           `json:"warningCount"`
	InfoCount    int           `json:"infoCount"`
}

// FormatJSON converts grouped offenses to per-file reports in path order.
// Suggestions are counted with info so the three counts sum to the number of
// offenses in the file.
func FormatJSON(byFile ByFile) []FileReport {
	reports := make([]FileReport, 0, len(byFile))
	for _, path := range byFile.Paths() {
		offs := byFile[path]
		report := FileReport{Path: path, Offenses: make([]JSONOffense, 0, len(offs))}
		for _, o := range offs {
			report.Offenses = append(report.Offenses, JSONOffense{
				Check:       o.Check,
				Severity:    o.Severity.String(),
				StartRow:    o.Start.Line,
				StartColumn: o.Start.Character,
				EndRow:      o.End.Line,
				EndColumn:   o.End.Character,
				Message:     o.Message,
			})
			switch o.Severity {
			case SeverityError:
				report.ErrorCount++
			case SeverityWarning:
				report.WarningCount++
			default:
				report.InfoCount++
			}
		}
		reports = append(reports, report)
	}
	return reports
}
