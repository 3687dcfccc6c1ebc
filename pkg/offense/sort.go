package offense

import "sort"

// Sort groups offenses by file and orders each file's offenses from most to
// least severe. Offenses of equal severity keep their input order.
func Sort(offenses []Offense) ByFile {
	byFile := make(ByFile)
	for _, o := range offenses {
		byFile[o.AbsolutePath] = append(byFile[o.AbsolutePath], o)
	}
	for _, offs := range byFile {
		sort.SliceStable(offs, func(i, j int) bool {
			return offs[i].Severity > offs[j].Severity
		})
	}
	return byFile
}
