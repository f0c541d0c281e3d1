package diff

import (
	"regexp"
	"strings"
)

// AddedLine is a single line introduced by a diff, attributed to a file and
// its 1-based position in the new version of that file.
type AddedLine struct {
	FilePath   string `json:"filePath"`
	LineNumber int    `json:"lineNumber"`
	Text       string `json:"text"`
}

// hunkHeader matches "@@ -a,b +c,d @@" and captures old/new start lines and
// lengths (a length defaults to 1 when omitted).
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse extracts the added lines from unified diff text. It never fails:
// text with no recognizable headers yields an empty result. Hunk lengths
// from the header decide where a hunk ends, so content lines that happen to
// start with "+++" or "---" are never mistaken for file headers. Removed and
// context lines are consumed only to keep the counters correct.
func Parse(diffText string) []AddedLine {
	var added []AddedLine

	currentFile := ""
	newLine := 0
	oldRemain, newRemain := 0, 0

	for _, line := range strings.Split(diffText, "\n") {
		// A file boundary ends any hunk, even one whose declared lengths
		// were not exhausted (truncated input).
		if strings.HasPrefix(line, "diff --git ") {
			currentFile = ""
			oldRemain, newRemain = 0, 0
			continue
		}

		if oldRemain > 0 || newRemain > 0 {
			switch {
			case strings.HasPrefix(line, "+"):
				added = append(added, AddedLine{
					FilePath:   currentFile,
					LineNumber: newLine,
					Text:       line[1:],
				})
				newLine++
				newRemain--

			case strings.HasPrefix(line, "-"):
				oldRemain--

			case strings.HasPrefix(line, `\`):
				// "\ No newline at end of file"

			default:
				newLine++
				newRemain--
				oldRemain--
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "+++ "):
			currentFile = newFilePath(line)

		case strings.HasPrefix(line, "--- "):
			// old-file header carries no new-file information

		case strings.HasPrefix(line, "@@"):
			m := hunkHeader.FindStringSubmatch(line)
			if m == nil || currentFile == "" {
				continue
			}
			newLine = atoiSafe(m[2])
			oldRemain = lengthOrOne(m[1])
			newRemain = lengthOrOne(m[3])
		}
	}

	return added
}

// lengthOrOne parses a hunk length capture; an omitted length means 1.
func lengthOrOne(s string) int {
	if s == "" {
		return 1
	}
	return atoiSafe(s)
}

// newFilePath extracts the path from a "+++ b/path" header. The /dev/null
// sentinel (deleted file) maps to "" so subsequent lines belong to no file.
func newFilePath(line string) string {
	path := strings.TrimPrefix(line, "+++ ")
	if i := strings.IndexByte(path, '\t'); i >= 0 {
		path = path[:i]
	}
	if path == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(path, "b/")
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// GroupByFile splits added lines into per-file groups, preserving diff order
// both across files and within each file.
func GroupByFile(lines []AddedLine) (map[string][]AddedLine, []string) {
	groups := make(map[string][]AddedLine)
	var order []string
	for _, l := range lines {
		if _, ok := groups[l.FilePath]; !ok {
			order = append(order, l.FilePath)
		}
		groups[l.FilePath] = append(groups[l.FilePath], l)
	}
	return groups, order
}
