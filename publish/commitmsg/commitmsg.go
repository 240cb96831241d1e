package commitmsg

import (
	"log"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	begin = "--- published paths begin ---"
	end   = "--- published paths end ---"
)

// Subject expands {VAR} placeholders in format using
// vars (e.g. {BRANCH}, {SCOPE}, {DATE}). Unknown
// variables are preserved as-is so a literal brace in a
// message stays untouched.
func Subject(
	format string,
	vars map[string]interface{},
) string {
	return fasttemplate.ExecuteStringStd(
		format, "{", "}", vars,
	)
}

// Compose builds the full commit message: the subject
// followed by the list of published paths between
// begin/end markers.
func Compose(subject string, paths []string) string {
	var sb strings.Builder

	sb.WriteString(subject)
	sb.WriteByte('\n')
	sb.WriteString(begin)
	sb.WriteByte('\n')

	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}

	sb.WriteString(end)
	sb.WriteByte('\n')

	return sb.String()
}

// ExtractPaths extracts the list of published paths
// from a commit message delimited by begin/end markers.
func ExtractPaths(msg string) []string {
	var paths []string

	betweenMarkers := false

	for _, line := range strings.Split(msg, "\n") {
		switch line {
		case begin:
			betweenMarkers = true
		case end:
			betweenMarkers = false
		default:
			if betweenMarkers {
				paths = append(paths, line)
			}
		}
	}

	if betweenMarkers {
		log.Print("unable to find end marker in commit message")

		return nil
	}

	return paths
}
