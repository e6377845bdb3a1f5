package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/k3a/html2text"

	"github.com/jamscout/jamscout/internal/jam"
)

// OutputFormat selects how query results are rendered.
type OutputFormat string

const (
	// FormatText renders an aligned, human-readable table.
	FormatText OutputFormat = "text"
	// FormatJSON renders an indented JSON array.
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteJams renders a list of jams to w in the requested format. In text
// mode the caption labels the selection, e.g. "Current tabletop jams".
func WriteJams(w io.Writer, caption string, jams []*jam.Jam, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJamsJSON(w, jams)
	case FormatText:
		return writeJamsText(w, caption, jams)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJamsText(w io.Writer, caption string, jams []*jam.Jam) error {
	if len(jams) == 0 {
		_, err := fmt.Fprintln(w, "No jams found.")
		return err
	}
	if _, err := fmt.Fprintf(w, "%s (%d):\n\n", caption, len(jams)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tTYPE\tSTART\tOWNERS")
	for _, j := range jams {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			j.Name, j.ID, j.Category, j.Start.Format("2006-01-02"), ownerNames(j.Owners))
	}
	return tw.Flush()
}

type ownerJSON struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type jamJSON struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	URL          string      `json:"url"`
	Category     string      `json:"category"`
	Hashtag      string      `json:"hashtag,omitempty"`
	Start        time.Time   `json:"start"`
	DurationDays int         `json:"duration_days"`
	Owners       []ownerJSON `json:"owners"`
}

func writeJamsJSON(w io.Writer, jams []*jam.Jam) error {
	out := make([]jamJSON, 0, len(jams))
	for _, j := range jams {
		rec := jamJSON{
			ID:           j.ID,
			Name:         j.Name,
			URL:          j.URL(),
			Category:     j.Category.String(),
			Hashtag:      j.Hashtag,
			Start:        j.Start,
			DurationDays: j.DurationDays,
		}
		for _, o := range j.Owners {
			rec.Owners = append(rec.Owners, ownerJSON{ID: o.ID, Name: o.Name})
		}
		out = append(out, rec)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteJamDetail renders one jam in full, including its description
// converted from page HTML to plain text.
func WriteJamDetail(w io.Writer, j *jam.Jam) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Jam: %s (%s)\n", j.Name, j.ID)
	fmt.Fprintf(&b, "Owner(s): %s\n", ownerNames(j.Owners))
	fmt.Fprintf(&b, "URL: %s\n", j.URL())
	fmt.Fprintf(&b, "Type: %s\n", j.Category)
	if j.Hashtag != "" {
		fmt.Fprintf(&b, "Hashtag: %s\n", j.Hashtag)
	}
	fmt.Fprintf(&b, "Start: %s\n", j.Start.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Duration: %d days\n", j.DurationDays)
	if desc := renderDescription(j.Description); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func ownerNames(owners []jam.Owner) string {
	names := make([]string, 0, len(owners))
	for _, o := range owners {
		if o.Name != "" {
			names = append(names, o.Name)
			continue
		}
		names = append(names, o.ID)
	}
	return strings.Join(names, ", ")
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// renderDescription converts description HTML into plain terminal text.
// html2text emits \r\n line breaks; those are normalized and runs of
// blank lines collapsed.
func renderDescription(htmlSrc string) string {
	text := html2text.HTML2Text(htmlSrc)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
