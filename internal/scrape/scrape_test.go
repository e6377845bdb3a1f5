package scrape

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jamscout/jamscout/internal/jam"
)

const jamPageHTML = `<!DOCTYPE html>
<html>
<head><title>Summer Jam</title></head>
<body>
<div class="jam_layout">
	<div class="jam_host_header">
		Hosted by
		<a href="https://alice.itch.io">Alice</a>
		and
		<a href="https://bob.itch.io">Bob</a>
		&middot;
		<a href="https://twitter.com/hashtag/summerjam">#summerjam</a>
	</div>
	<h1 class="jam_title_header">Summer Jam</h1>
	<div class="date_data">
		<span class="date_format">2026-06-01 17:00:00</span>
		<span class="date_format">2026-06-10 17:00:00</span>
		<span class="date_format">2026-06-17 17:00:00</span>
	</div>
	<div class="jam_content">
		<p>Make a <em>cozy</em> game about summer.</p>
	</div>
</div>
</body>
</html>`

func TestParseJamPage(t *testing.T) {
	page, err := ParseJamPage([]byte(jamPageHTML))
	require.NoError(t, err)
	require.Equal(t, "Summer Jam", page.Name)
	require.Equal(t, time.Date(2026, 6, 1, 17, 0, 0, 0, time.UTC), page.Start)
	require.Equal(t, 9, page.DurationDays)
	require.Equal(t, "#summerjam", page.Hashtag)
	require.Contains(t, page.Description, `<div class="jam_content">`)
	require.Contains(t, page.Description, "<em>cozy</em>")
	require.Equal(t, []jam.Owner{{ID: "alice", Name: "Alice"}, {ID: "bob", Name: "Bob"}}, page.Owners)
}

func TestParseJamPageAcceptsTSeparator(t *testing.T) {
	html := strings.ReplaceAll(jamPageHTML, " 17:00:00", "T17:00:00")
	page, err := ParseJamPage([]byte(html))
	require.NoError(t, err)
	require.Equal(t, 9, page.DurationDays)
}

func TestParseJamPageMalformed(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(string) string
		wantReason string
	}{
		{
			name: "missing title",
			mutate: func(s string) string {
				return strings.Replace(s, "jam_title_header", "jam_title_hidden", 1)
			},
			wantReason: "missing jam title",
		},
		{
			name: "missing description",
			mutate: func(s string) string {
				return strings.Replace(s, "jam_content", "jam_words", 1)
			},
			wantReason: "missing jam description",
		},
		{
			name: "missing host header",
			mutate: func(s string) string {
				return strings.Replace(s, "jam_host_header", "jam_host", 1)
			},
			wantReason: "missing jam host header",
		},
		{
			name: "no owner links",
			mutate: func(s string) string {
				return strings.ReplaceAll(s, ".itch.io", ".example.com")
			},
			wantReason: "no owner links",
		},
		{
			name: "one date marker",
			mutate: func(s string) string {
				s = strings.Replace(s, `<span class="date_format">2026-06-10 17:00:00</span>`, "", 1)
				return strings.Replace(s, `<span class="date_format">2026-06-17 17:00:00</span>`, "", 1)
			},
			wantReason: "expected 2 date markers, found 1",
		},
		{
			name: "unparsable start date",
			mutate: func(s string) string {
				return strings.Replace(s, "2026-06-01 17:00:00", "June 1st", 1)
			},
			wantReason: "bad start date",
		},
		{
			name: "end before start",
			mutate: func(s string) string {
				return strings.Replace(s, "2026-06-10 17:00:00", "2026-05-01 17:00:00", 1)
			},
			wantReason: "end date before start date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJamPage([]byte(tt.mutate(jamPageHTML)))
			var malformed *MalformedPageError
			require.ErrorAs(t, err, &malformed)
			require.Contains(t, malformed.Reason, tt.wantReason)
		})
	}
}

const listingPageHTML = `<!DOCTYPE html>
<html>
<body>
<div class="jams_grid">
	<div class="jam">
		<h3><a href="/jam/summer-jam">Summer Jam</a></h3>
	</div>
	<div class="jam">
		<h3><a href="https://itch.io/jam/winter-jam/">Winter Jam</a></h3>
	</div>
	<div class="jam">
		<h3><a href="/profile/not-a-jam">Odd link</a></h3>
	</div>
	<div class="jam">
		<h3>No link at all</h3>
	</div>
</div>
</body>
</html>`

func TestParseListingPage(t *testing.T) {
	ids, err := ParseListingPage([]byte(listingPageHTML))
	require.NoError(t, err)
	require.Equal(t, []string{"summer-jam", "winter-jam"}, ids)
}

func TestParseListingPageEmpty(t *testing.T) {
	ids, err := ParseListingPage([]byte(`<html><body><div class="jams_grid"></div></body></html>`))
	require.NoError(t, err)
	require.Empty(t, ids)
}
