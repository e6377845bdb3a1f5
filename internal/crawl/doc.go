// Package crawl orchestrates jam collection runs: it walks the itch.io jam
// listings, fetches each jam page, classifies it, and upserts the result
// through the store while reporting progress events.
package crawl
