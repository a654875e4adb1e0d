// Package scrape defines the extraction boundary of the pipeline. How HTML
// or PDF minutes are fetched and parsed is an external concern; the staging
// lifecycle only consumes the raw name rows a Scraper yields.
package scrape

import "context"

// Kind selects which source layout the scraper should expect.
type Kind string

const (
	KindMinutes     Kind = "minutes"      // conference minutes (speakers)
	KindMemberList  Kind = "member_list"  // conference member rosters
	KindGroupRoster Kind = "group_roster" // parliamentary group rosters
	KindProposal    Kind = "proposal"     // proposal pages (judges)
)

// RawName is one name-bearing row found in a source document.
type RawName struct {
	Name  string
	Role  string
	Party string
}

// Scraper turns a source URL into raw name rows.
type Scraper interface {
	Scrape(ctx context.Context, url string, kind Kind) ([]RawName, error)
}

// Error marks a scraping failure (fetch error, unparseable document). The
// lifecycle propagates it for the current subject and continues with others.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return "scrape: " + e.URL + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
