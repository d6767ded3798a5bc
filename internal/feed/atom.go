package feed

import (
	"encoding/xml"
	"fmt"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/version"
)

type atomFeed struct {
	XMLName   xml.Name       `xml:"feed"`
	Xmlns     string         `xml:"xmlns,attr"`
	Title     string         `xml:"title"`
	Subtitle  string         `xml:"subtitle,omitempty"`
	ID        string         `xml:"id"`
	Updated   string         `xml:"updated"`
	Links     []atomLink     `xml:"link"`
	Generator *atomGenerator `xml:"generator,omitempty"`
	Entries   []atomEntry    `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomGenerator struct {
	Name    string `xml:",chardata"`
	Version string `xml:"version,attr,omitempty"`
}

type atomEntry struct {
	Title     string    `xml:"title"`
	ID        string    `xml:"id"`
	Link      *atomLink `xml:"link,omitempty"`
	Published string    `xml:"published"`
	Updated   string    `xml:"updated"`
	Content   *atomText `xml:"content,omitempty"`
	Summary   *atomText `xml:"summary,omitempty"`
}

type atomText struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

func newAtomFeed(cfg *config.Config, siteURL, updated string, entries []atomEntry) *atomFeed {
	wikiURL := siteURL + cfg.WikiBaseURL()
	return &atomFeed{
		Xmlns:    "http://www.w3.org/2005/Atom",
		Title:    cfg.FeedTitle(),
		Subtitle: cfg.FeedDescription(),
		ID:       wikiURL,
		Updated:  updated,
		Links: []atomLink{
			{Href: wikiURL + FileName, Rel: "self", Type: "application/atom+xml"},
			{Href: wikiURL, Rel: "alternate", Type: "text/html"},
		},
		Generator: &atomGenerator{Name: "foliate", Version: version.Version},
		Entries:   entries,
	}
}

func (f *atomFeed) encode() ([]byte, error) {
	data, err := xml.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}
