package templates

import (
	"html/template"

	"github.com/foliate/foliate/internal/config"
	"github.com/foliate/foliate/internal/page"
)

// NavItem is one entry in the site header navigation.
type NavItem struct {
	URL     string
	Label   string
	Logo    string
	LogoAlt string
}

// FooterData feeds the page footer.
type FooterData struct {
	CopyrightYear int
	AuthorName    string
	AuthorLink    string
}

// SiteContext carries the config-derived values every template sees.
type SiteContext struct {
	SiteName       string
	SiteURL        string
	DefaultOGImage string
	HeaderNav      []NavItem
	Footer         FooterData
	HomePage       string
	FeedEnabled    bool
	FeedTitle      string
}

// PageData is the context for rendering page.html.
type PageData struct {
	SiteContext
	Title       string
	Content     template.HTML
	Page        *page.Page
	RecentPages []*page.Page
	BaseURL     string
}

// RedirectData is the context for rendering index.html.
type RedirectData struct {
	RedirectURL   string
	RedirectTitle string
}

// SiteContextFrom maps cfg into template values.
func SiteContextFrom(cfg *config.Config) SiteContext {
	nav := make([]NavItem, 0, len(cfg.Nav.Items))
	for _, item := range cfg.Nav.Items {
		nav = append(nav, NavItem{
			URL:     item.URL,
			Label:   item.Label,
			Logo:    item.Logo,
			LogoAlt: item.LogoAlt,
		})
	}
	author := cfg.Footer.AuthorName
	if author == "" {
		author = cfg.Site.Author
	}
	return SiteContext{
		SiteName:       cfg.Site.Name,
		SiteURL:        cfg.Site.URL,
		DefaultOGImage: cfg.Site.DefaultOGImage,
		HeaderNav:      nav,
		Footer: FooterData{
			CopyrightYear: cfg.Footer.CopyrightYear,
			AuthorName:    author,
			AuthorLink:    cfg.Footer.AuthorLink,
		},
		HomePage:    cfg.Build.HomePage,
		FeedEnabled: cfg.Feed.Enabled,
		FeedTitle:   cfg.FeedTitle(),
	}
}
