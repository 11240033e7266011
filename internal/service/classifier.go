package service

import (
	"bytes"
	"net/url"
	"strings"

	"link_auditor/internal/domain/models"

	"golang.org/x/net/html"
)

// DefaultFailurePhrases are matched against the lowercased page text of 200
// responses. This is a heuristic: "404" or "sorry" in an ordinary article will
// be flagged, and error pages worded differently will not.
var DefaultFailurePhrases = []string{
	"page not found",
	"404",
	"doesn't exist",
	"not available",
	"sorry",
}

// ClassifierConfig toggles the soft-failure rules independently.
type ClassifierConfig struct {
	HomepageBounce bool
	BodyPhrases    bool
	Phrases        []string
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		HomepageBounce: true,
		BodyPhrases:    true,
		Phrases:        DefaultFailurePhrases,
	}
}

// Classification is the verdict on one terminal response.
type Classification struct {
	SoftFailureSuspected bool
	ErrorFlag            bool
	Note                 string
}

type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	if len(cfg.Phrases) == 0 {
		cfg.Phrases = DefaultFailurePhrases
	}
	phrases := make([]string, 0, len(cfg.Phrases))
	for _, p := range cfg.Phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			phrases = append(phrases, p)
		}
	}
	cfg.Phrases = phrases
	return &Classifier{cfg: cfg}
}

// Classify decides how a terminal response is reported. body may be nil.
// Redirects are always followed, so a terminal 3xx means the chain never
// resolved and is flagged.
func (c *Classifier) Classify(original, final string, status int, body []byte, contentType string) Classification {
	switch {
	case status >= 300 && status < 400:
		return Classification{ErrorFlag: true, Note: models.RedirectNote(status)}
	case status == 200:
		if c.softFailure(original, final, body, contentType) {
			return Classification{SoftFailureSuspected: true, ErrorFlag: true, Note: models.NoteSoftFailure}
		}
		return Classification{Note: models.NoteOK}
	case status >= 200 && status < 300:
		return Classification{Note: models.NoteOK}
	default:
		return Classification{ErrorFlag: true, Note: models.ErrorStatusNote(status)}
	}
}

func (c *Classifier) softFailure(original, final string, body []byte, contentType string) bool {
	if c.cfg.HomepageBounce && homepageBounce(original, final) {
		return true
	}
	if c.cfg.BodyPhrases && len(body) > 0 {
		text := pageText(body, contentType)
		for _, p := range c.cfg.Phrases {
			if strings.Contains(text, p) {
				return true
			}
		}
	}
	return false
}

// homepageBounce reports a same-domain redirect from a specific path to the
// site root.
func homepageBounce(original, final string) bool {
	ou, err := url.Parse(original)
	if err != nil {
		return false
	}
	fu, err := url.Parse(final)
	if err != nil {
		return false
	}
	if domainKey(ou) != domainKey(fu) {
		return false
	}
	op := strings.TrimRight(ou.Path, "/")
	fp := strings.TrimRight(fu.Path, "/")
	return op != fp && fp == ""
}

func domainKey(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// pageText lowercases the visible text of an HTML body (title included,
// script and style skipped). Other content types are used as-is.
func pageText(body []byte, contentType string) string {
	if !isHTML(body, contentType) {
		return normalizeText(string(body))
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return normalizeText(string(body))
	}

	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			traverse(ch)
		}
	}
	traverse(doc)
	return normalizeText(sb.String())
}

func isHTML(body []byte, contentType string) bool {
	if contentType != "" {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// normalizeText lowercases, folds curly apostrophes and collapses whitespace.
func normalizeText(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "’", "'")
	return strings.Join(strings.Fields(s), " ")
}
