package tools

import (
    "net/url"
    "strings"

    "golang.org/x/net/html"
)

// Link is an anchor found in a page.
type Link struct {
    Href string `json:"href"`
    Text string `json:"text"`
}

// page is the readable content of an HTML document.
type page struct {
    Title string
    Text  string
    Links []Link
}

// parsePage walks the document once, collecting visible text, the title and
// up to maxLinks anchors resolved against base.
func parsePage(src string, base *url.URL, maxLinks int) (*page, error) {
    root, err := html.Parse(strings.NewReader(src))
    if err != nil { return nil, err }
    p := &page{}
    var b strings.Builder
    var walk func(n *html.Node, hidden bool)
    walk = func(n *html.Node, hidden bool) {
        if n.Type == html.ElementNode {
            switch strings.ToLower(n.Data) {
            case "script", "style", "noscript", "svg", "template":
                hidden = true
            case "title":
                if p.Title == "" { p.Title = strings.Join(strings.Fields(nodeText(n)), " ") }
                hidden = true
            case "a":
                if len(p.Links) < maxLinks { p.addLink(n, base) }
            case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4":
                b.WriteString("\n")
            }
        }
        if !hidden && n.Type == html.TextNode {
            b.WriteString(n.Data)
        }
        for c := n.FirstChild; c != nil; c = c.NextSibling {
            walk(c, hidden)
        }
    }
    walk(root, false)
    p.Text = compactWhitespace(b.String())
    return p, nil
}

func (p *page) addLink(n *html.Node, base *url.URL) {
    var href string
    for _, a := range n.Attr {
        if strings.EqualFold(a.Key, "href") { href = strings.TrimSpace(a.Val); break }
    }
    if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") { return }
    if base != nil {
        if u, err := url.Parse(href); err == nil { href = base.ResolveReference(u).String() }
    }
    p.Links = append(p.Links, Link{Href: href, Text: strings.Join(strings.Fields(nodeText(n)), " ")})
}

func nodeText(n *html.Node) string {
    var b strings.Builder
    var rec func(*html.Node)
    rec = func(x *html.Node) {
        if x.Type == html.TextNode { b.WriteString(x.Data) }
        for c := x.FirstChild; c != nil; c = c.NextSibling { rec(c) }
    }
    rec(n)
    return b.String()
}

// compactWhitespace collapses runs of blanks per line and drops empty lines.
func compactWhitespace(s string) string {
    var out []string
    for _, ln := range strings.Split(s, "\n") {
        if f := strings.Fields(ln); len(f) > 0 { out = append(out, strings.Join(f, " ")) }
    }
    return strings.Join(out, "\n")
}
