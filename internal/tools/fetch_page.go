package tools

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net"
    "net/http"
    "net/netip"
    "net/url"
    "strings"
    "syscall"
    "time"
)

const maxFetchBytes = 2 << 20

// ErrNonPublicAddress is returned when a page resolves to a loopback, private,
// link-local or otherwise non-routable address.
var ErrNonPublicAddress = errors.New("refusing to fetch non-public address")

// FetchPageTool opens a URL named in a step and returns its readable text.
// Step text comes from a model, so unless AllowPrivate is set only public
// addresses are dialed. The check runs on every connection, redirects
// included.
type FetchPageTool struct {
    HTTP         *http.Client
    MaxLinks     int
    MaxChars     int
    AllowPrivate bool
}

type PageResult struct {
    URL   string `json:"url"`
    Title string `json:"title,omitempty"`
    Text  string `json:"text"`
    Links []Link `json:"links,omitempty"`
}

func (t *FetchPageTool) Name() string { return "fetch_page" }

func (t *FetchPageTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
    raw, _ := inputs["url"].(string)
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return nil, "", fmt.Errorf("missing url")
    }
    u, err := url.Parse(raw)
    if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
        return nil, "", fmt.Errorf("invalid url: %s", raw)
    }
    body, status, truncated, err := fetch(ctx, t.client(), u.String())
    if err != nil { return nil, "", err }
    logs := fmt.Sprintf("status=%d", status)
    if truncated { logs += " truncated=true" }
    if status < 200 || status >= 300 {
        return nil, logs, fmt.Errorf("GET %s: status %d", raw, status)
    }
    p, err := parsePage(body, u, limit(t.MaxLinks, 10))
    if err != nil { return nil, logs, err }
    return &PageResult{URL: u.String(), Title: p.Title, Text: truncate(p.Text, limit(t.MaxChars, 4000)), Links: p.Links}, logs, nil
}

func (t *FetchPageTool) client() *http.Client {
    c := &http.Client{Timeout: 10 * time.Second}
    if t.HTTP != nil {
        cp := *t.HTTP
        c = &cp
    }
    if !t.AllowPrivate { c.Transport = publicOnlyTransport }
    return c
}

var publicOnlyTransport = func() *http.Transport {
    tr := http.DefaultTransport.(*http.Transport).Clone()
    // a proxy would dial the target on our behalf, past the check
    tr.Proxy = nil
    d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second, Control: refuseNonPublic}
    tr.DialContext = d.DialContext
    return tr
}()

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// refuseNonPublic runs after DNS resolution, on the address actually dialed.
func refuseNonPublic(network, address string, _ syscall.RawConn) error {
    host, _, err := net.SplitHostPort(address)
    if err != nil { return err }
    ip, err := netip.ParseAddr(host)
    if err != nil { return err }
    ip = ip.Unmap()
    if !isPublic(ip) { return fmt.Errorf("%w: %s", ErrNonPublicAddress, ip) }
    return nil
}

func isPublic(ip netip.Addr) bool {
    switch {
    case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
        ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
        ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
        return false
    }
    return !sharedAddressSpace.Contains(ip)
}

func fetch(ctx context.Context, client *http.Client, url string) (string, int, bool, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return "", 0, false, err
    }
    req.Header.Set("User-Agent", "concierge-orchestrator/1.0")
    resp, err := client.Do(req)
    if err != nil {
        return "", 0, false, err
    }
    defer resp.Body.Close()
    // limit body to avoid huge transfers
    lr := io.LimitedReader{R: resp.Body, N: maxFetchBytes}
    b, _ := io.ReadAll(&lr)
    return string(b), resp.StatusCode, lr.N == 0, nil
}

func limit(v, def int) int {
    if v <= 0 { return def }
    return v
}

func truncate(s string, max int) string {
    if r := []rune(s); len(r) > max { return string(r[:max]) }
    return s
}
