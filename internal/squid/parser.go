// Package squid integrates with a Squid proxy: it parses and classifies
// access-log lines, imports them into the events store, and renders the
// active rule set into squid.conf ACL syntax.
package squid

import (
	"errors"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedLine marks lines that do not follow the native access-log
// layout. Such lines are skipped by the importer, never fatal.
var ErrMalformedLine = errors.New("malformed access-log line")

// ParsedLine is one access-log record split into its ten native fields.
// The raw URL is additionally decomposed into URLParts.
type ParsedLine struct {
	Timestamp  time.Time
	ElapsedMs  int
	ClientIP   string
	StatusTag  string
	StatusCode *int
	Bytes      int64
	Method     string
	RawURL     string
	User       string
	Hierarchy  string
	MIME       string
	URL        URLParts
}

// URLParts is the scheme/host/port/path/query decomposition of a request
// target, with the defaults the events store expects.
type URLParts struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  string
}

// ParseLine splits one native-format access-log line: unix timestamp with
// fraction, elapsed ms, client address, status token, bytes, method, URL,
// user, hierarchy, mime type. Trailing extra fields are tolerated, matching
// how Squid appends annotations to the native format.
func ParseLine(line string) (*ParsedLine, error) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return nil, ErrMalformedLine
	}

	ts, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || ts < 0 {
		return nil, ErrMalformedLine
	}
	sec, frac := math.Modf(ts)

	elapsed, err := strconv.Atoi(fields[1])
	if err != nil || elapsed < 0 {
		return nil, ErrMalformedLine
	}

	bytes, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil || bytes < 0 {
		return nil, ErrMalformedLine
	}

	tag, code := splitStatusToken(fields[3])

	return &ParsedLine{
		Timestamp:  time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(),
		ElapsedMs:  elapsed,
		ClientIP:   fields[2],
		StatusTag:  tag,
		StatusCode: code,
		Bytes:      bytes,
		Method:     fields[5],
		RawURL:     fields[6],
		User:       fields[7],
		Hierarchy:  fields[8],
		MIME:       fields[9],
		URL:        SplitURL(fields[6]),
	}, nil
}

// splitStatusToken breaks TAG/code into its tag and optional numeric code.
// A non-numeric right side leaves the code unset rather than failing.
func splitStatusToken(token string) (string, *int) {
	tag, rest, found := strings.Cut(token, "/")
	if !found {
		return token, nil
	}
	if code, err := strconv.Atoi(rest); err == nil {
		return tag, &code
	}
	return tag, nil
}

// SplitURL decomposes a request target. Absolute URLs follow net/url
// semantics; CONNECT-style host:port tokens and bare domains fall back to
// treating the token as the host. Defaults: scheme http, port 443 for https
// and 80 otherwise, path "/", empty query.
func SplitURL(raw string) URLParts {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		parts := URLParts{
			Scheme: u.Scheme,
			Host:   u.Hostname(),
			Path:   u.Path,
			Query:  u.RawQuery,
		}
		if parts.Scheme == "" {
			parts.Scheme = "http"
		}
		if p := u.Port(); p != "" {
			parts.Port, _ = strconv.Atoi(p)
		} else {
			parts.Port = defaultPort(parts.Scheme)
		}
		if parts.Path == "" {
			parts.Path = "/"
		}
		return parts
	}

	parts := URLParts{Scheme: "http", Host: raw, Path: "/"}
	if host, portStr, err := net.SplitHostPort(raw); err == nil {
		if port, convErr := strconv.Atoi(portStr); convErr == nil {
			parts.Host = host
			parts.Port = port
			return parts
		}
	}
	parts.Port = defaultPort(parts.Scheme)
	return parts
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}
