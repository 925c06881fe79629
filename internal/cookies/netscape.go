package cookies

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// Header is the first line of a Netscape cookie file. yt-dlp refuses files
// without it.
const Header = "# Netscape HTTP Cookie File"

// Record is one cookie line in Netscape format: seven tab-separated fields.
// Session cookies carry Expires == 0.
type Record struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	Expires           int64
	Name              string
	Value             string
}

// Parse reads a Netscape cookie file. Comment lines and blank lines are
// skipped; a malformed record line is an error.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("line %d: expected 7 fields, got %d", lineNo, len(fields))
		}
		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad expiry %q: %w", lineNo, fields[4], err)
		}
		records = append(records, Record{
			Domain:            fields[0],
			IncludeSubdomains: fields[1] == "TRUE",
			Path:              fields[2],
			Secure:            fields[3] == "TRUE",
			Expires:           expires,
			Name:              fields[5],
			Value:             fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cookie file: %w", err)
	}
	return records, nil
}

// Marshal renders records as a Netscape cookie file.
func Marshal(records []Record) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header + "\n")
	buf.WriteString("# This file was generated by tubepost. Edits may be overwritten.\n\n")
	for _, rec := range records {
		buf.WriteString(strings.Join([]string{
			rec.Domain,
			netscapeBool(rec.IncludeSubdomains),
			rec.Path,
			netscapeBool(rec.Secure),
			strconv.FormatInt(rec.Expires, 10),
			rec.Name,
			rec.Value,
		}, "\t"))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func netscapeBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// youtubeDomains are the cookie domain suffixes that matter for playback.
// Auth cookies live on google.com while playback happens on youtube.com.
var youtubeDomains = []string{"youtube.com", "google.com"}

// FromBrowser converts harvested browser cookies to records, keeping only
// the YouTube and Google domains.
func FromBrowser(browserCookies []*proto.NetworkCookie) []Record {
	var records []Record
	for _, c := range browserCookies {
		if !relevantDomain(c.Domain) {
			continue
		}
		var expires int64
		if c.Expires > 0 {
			expires = int64(c.Expires)
		}
		records = append(records, Record{
			Domain:            c.Domain,
			IncludeSubdomains: strings.HasPrefix(c.Domain, "."),
			Path:              c.Path,
			Secure:            c.Secure,
			Expires:           expires,
			Name:              c.Name,
			Value:             c.Value,
		})
	}
	return records
}

func relevantDomain(domain string) bool {
	d := strings.TrimPrefix(domain, ".")
	for _, suffix := range youtubeDomains {
		if d == suffix || strings.HasSuffix(d, "."+suffix) {
			return true
		}
	}
	return false
}
