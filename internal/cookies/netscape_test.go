package cookies

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	input := strings.Join([]string{
		Header,
		"# a comment",
		"",
		".youtube.com\tTRUE\t/\tTRUE\t1767225600\tVISITOR_INFO1_LIVE\tabc123",
		".youtube.com\tTRUE\t/\tFALSE\t0\tYSC\tsessval",
	}, "\n")

	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != "VISITOR_INFO1_LIVE" || records[0].Expires != 1767225600 {
		t.Errorf("first record mismatch: %+v", records[0])
	}
	if records[1].Expires != 0 {
		t.Errorf("session cookie expiry = %d, want 0", records[1].Expires)
	}
}

func TestParseRejectsMalformedLine(t *testing.T) {
	input := Header + "\n.youtube.com\tTRUE\t/\tTRUE\tnotanumber\tNAME\tvalue\n"
	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for bad expiry field")
	}

	input = Header + "\n.youtube.com\tTRUE\t/\n"
	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for short line")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want := []Record{
		{Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Secure: true, Expires: 1767225600, Name: "SID", Value: "top=secret"},
		{Domain: "www.google.com", IncludeSubdomains: false, Path: "/accounts", Secure: false, Expires: 0, Name: "YSC", Value: "v"},
	}

	data := Marshal(want)
	if !bytes.HasPrefix(data, []byte(Header)) {
		t.Fatalf("output missing Netscape header: %q", data[:40])
	}

	got, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse(Marshal(...)): %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFromBrowserFiltersDomains(t *testing.T) {
	browserCookies := []*proto.NetworkCookie{
		{Domain: ".youtube.com", Path: "/", Name: "VISITOR_INFO1_LIVE", Value: "x", Secure: true, Expires: 1767225600},
		{Domain: ".google.com", Path: "/", Name: "SAPISID", Value: "y", Secure: true, Expires: 1767225600},
		{Domain: "accounts.google.com", Path: "/", Name: "SID", Value: "z", Expires: -1},
		{Domain: "tracker.example.com", Path: "/", Name: "junk", Value: "drop-me"},
	}

	records := FromBrowser(browserCookies)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(records), records)
	}
	for _, rec := range records {
		if rec.Name == "junk" {
			t.Error("third-party domain was not filtered out")
		}
	}
	// Browser session cookies report Expires == -1; Netscape wants 0.
	if records[2].Expires != 0 {
		t.Errorf("session cookie expiry = %d, want 0", records[2].Expires)
	}
	if !records[0].IncludeSubdomains {
		t.Error("dot-prefixed domain should set the subdomain flag")
	}
}
