package report

import (
	"strings"
	"testing"
)

func TestNewDefaultPage(t *testing.T) {
	page, err := NewDefaultPage()
	if err != nil {
		t.Fatalf("NewDefaultPage: %v", err)
	}
	for _, sel := range []struct {
		name   string
		hidden bool
	}{
		{IDLoading, IsHidden(page.Loading)},
		{IDError, IsHidden(page.Error)},
		{IDResults, IsHidden(page.Results)},
	} {
		if !sel.hidden {
			t.Errorf("%s should start hidden", sel.name)
		}
	}
}

func TestNewPageReportsMissingIDs(t *testing.T) {
	_, err := ParsePage(strings.NewReader(`<html><body><div id="results"></div><pre id="infoOutput"></pre></body></html>`))
	if err == nil {
		t.Fatal("expected error for incomplete page")
	}
	for _, id := range []string{IDTrigger, IDLoading, IDError, IDHead, IDInsight} {
		if !strings.Contains(err.Error(), id) {
			t.Errorf("error %q does not name %s", err, id)
		}
	}
	for _, id := range []string{IDResults, IDInfo} {
		if strings.Contains(err.Error(), id) {
			t.Errorf("error %q names present element %s", err, id)
		}
	}
}

func TestPageHTMLRoundTrip(t *testing.T) {
	page, err := NewDefaultPage()
	if err != nil {
		t.Fatalf("NewDefaultPage: %v", err)
	}
	page.Insight.SetText("a < b")

	out, err := page.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(out, "a &lt; b") {
		t.Errorf("insight text not escaped in output")
	}

	again, err := ParsePage(strings.NewReader(out))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got := again.Insight.Text(); got != "a < b" {
		t.Errorf("insight = %q", got)
	}
}
