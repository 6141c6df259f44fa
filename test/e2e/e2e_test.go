package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

// Runs against a live server: DECOM_URL (default http://localhost:9871)
// with at least one committee configured.
var baseURL = envOr("DECOM_URL", "http://localhost:9871")

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// browser wraps a chromedp context with test helpers.
type browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	t      *testing.T
}

func newBrowser(t *testing.T, timeout time.Duration) *browser {
	t.Helper()
	if res, err := http.Get(baseURL + "/healthz"); err != nil {
		t.Skipf("server not reachable at %s: %v", baseURL, err)
	} else {
		res.Body.Close()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	ctx, timeCancel := context.WithTimeout(ctx, timeout)

	b := &browser{ctx: ctx, t: t}
	b.cancel = func() { timeCancel(); ctxCancel(); allocCancel() }
	return b
}

func (b *browser) close() { b.cancel() }

func (b *browser) run(actions ...chromedp.Action) {
	b.t.Helper()
	if err := chromedp.Run(b.ctx, actions...); err != nil {
		b.t.Fatalf("chromedp: %v", err)
	}
}

func (b *browser) eval(js string) string {
	b.t.Helper()
	var r any
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(js, &r)); err != nil {
		b.t.Fatalf("eval: %v", err)
	}
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%v", r)
}

func (b *browser) open() {
	b.t.Helper()
	b.run(chromedp.Navigate(baseURL), chromedp.WaitVisible(`#request-form`), chromedp.Sleep(time.Second))
}

func (b *browser) fill(field, value string) {
	b.t.Helper()
	b.eval(fmt.Sprintf(`(function(){
		var el = document.querySelector('#request-form [name="%s"]');
		el.value = %q;
		el.dispatchEvent(new Event('input', {bubbles: true}));
	})()`, field, value))
}

func (b *browser) submit() string {
	b.t.Helper()
	b.run(chromedp.Click(`#request-form button[type="submit"]`), chromedp.Sleep(2*time.Second))
	return b.eval(`document.getElementById('result').innerText`)
}

func (b *browser) fieldError(field string) string {
	return b.eval(fmt.Sprintf(`document.querySelector('.err[data-for="%s"]').innerText`, field))
}

func (b *browser) requireCommittee() {
	b.t.Helper()
	if b.eval(`String(document.getElementById('committee').options.length)`) == "0" {
		b.t.Skip("no committees configured")
	}
}

func (b *browser) fillValid(eventDate string) {
	b.fill("requester_name", "Prueba E2E")
	b.fill("event_name", "Evento de prueba")
	b.fill("event_date", eventDate)
	b.fill("contact_phone", "8112345678")
}

// --- Tests ---

func TestFormRendersFromSchema(t *testing.T) {
	b := newBrowser(t, 30*time.Second)
	defer b.close()
	b.open()

	if b.eval(`String(document.querySelector('[name="event_name"]').required)`) != "true" {
		t.Fatal("schema rules were not applied to the form")
	}
	if b.eval(`String(document.querySelector('[name="event_name"]').maxLength)`) != "150" {
		t.Fatal("max length not taken from schema")
	}
	t.Log("OK: form rules come from /api/schemas")
}

func TestPastDateRejected(t *testing.T) {
	b := newBrowser(t, 30*time.Second)
	defer b.close()
	b.open()
	b.requireCommittee()

	b.fillValid(time.Now().AddDate(0, 0, -3).Format("2006-01-02"))
	result := b.submit()
	if !strings.Contains(result, "datos inválidos") {
		t.Fatalf("expected validation error, got %q", result)
	}
	if !strings.Contains(b.fieldError("event_date"), "fecha pasada") {
		t.Fatal("event_date error not shown")
	}
	t.Log("OK: past event date rejected")
}

func TestSubmitRequest(t *testing.T) {
	b := newBrowser(t, 30*time.Second)
	defer b.close()
	b.open()
	b.requireCommittee()

	b.fillValid(time.Now().AddDate(0, 0, 20).Format("2006-01-02"))
	result := b.submit()
	if !strings.Contains(result, "registrada") {
		t.Fatalf("submission failed: %q", result)
	}
	t.Log("OK: request submitted:", result)
}

func TestCalendarMonthSwitch(t *testing.T) {
	b := newBrowser(t, 30*time.Second)
	defer b.close()
	b.open()

	b.eval(`(function(){
		var m = document.getElementById('month');
		m.value = '2030-02';
		m.dispatchEvent(new Event('change'));
	})()`)
	b.run(chromedp.Sleep(time.Second))
	// February 2030 starts on a Friday: 5 leading blanks + 28 days.
	if n := b.eval(`String(document.querySelectorAll('#calendar > div').length)`); n != "33" {
		t.Fatalf("unexpected calendar cells: %s", n)
	}
	t.Log("OK: calendar renders the selected month")
}
