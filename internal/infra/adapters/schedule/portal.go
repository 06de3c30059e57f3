package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/config"
	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/domain/ports/repository"
	"telegram-itmo-schedule/internal/infra/metrics"
)

var _ adapter.ScheduleSource = (*PortalSource)(nil)

// errPortalSession marks a fetch rejected because the portal no longer
// accepts our cookies. The caller logs in again and retries once.
var errPortalSession = errors.New("portal session rejected")

const (
	portalTimeout  = 15 * time.Second
	maxPortalBody  = 4 << 20
	portalAttempts = 3

	// The portal serves a login wall to anything that does not look like a
	// browser, so requests carry a desktop Chrome identity.
	browserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// PortalSource fetches the personal timetable from my.itmo.ru. It signs in
// through the ITMO ID login form, keeps the session cookies in a jar, and
// optionally persists them through a SessionStore so a restart does not
// trigger a fresh login.
type PortalSource struct {
	base     *url.URL
	username string
	password string
	client   *http.Client
	jar      http.CookieJar
	sessions repository.SessionStore
	log      *zerolog.Logger

	mu     sync.Mutex
	authed bool
}

// NewPortalSource builds the portal client. sessions may be nil, in which
// case cookies live only as long as the process.
func NewPortalSource(cfg *config.PortalConfig, sessions repository.SessionStore, logger *zerolog.Logger) (*PortalSource, error) {
	if cfg.Login == "" || cfg.Password == "" {
		return nil, fmt.Errorf("portal source needs schedule.portal.login and schedule.portal.password")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid portal base url %q", cfg.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	sub := logger.With().Str("component", "portal").Logger()
	return &PortalSource{
		base:     base,
		username: cfg.Login,
		password: cfg.Password,
		client:   &http.Client{Jar: jar, Timeout: portalTimeout},
		jar:      jar,
		sessions: sessions,
		log:      &sub,
	}, nil
}

func (p *PortalSource) Name() string { return "portal" }

func (p *PortalSource) Day(ctx context.Context, date time.Time) ([]model.Class, error) {
	if err := p.ensureAuth(ctx); err != nil {
		metrics.IncScheduleFetch("portal", "error")
		return nil, err
	}
	classes, err := p.fetchDayRetrying(ctx, date)
	if errors.Is(err, errPortalSession) {
		// Cookies expired server-side. One fresh login, one more try.
		if lerr := p.relogin(ctx); lerr != nil {
			metrics.IncScheduleFetch("portal", "error")
			return nil, lerr
		}
		classes, err = p.fetchDayRetrying(ctx, date)
	}
	if err != nil {
		metrics.IncScheduleFetch("portal", "error")
		return nil, err
	}
	metrics.IncScheduleFetch("portal", "ok")
	return classes, nil
}

// Week fetches the seven days starting at monday one by one. Days that fail
// are logged and left out; only a week with no reachable day at all is an
// error.
func (p *PortalSource) Week(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
	week := make(map[string][]model.Class, 7)
	var lastErr error
	fetched := 0
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		classes, err := p.Day(ctx, day)
		if err != nil {
			lastErr = err
			p.log.Warn().Err(err).Str("date", day.Format("2006-01-02")).Msg("week fetch: day skipped")
			continue
		}
		fetched++
		if len(classes) > 0 {
			week[model.DayKey(day)] = classes
		}
	}
	if fetched == 0 && lastErr != nil {
		return nil, lastErr
	}
	return week, nil
}

func (p *PortalSource) fetchDayRetrying(ctx context.Context, date time.Time) ([]model.Class, error) {
	var classes []model.Class
	op := func() error {
		cs, err := p.fetchDay(ctx, date)
		if err != nil {
			if errors.Is(err, errPortalSession) {
				return backoff.Permanent(err)
			}
			return err
		}
		classes = cs
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), portalAttempts), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return classes, nil
}

// fetchDay asks the JSON API first and falls back to scraping the schedule
// page when the API answer is not usable JSON.
func (p *PortalSource) fetchDay(ctx context.Context, date time.Time) ([]model.Class, error) {
	day := date.In(model.MoscowTZ).Format("2006-01-02")

	resp, err := p.get(ctx, p.endpoint("/api/schedule")+"?date="+day)
	if err != nil {
		return nil, err
	}
	body, status, err := drain(resp)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, errPortalSession
	case status == http.StatusOK:
		if classes, ok := classesFromJSON(body); ok {
			return classes, nil
		}
		// Not JSON, scrape the page instead.
	default:
		return nil, fmt.Errorf("portal api: unexpected status %d", status)
	}

	resp, err = p.get(ctx, p.endpoint("/schedule")+"?date="+day)
	if err != nil {
		return nil, err
	}
	body, status, err = drain(resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("portal page: unexpected status %d", status)
	}
	return classesFromHTML(bytes.NewReader(body))
}

func (p *PortalSource) ensureAuth(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.authed {
		return nil
	}
	if p.restoreSession(ctx) && p.probe(ctx) {
		p.authed = true
		metrics.IncPortalLogin("reused")
		p.log.Info().Msg("portal session restored from store")
		return nil
	}
	return p.loginLocked(ctx)
}

func (p *PortalSource) relogin(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authed = false
	return p.loginLocked(ctx)
}

// loginLocked walks the ITMO ID login flow: open the schedule page, follow
// the login link (or the first form), fill hidden fields plus credentials,
// submit, then confirm we actually landed on the schedule. Callers hold mu.
func (p *PortalSource) loginLocked(ctx context.Context) error {
	start := time.Now()
	scheduleURL := p.endpoint("/schedule")

	resp, err := p.get(ctx, scheduleURL)
	if err != nil {
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("open schedule page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp)
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("%w: schedule page status %d", domain.ErrPortalAuth, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPortalBody))
	pageURL := resp.Request.URL
	resp.Body.Close()
	if err != nil {
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("parse schedule page: %w", err)
	}

	loginLink := findLoginLink(doc)
	if loginLink == "" {
		// No recognizable form either way; the API probe below is the last chance.
		if p.probe(ctx) {
			p.authed = true
			metrics.IncPortalLogin("ok")
			return nil
		}
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("%w: no login form found", domain.ErrPortalAuth)
	}

	authURL := resolveRef(pageURL, loginLink)
	authResp, err := p.get(ctx, authURL)
	if err != nil {
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("open login page: %w", err)
	}
	authDoc, err := goquery.NewDocumentFromReader(io.LimitReader(authResp.Body, maxPortalBody))
	authPageURL := authResp.Request.URL
	authResp.Body.Close()
	if err != nil {
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("parse login page: %w", err)
	}

	form := authDoc.Find("form").First()
	target, data, ok := loginForm(form, authPageURL, p.username, p.password)
	if !ok {
		if p.probe(ctx) {
			p.authed = true
			metrics.IncPortalLogin("ok")
			return nil
		}
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("%w: login form has no credential fields", domain.ErrPortalAuth)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(data.Encode()))
	if err != nil {
		metrics.IncPortalLogin("failed")
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	p.browserHeaders(req)
	postResp, err := p.client.Do(req)
	if err != nil {
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("submit login form: %w", err)
	}
	drain(postResp)

	if !p.verify(ctx, scheduleURL) && !p.probe(ctx) {
		metrics.IncPortalLogin("failed")
		return fmt.Errorf("%w: credentials rejected", domain.ErrPortalAuth)
	}

	p.authed = true
	metrics.IncPortalLogin("ok")
	p.persistSession(ctx)
	p.log.Info().Dur("took", time.Since(start)).Msg("portal login ok")
	return nil
}

// verify re-opens the schedule page and checks that it is no longer a login
// wall: either the final URL still points at the schedule or the body
// mentions the timetable.
func (p *PortalSource) verify(ctx context.Context, scheduleURL string) bool {
	resp, err := p.get(ctx, scheduleURL)
	if err != nil {
		return false
	}
	body, status, err := drain(resp)
	if err != nil || status != http.StatusOK {
		return false
	}
	finalURL := strings.ToLower(resp.Request.URL.String())
	return strings.Contains(finalURL, "schedule") || strings.Contains(strings.ToLower(string(body)), "расписание")
}

// probe checks whether the JSON API answers without a login wall.
func (p *PortalSource) probe(ctx context.Context) bool {
	resp, err := p.get(ctx, p.endpoint("/api/schedule"))
	if err != nil {
		return false
	}
	_, status, err := drain(resp)
	return err == nil && status == http.StatusOK
}

func (p *PortalSource) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	p.browserHeaders(req)
	return p.client.Do(req)
}

func (p *PortalSource) browserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", browserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func (p *PortalSource) endpoint(path string) string {
	return strings.TrimSuffix(p.base.String(), "/") + path
}

type sessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// persistSession stores the jar's cookies for the portal host. Failures only
// cost us a re-login after the next restart, so they are logged and ignored.
func (p *PortalSource) persistSession(ctx context.Context) {
	if p.sessions == nil {
		return
	}
	cookies := p.jar.Cookies(p.base)
	if len(cookies) == 0 {
		return
	}
	out := make([]sessionCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, sessionCookie{Name: c.Name, Value: c.Value})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := p.sessions.Save(ctx, string(b)); err != nil {
		p.log.Warn().Err(err).Msg("persist portal session failed")
	}
}

func (p *PortalSource) restoreSession(ctx context.Context) bool {
	if p.sessions == nil {
		return false
	}
	raw, err := p.sessions.Load(ctx)
	if err != nil || raw == "" {
		return false
	}
	var stored []sessionCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		p.log.Warn().Err(err).Msg("stored portal session unreadable, discarding")
		_ = p.sessions.Clear(ctx)
		return false
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	p.jar.SetCookies(p.base, cookies)
	return len(cookies) > 0
}

// drain reads and closes the response body, capped at maxPortalBody.
func drain(resp *http.Response) ([]byte, int, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPortalBody))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return b, resp.StatusCode, nil
}

func resolveRef(page *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return page.ResolveReference(u).String()
}

// findLoginLink mirrors how a human finds the way in: any anchor pointing at
// id.itmo.ru (or containing "login"), else the first form's action.
func findLoginLink(doc *goquery.Document) string {
	link := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.Contains(href, "id.itmo.ru") || strings.Contains(strings.ToLower(href), "login") {
			link = href
			return false
		}
		return true
	})
	if link != "" {
		return link
	}
	if action, ok := doc.Find("form").First().Attr("action"); ok && action != "" {
		return action
	}
	return ""
}

// loginForm extracts the submit target and field values from the ITMO ID
// form: all hidden inputs verbatim, credentials in whatever fields the form
// names them.
func loginForm(form *goquery.Selection, pageURL *url.URL, username, password string) (string, url.Values, bool) {
	if form.Length() == 0 {
		return "", nil, false
	}
	target := pageURL.String()
	if action, ok := form.Attr("action"); ok && action != "" {
		target = resolveRef(pageURL, action)
	}

	data := url.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, in *goquery.Selection) {
		name, ok := in.Attr("name")
		if !ok || name == "" {
			return
		}
		val, _ := in.Attr("value")
		data.Set(name, val)
	})

	userSel := form.Find("input[type=text]").First()
	if userSel.Length() == 0 {
		form.Find("input").EachWithBreak(func(_ int, in *goquery.Selection) bool {
			name, _ := in.Attr("name")
			l := strings.ToLower(name)
			if strings.Contains(l, "user") || strings.Contains(l, "login") || strings.Contains(l, "email") {
				userSel = in
				return false
			}
			return true
		})
	}
	passSel := form.Find("input[type=password]").First()
	if userSel.Length() == 0 || passSel.Length() == 0 {
		return "", nil, false
	}

	userField := attrOr(userSel, "name", "username")
	passField := attrOr(passSel, "name", "password")
	data.Set(userField, username)
	data.Set(passField, password)
	return target, data, true
}

func attrOr(sel *goquery.Selection, name, fallback string) string {
	if v, ok := sel.Attr(name); ok && v != "" {
		return v
	}
	return fallback
}
