package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	signInPath  = "/users/service_signin/"
	signOutPath = "/users/service_signout/"
)

// Cookie is a persisted session cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CookieStore persists session cookies per server host.
type CookieStore interface {
	LoadCookies(ctx context.Context, host string) ([]Cookie, error)
	SaveCookies(ctx context.Context, host string, cookies []Cookie) error
	ClearCookies(ctx context.Context, host string) error
}

// Credentials are the service sign-in fields. Job optionally pins the
// session to the job whose identifier starts with the given prefix.
type Credentials struct {
	Username string
	Password string
	Job      string
}

// Restore loads the cookies saved by a previous SignIn. It is a no-op when
// the client has no cookie store.
func (c *Client) Restore(ctx context.Context) error {
	if c.cookies == nil {
		return nil
	}

	saved, err := c.cookies.LoadCookies(ctx, c.base.Host)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(saved))
	for _, ck := range saved {
		cookies = append(cookies, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	c.jar.SetCookies(c.base, cookies)
	return nil
}

// SignedIn reports whether the client holds a session cookie.
func (c *Client) SignedIn() bool {
	return c.cookie(sessionCookie) != ""
}

// SignIn primes the CSRF cookie, posts the credentials and persists the
// resulting session.
func (c *Client) SignIn(ctx context.Context, creds Credentials) error {
	req, err := c.newRequest(ctx, http.MethodGet, signInPath, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("prime csrf token: %w", err)
	}

	form := url.Values{
		"username": {creds.Username},
		"password": {creds.Password},
	}
	if creds.Job != "" {
		form.Set("job identifier", creds.Job)
	}
	if err := c.Post(ctx, signInPath, form, nil); err != nil {
		return err
	}

	c.log.Info().Str("server", c.base.Host).Str("user", creds.Username).Msg("signed in")
	return c.persist(ctx)
}

// SignOut ends the session on the server and forgets the saved cookies.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.Post(ctx, signOutPath, url.Values{}, nil); err != nil {
		return err
	}

	if c.cookies == nil {
		return nil
	}
	if err := c.cookies.ClearCookies(ctx, c.base.Host); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (c *Client) persist(ctx context.Context) error {
	if c.cookies == nil {
		return nil
	}

	var saved []Cookie
	for _, ck := range c.jar.Cookies(c.base) {
		saved = append(saved, Cookie{Name: ck.Name, Value: ck.Value})
	}
	if err := c.cookies.SaveCookies(ctx, c.base.Host, saved); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
