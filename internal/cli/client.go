package cli

import (
	"context"
	"fmt"

	"github.com/myastroboard/astroboard/pkg/buildinfo"
	"github.com/myastroboard/astroboard/pkg/cache"
	"github.com/myastroboard/astroboard/pkg/fetch"
	"github.com/myastroboard/astroboard/pkg/resources"
	"github.com/myastroboard/astroboard/pkg/session"
)

// sessionStore opens the session store of the configured server.
func (c *CLI) sessionStore() (*session.CLIStore, error) {
	store, err := session.NewCLIStore("", c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

// loadSession returns the stored session or nil. Store failures are
// logged; commands then run anonymously.
func (c *CLI) loadSession(ctx context.Context) (*session.CLIStore, *session.Session) {
	store, err := c.sessionStore()
	if err != nil {
		c.Logger.Warn("sessions unavailable", "err", err)
		return nil, nil
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		c.Logger.Warn("could not read session", "path", store.Path(), "err", err)
		return store, nil
	}
	return store, sess
}

// newClient builds a client carrying the stored session. A final 401
// drops the stale session and tells the user to log in again.
func (c *CLI) newClient(ctx context.Context) (*fetch.Client, error) {
	store, sess := c.loadSession(ctx)
	opts := []fetch.Option{
		fetch.WithCookies(sess.HTTPCookies()...),
		fetch.WithUnauthorized(func(ctx context.Context, endpoint string) {
			if store != nil && sess != nil {
				if err := store.DeleteSession(ctx); err != nil {
					c.Logger.Warn("could not remove stale session", "err", err)
				}
			}
			printWarning(c.err, "Not logged in or session expired")
			printNextStep(c.err, "Log in with", "astroboard login")
		}),
	}
	return c.newClientWith(opts...)
}

// newClientWith builds a client with the CLI's defaults plus opts.
func (c *CLI) newClientWith(opts ...fetch.Option) (*fetch.Client, error) {
	base := []fetch.Option{
		fetch.WithLogger(c.Logger),
		fetch.WithHeaders(map[string]string{"User-Agent": buildinfo.UserAgent()}),
	}
	return fetch.NewClient(c.cfg.URL, append(base, opts...)...)
}

// openCache opens the configured backend, falling back to no cache.
func (c *CLI) openCache(ctx context.Context) cache.Cache {
	opts := c.cfg.CacheOptions()
	store, err := cache.Open(ctx, opts)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "backend", opts.Backend, "err", err)
		return cache.NewNullCache()
	}
	return store
}

// newStore returns a resource store over a session-carrying client. The
// returned func closes the cache.
func (c *CLI) newStore(ctx context.Context) (*resources.Store, func(), error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch := c.openCache(ctx)
	store := resources.NewStore(client, ch, resources.WithLogger(c.Logger))
	return store, func() { _ = ch.Close() }, nil
}

// policyFor returns the retry policy for r.
func (c *CLI) policyFor(r resources.Resource) fetch.RetryPolicy {
	if r.Warmup {
		return c.cfg.WarmupPolicy(resources.WarmupPolicy)
	}
	return c.plainPolicy()
}

// plainPolicy is the default retry policy for ordinary requests.
func (c *CLI) plainPolicy() fetch.RetryPolicy {
	return fetch.RetryPolicy{
		BaseDelay: c.cfg.Retry.BaseDelay.Duration,
		MaxDelay:  c.cfg.Retry.MaxDelay.Duration,
		Timeout:   c.cfg.Timeout.Duration,
	}
}
