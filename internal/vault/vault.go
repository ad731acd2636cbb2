// internal/vault/vault.go
//
// Vault secrets for Impact configuration.
//
// Context
// -------
// Operators keep the API bearer token, the Redis and MySQL passwords, and
// the CSRF key out of YAML by writing references instead:
//
//	api:
//	  token: "vault:secret/impact/api#token"
//
// internal/config hands every such reference to (*Client).Resolve before it
// unmarshals.  Values are read from KV v2 and cached for a few minutes so a
// SIGHUP reload does not refetch them all.  A background loop keeps the
// client token alive for as long as the process runs.
//
// Environment
// -----------
//   - VAULT_ADDR    scheme and host of the Vault server.
//   - VAULT_TOKEN   initial token (falls back to ~/.vault-token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

const (
	// RefPrefix marks a configuration value that lives in Vault.
	RefPrefix = "vault:"

	resolveTTL   = 5 * time.Minute
	retryDelay   = 30 * time.Second
	idleDelay    = time.Hour
	restartDelay = 15 * time.Second
)

// ErrKeyNotFound is returned when the secret exists but lacks the key.
var ErrKeyNotFound = errors.New("vault: key not found")

// readFunc fetches the data map of one KV v2 secret.
type readFunc func(ctx context.Context, mount, rel string) (map[string]any, error)

// Client resolves secrets.  Safe for concurrent use; build it with New.
type Client struct {
	api  *vault.Client
	read readFunc
	log  *zap.SugaredLogger
	now  func() time.Time

	mu    sync.RWMutex
	cache map[string]entry // path#key
}

type entry struct {
	val string
	exp time.Time
}

// New builds a client from the VAULT_* environment and starts token
// renewal, which stops with ctx.
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.S()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := newClient(func(ctx context.Context, mount, rel string) (map[string]any, error) {
		sec, err := api.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, err
		}
		return sec.Data, nil
	}, log)
	c.api = api

	go c.renewLoop(ctx)
	log.Infow("vault client ready", "addr", cfg.Address)
	return c, nil
}

func newClient(read readFunc, log *zap.SugaredLogger) *Client {
	return &Client{
		read:  read,
		log:   log,
		now:   time.Now,
		cache: make(map[string]entry),
	}
}

/*──────────────────────────────── reads ────────────────────────────────────*/

// ParseRef splits "vault:secret/impact/api#token" into the secret path
// ("secret/impact/api") and key ("token").
func ParseRef(ref string) (secretPath, key string, err error) {
	rest, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return "", "", fmt.Errorf("vault ref %q: missing %s prefix", ref, RefPrefix)
	}
	secretPath, key, ok = strings.Cut(rest, "#")
	if !ok || secretPath == "" || key == "" {
		return "", "", fmt.Errorf("vault ref %q: want vault:<mount>/<path>#<key>", ref)
	}
	if m, rel := splitMount(secretPath); m == "" || rel == "" {
		return "", "", fmt.Errorf("vault ref %q: path needs a mount and a secret name", ref)
	}
	return secretPath, key, nil
}

// Resolve returns the secret a vault: reference points at.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	p, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, p, key, resolveTTL)
}

// GetKV reads one string key of a KV v2 secret.  ttl > 0 caches the value.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("vault: secret path and key must be non-empty")
	}
	id := secretPath + "#" + key

	if ttl > 0 {
		c.mu.RLock()
		e, ok := c.cache[id]
		c.mu.RUnlock()
		if ok && c.now().Before(e.exp) {
			return e.val, nil
		}
	}

	mount, rel := splitMount(secretPath)
	data, err := c.read(ctx, mount, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", id, ErrKeyNotFound)
	}
	val, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: value at %s is %T, not a string", id, raw)
	}

	if ttl > 0 {
		c.mu.Lock()
		c.cache[id] = entry{val: val, exp: c.now().Add(ttl)}
		c.mu.Unlock()
	}
	return val, nil
}

/*──────────────────────────── token renewal ────────────────────────────────*/

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		wait(ctx, c.watchToken(ctx))
	}
}

// watchToken renews the token until the watcher gives up and returns how
// long to wait before trying again.
func (c *Client) watchToken(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		c.log.Warnw("vault token renew failed", "err", err)
		return retryDelay
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.log.Debugw("vault token is not renewable")
		return idleDelay
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		c.log.Warnw("vault lifetime watcher failed", "err", err)
		return retryDelay
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "err", err)
			}
			return restartDelay
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

/*──────────────────────────────── helpers ──────────────────────────────────*/

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return mount, rel
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
