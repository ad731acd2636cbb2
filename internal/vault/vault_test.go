package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		ref      string
		wantPath string
		wantKey  string
		wantErr  bool
	}{
		{"vault:secret/impact#api_token", "secret/impact", "api_token", false},
		{"vault:kv/impact/redis#password", "kv/impact/redis", "password", false},
		{"secret/impact#api_token", "", "", true},
		{"vault:secret/impact", "", "", true},
		{"vault:secret#key", "", "", true},
		{"vault:#key", "", "", true},
		{"vault:secret/impact#", "", "", true},
	}
	for _, tc := range cases {
		p, k, err := ParseRef(tc.ref)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseRef(%q): want error", tc.ref)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRef(%q): %v", tc.ref, err)
		}
		if p != tc.wantPath || k != tc.wantKey {
			t.Fatalf("ParseRef(%q) = %q, %q", tc.ref, p, k)
		}
	}
}

func TestSplitMount(t *testing.T) {
	m, rel := splitMount("secret/impact/api")
	if m != "secret" || rel != "impact/api" {
		t.Fatalf("splitMount = %q, %q", m, rel)
	}
	if m, rel := splitMount(""); m != "" || rel != "" {
		t.Fatalf("splitMount(\"\") = %q, %q", m, rel)
	}
}

type fakeKV struct {
	data  map[string]map[string]any // mount/rel -> data
	calls int
}

func (f *fakeKV) read(_ context.Context, mount, rel string) (map[string]any, error) {
	f.calls++
	d, ok := f.data[mount+"/"+rel]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return d, nil
}

func newTestClient(kv *fakeKV) (*Client, *time.Time) {
	now := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newClient(kv.read, zap.NewNop().Sugar())
	c.now = func() time.Time { return now }
	return c, &now
}

func TestResolveCachesValue(t *testing.T) {
	kv := &fakeKV{data: map[string]map[string]any{
		"secret/impact/api": {"token": "t0k3n"},
	}}
	c, now := newTestClient(kv)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := c.Resolve(ctx, "vault:secret/impact/api#token")
		if err != nil {
			t.Fatal(err)
		}
		if got != "t0k3n" {
			t.Fatalf("Resolve = %q", got)
		}
	}
	if kv.calls != 1 {
		t.Fatalf("reads = %d, want 1", kv.calls)
	}

	*now = now.Add(resolveTTL + time.Second)
	if _, err := c.Resolve(ctx, "vault:secret/impact/api#token"); err != nil {
		t.Fatal(err)
	}
	if kv.calls != 2 {
		t.Fatalf("reads after expiry = %d, want 2", kv.calls)
	}
}

func TestGetKVErrors(t *testing.T) {
	kv := &fakeKV{data: map[string]map[string]any{
		"secret/impact/db": {"password": "pw", "port": 3306},
	}}
	c, _ := newTestClient(kv)
	ctx := context.Background()

	if _, err := c.GetKV(ctx, "secret/impact/db", "user", 0); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("missing key err = %v", err)
	}
	if _, err := c.GetKV(ctx, "secret/impact/db", "port", 0); err == nil {
		t.Fatal("want error for non-string value")
	}
	if _, err := c.GetKV(ctx, "secret/impact/none", "password", 0); err == nil {
		t.Fatal("want error for missing secret")
	}
	if _, err := c.GetKV(ctx, "", "password", 0); err == nil {
		t.Fatal("want error for empty path")
	}
	if _, err := c.Resolve(ctx, "secret/impact/db#password"); err == nil {
		t.Fatal("want error for ref without prefix")
	}
}
