package provider_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/provider"
	"github.com/dropDatabas3/idbroker/internal/store/adapters/memory"
)

type testSettings struct {
	Greeting string `yaml:"greeting"`
	Retries  int    `yaml:"retries"`
	Broken   bool   `yaml:"broken"`
}

type testSettingsProvider struct{}

func (testSettingsProvider) Defaults() testSettings { return testSettings{Greeting: "hola", Retries: 3} }

func (testSettingsProvider) Validate(s testSettings) error {
	if s.Retries < 0 {
		return errors.New("retries must be >= 0")
	}
	return nil
}

type testProvider struct {
	provider.Configured[testSettings]
}

type countingFactory struct {
	calls atomic.Int32
	delay time.Duration
}

func (f *countingFactory) BuildProvider(ctx context.Context, cfg provider.Config[testSettings]) (*testProvider, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Settings.Broken {
		return nil, errors.New("backend unreachable")
	}
	return &testProvider{Configured: provider.NewConfigured(cfg)}, nil
}

func newRegistry(t *testing.T, opts ...provider.Option) (*provider.Registry[*testProvider, testSettings], *countingFactory, repository.ProviderConfigRepository) {
	t.Helper()
	configs := memory.New().ProviderConfigs()
	f := &countingFactory{}
	r := provider.NewRegistry[*testProvider, testSettings]("internal", configs, testSettingsProvider{}, f, opts...)
	return r, f, configs
}

func version(v int) *int { return &v }

func TestRegisterThenFind(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRegistry(t, provider.Versioned())

	cfg, err := r.RegisterProvider(ctx, provider.Configurable{
		Authority: "internal", Provider: "idp1", Realm: "r1", Version: version(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "hola", cfg.Settings.Greeting, "defaults applied")
	assert.Equal(t, "r1", cfg.RepositoryID)

	p, err := r.FindProvider(ctx, "idp1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 0, p.Version())

	_, err = r.RegisterProvider(ctx, provider.Configurable{
		Authority: "internal", Provider: "idp1", Realm: "r1", Version: version(1),
		Settings: map[string]any{"greeting": "hello"},
	})
	require.NoError(t, err)

	p2, err := r.FindProvider(ctx, "idp1")
	require.NoError(t, err)
	require.NotNil(t, p2)
	assert.Equal(t, 1, p2.Version())
	assert.Equal(t, "hello", p2.Settings().Greeting)
	assert.Equal(t, 3, p2.Settings().Retries)
	assert.NotSame(t, p, p2)
}

func TestVersionMonotonicity(t *testing.T) {
	ctx := context.Background()
	r, f, _ := newRegistry(t, provider.Versioned())

	_, err := r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r1", Version: version(2)})
	require.NoError(t, err)
	builds := f.calls.Load()

	cfg, err := r.RegisterProvider(ctx, provider.Configurable{
		Authority: "internal", Provider: "idp1", Realm: "r1", Version: version(2),
		Settings: map[string]any{"greeting": "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hola", cfg.Settings.Greeting, "equal version is a no-op")
	assert.Equal(t, builds, f.calls.Load())

	_, err = r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r1", Version: version(1)})
	assert.ErrorIs(t, err, provider.ErrStaleVersion)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r1"})
	assert.ErrorIs(t, err, provider.ErrVersionRequired)
}

func TestUnversionedUpdateBumpsVersion(t *testing.T) {
	ctx := context.Background()
	r, _, configs := newRegistry(t)

	_, err := r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r1"})
	require.NoError(t, err)
	cfg, err := r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)

	stored, err := configs.FindByProviderID(ctx, "idp1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
}

func TestProviderIDIsGlobal(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRegistry(t)

	_, err := r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r1"})
	require.NoError(t, err)

	_, err = r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r2"})
	assert.ErrorIs(t, err, provider.ErrProviderIDTaken)
}

// gatedConfigs retiene las dos primeras lecturas hasta que ambas llegan, para
// que dos registros vean el store vacío a la vez.
type gatedConfigs struct {
	repository.ProviderConfigRepository
	reads   atomic.Int32
	arrived sync.WaitGroup
}

func (g *gatedConfigs) FindByProviderID(ctx context.Context, providerID string) (*repository.ProviderConfig, error) {
	if g.reads.Add(1) <= 2 {
		g.arrived.Done()
		g.arrived.Wait()
	}
	return g.ProviderConfigRepository.FindByProviderID(ctx, providerID)
}

func TestProviderIDIsGlobalUnderConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	configs := &gatedConfigs{ProviderConfigRepository: memory.New().ProviderConfigs()}
	configs.arrived.Add(2)
	r := provider.NewRegistry[*testProvider, testSettings]("internal", configs, testSettingsProvider{}, &countingFactory{})

	realms := []string{"r1", "r2"}
	errs := make([]error, len(realms))
	var wg sync.WaitGroup
	for i, realm := range realms {
		wg.Add(1)
		go func(i int, realm string) {
			defer wg.Done()
			_, errs[i] = r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: realm})
		}(i, realm)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one realm may own the id")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, provider.ErrProviderIDTaken)
	}
	require.NotEqual(t, -1, winner)

	stored, err := configs.ProviderConfigRepository.FindByProviderID(ctx, "idp1")
	require.NoError(t, err)
	assert.Equal(t, realms[winner], stored.Realm)
}

func TestFindProviderBuildIgnoresCallerCancel(t *testing.T) {
	r, f, configs := newRegistry(t)
	require.NoError(t, configs.Upsert(context.Background(), &repository.ProviderConfig{Authority: "internal", ProviderID: "idp1", Realm: "r1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := r.FindProvider(ctx, "idp1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestAuthorityMismatch(t *testing.T) {
	r, _, _ := newRegistry(t)
	_, err := r.RegisterProvider(context.Background(), provider.Configurable{Authority: "oidc", Provider: "idp1", Realm: "r1"})
	assert.ErrorIs(t, err, provider.ErrAuthorityMismatch)
}

func TestSingleInstancePerRealm(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRegistry(t, provider.SingleInstance())

	_, err := r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "a", Realm: "r1"})
	require.NoError(t, err)

	_, err = r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "b", Realm: "r1"})
	assert.ErrorIs(t, err, provider.ErrSingleInstance)

	_, err = r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "b", Realm: "r2"})
	assert.NoError(t, err)
}

func TestRegisterRollsBackWhenBuildFails(t *testing.T) {
	ctx := context.Background()
	r, _, configs := newRegistry(t)

	_, err := r.RegisterProvider(ctx, provider.Configurable{
		Authority: "internal", Provider: "idp1", Realm: "r1",
		Settings: map[string]any{"broken": true},
	})
	require.ErrorIs(t, err, provider.ErrRegistration)
	assert.ErrorIs(t, err, repository.ErrUnavailable)

	_, err = configs.FindByProviderID(ctx, "idp1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterRejectsInvalidSettings(t *testing.T) {
	ctx := context.Background()
	r, f, configs := newRegistry(t)

	_, err := r.RegisterProvider(ctx, provider.Configurable{
		Authority: "internal", Provider: "idp1", Realm: "r1",
		Settings: map[string]any{"retries": -1},
	})
	require.ErrorIs(t, err, provider.ErrInvalidConfig)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
	assert.Zero(t, f.calls.Load())

	_, err = configs.FindByProviderID(ctx, "idp1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindProviderBrokenIsUnavailable(t *testing.T) {
	ctx := context.Background()
	r, _, configs := newRegistry(t)

	require.NoError(t, configs.Upsert(ctx, &repository.ProviderConfig{
		Authority: "internal", ProviderID: "bad", Realm: "r1",
		Settings: map[string]any{"broken": true},
	}))
	require.NoError(t, configs.Upsert(ctx, &repository.ProviderConfig{
		Authority: "internal", ProviderID: "good", Realm: "r1",
	}))

	p, err := r.FindProvider(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = r.GetProvider(ctx, "bad")
	assert.ErrorIs(t, err, provider.ErrNoSuchProvider)

	list, err := r.GetProvidersByRealm(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].ProviderID())
}

func TestFindProviderMissing(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRegistry(t)

	p, err := r.FindProvider(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	ok, err := r.HasProvider(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.GetProvider(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentFindBuildsOnce(t *testing.T) {
	ctx := context.Background()
	r, f, configs := newRegistry(t)
	f.delay = 50 * time.Millisecond
	require.NoError(t, configs.Upsert(ctx, &repository.ProviderConfig{Authority: "internal", ProviderID: "idp1", Realm: "r1"}))

	const n = 16
	var wg sync.WaitGroup
	results := make([]*testProvider, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			p, err := r.FindProvider(ctx, "idp1")
			if err == nil {
				results[i] = p
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, p := range results {
		require.NotNil(t, p)
		assert.Same(t, results[0], p)
	}
}

func TestStoreVersionBumpRebuilds(t *testing.T) {
	ctx := context.Background()
	r, f, configs := newRegistry(t)
	require.NoError(t, configs.Upsert(ctx, &repository.ProviderConfig{Authority: "internal", ProviderID: "idp1", Realm: "r1"}))

	p, err := r.FindProvider(ctx, "idp1")
	require.NoError(t, err)
	require.NoError(t, configs.Upsert(ctx, &repository.ProviderConfig{Authority: "internal", ProviderID: "idp1", Realm: "r1", Version: 5}))

	p2, err := r.FindProvider(ctx, "idp1")
	require.NoError(t, err)
	assert.Equal(t, 5, p2.Version())
	assert.NotSame(t, p, p2)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestUnregisterProvider(t *testing.T) {
	ctx := context.Background()
	r, _, configs := newRegistry(t)

	_, err := r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "idp1", Realm: "r1"})
	require.NoError(t, err)
	require.NoError(t, r.UnregisterProvider(ctx, "idp1"))
	require.NoError(t, r.UnregisterProvider(ctx, "idp1"))

	p, err := r.FindProvider(ctx, "idp1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Zero(t, r.CacheSize())

	_, err = r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: "sys", Realm: repository.SystemRealm})
	require.NoError(t, err)
	require.NoError(t, r.UnregisterProvider(ctx, "sys"))
	_, err = configs.FindByProviderID(ctx, "sys")
	assert.NoError(t, err, "system realm providers are not removable")
}

func TestCacheSoftCap(t *testing.T) {
	ctx := context.Background()
	r, _, configs := newRegistry(t, provider.WithCacheSize(2))
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("idp%d", i)
		require.NoError(t, configs.Upsert(ctx, &repository.ProviderConfig{Authority: "internal", ProviderID: id, Realm: "r1"}))
		p, err := r.FindProvider(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p)
	}
	assert.LessOrEqual(t, r.CacheSize(), 2)
}

func TestListProviders(t *testing.T) {
	ctx := context.Background()
	r, f, _ := newRegistry(t)
	for _, id := range []string{"b", "a"} {
		_, err := r.RegisterProvider(ctx, provider.Configurable{Authority: "internal", Provider: id, Realm: "r1", TitleMap: map[string]string{"es": id}})
		require.NoError(t, err)
	}
	builds := f.calls.Load()

	list, err := r.ListProviders(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Provider)
	require.NotNil(t, list[0].Version)
	assert.Equal(t, builds, f.calls.Load(), "listing does not instantiate")
}
