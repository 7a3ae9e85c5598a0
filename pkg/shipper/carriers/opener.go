// Package carriers builds a shipper.Shipper for a tenant's carrier configuration.
package carriers

import (
	"fmt"
	"sync"
	"time"

	"github.com/tournevent/courier/pkg/shipper"
	"github.com/tournevent/courier/pkg/shipper/area"
	"github.com/tournevent/courier/pkg/shipper/paperfly"
	"github.com/tournevent/courier/pkg/shipper/pathao"
	"github.com/tournevent/courier/pkg/shipper/redx"
	"github.com/tournevent/courier/pkg/shipper/steadfast"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Production API roots.
var DefaultBaseURLs = map[shipper.Carrier]string{
	shipper.CarrierPathao:    "https://api-hermes.pathao.com",
	shipper.CarrierRedX:      "https://openapi.redx.com.bd/v1.0.0-beta",
	shipper.CarrierSteadfast: "https://portal.packzy.com/api/v1",
	shipper.CarrierPaperfly:  "https://api.paperfly.com.bd",
}

// Options are the process-wide settings shared by every opened carrier.
type Options struct {
	// BaseURLs overrides DefaultBaseURLs per carrier.
	BaseURLs map[shipper.Carrier]string
	Timeout  time.Duration
	UseMock  bool

	// AreaCache backs the RedX area catalog; nil disables caching.
	AreaCache    area.Cache
	AreaCacheTTL time.Duration

	Logger *otelzap.Logger
	Tracer trace.Tracer
}

// Opener turns stored carrier configurations into live adapters. Adapters
// opened with the same credentials share one area catalog, so concurrent
// lookups coalesce across requests.
type Opener struct {
	opts Options

	mu       sync.Mutex
	catalogs map[string]*area.CachedCatalog
}

// NewOpener creates an Opener.
func NewOpener(opts Options) *Opener {
	if opts.Logger == nil {
		opts.Logger = otelzap.New(zap.NewNop())
	}
	return &Opener{
		opts:     opts,
		catalogs: make(map[string]*area.CachedCatalog),
	}
}

// Open validates cfg and returns the adapter for its carrier.
func (o *Opener) Open(cfg shipper.CarrierConfig) (shipper.Shipper, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: %s for tenant %s", shipper.ErrCarrierDisabled, cfg.ID, cfg.TenantID)
	}

	baseURL := o.baseURL(cfg.ID)
	logger := otelzap.New(o.opts.Logger.Logger.With(zap.String("carrier", string(cfg.ID))))

	switch cfg.ID {
	case shipper.CarrierPathao:
		c, err := pathao.ConfigFromCredentials(cfg.Credentials)
		if err != nil {
			return nil, err
		}
		c.BaseURL, c.Timeout, c.UseMock = baseURL, o.opts.Timeout, o.opts.UseMock
		return pathao.New(c, logger, o.opts.Tracer), nil

	case shipper.CarrierRedX:
		c, err := redx.ConfigFromCredentials(cfg.Credentials)
		if err != nil {
			return nil, err
		}
		c.BaseURL, c.Timeout, c.UseMock = baseURL, o.opts.Timeout, o.opts.UseMock
		return redx.New(c, o.sharedCatalog(cfg.ID, c.APIKey, logger), logger, o.opts.Tracer), nil

	case shipper.CarrierSteadfast:
		c, err := steadfast.ConfigFromCredentials(cfg.Credentials)
		if err != nil {
			return nil, err
		}
		c.BaseURL, c.Timeout, c.UseMock = baseURL, o.opts.Timeout, o.opts.UseMock
		return steadfast.New(c, logger, o.opts.Tracer), nil

	case shipper.CarrierPaperfly:
		c, err := paperfly.ConfigFromCredentials(cfg.Credentials)
		if err != nil {
			return nil, err
		}
		c.BaseURL, c.Timeout, c.UseMock = baseURL, o.opts.Timeout, o.opts.UseMock
		return paperfly.New(c, logger, o.opts.Tracer), nil

	default:
		return nil, fmt.Errorf("%w: %q", shipper.ErrCarrierNotFound, cfg.ID)
	}
}

func (o *Opener) baseURL(c shipper.Carrier) string {
	if u := o.opts.BaseURLs[c]; u != "" {
		return u
	}
	return DefaultBaseURLs[c]
}

// sharedCatalog returns the catalog wrapper for an adapter. The first adapter
// opened for a carrier and API key supplies the underlying catalog.
func (o *Opener) sharedCatalog(c shipper.Carrier, apiKey string, logger *otelzap.Logger) func(area.Catalog) area.Catalog {
	key := string(c) + "\x00" + apiKey
	return func(next area.Catalog) area.Catalog {
		o.mu.Lock()
		defer o.mu.Unlock()
		if cat, ok := o.catalogs[key]; ok {
			return cat
		}
		cat := area.NewCachedCatalog(string(c), next, o.opts.AreaCache, o.opts.AreaCacheTTL, logger)
		o.catalogs[key] = cat
		return cat
	}
}
