package coordinator

import (
	"context"
	"log/slog"

	"github.com/rickgao/whaleflow/internal/classify"
	"github.com/rickgao/whaleflow/internal/cluster"
	"github.com/rickgao/whaleflow/internal/detect"
	"github.com/rickgao/whaleflow/internal/metrics"
	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/store"
)

// BundleConfig wires the detector bundle's dependencies. Catalogs and
// the store may be nil: a nil catalog skips metadata enrichment, a
// nil store (or PersistTrades=false) skips persistence.
type BundleConfig struct {
	Classifier    *classify.Classifier
	Clusters      *cluster.Registry
	PolyCatalog   *classify.Catalog
	KalshiCatalog *classify.Catalog

	ZScore       *detect.ZScoreDetector
	Sweep        *detect.SweepDetector
	PolyWallets  *detect.WalletAccumulator
	KalshiYesAcc *detect.VenueAccumulator

	Store         store.Store
	PersistTrades bool

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Bundle is the per-process trade consumer every venue adapter's
// TradeHandler feeds into: it enriches a normalized trade with
// catalog/classifier/cluster metadata, feeds every detector, and
// persists to the store. Grounded on the upstream ingest service's
// SmurfDetector, split here across handle_polymarket_trade and
// handle_kalshi_trade's exact per-platform tails.
type Bundle struct {
	cfg BundleConfig
}

func NewBundle(cfg BundleConfig) *Bundle {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Bundle{cfg: cfg}
}

// HandlePolymarketTrade matches polymarket.TradeHandler.
func (b *Bundle) HandlePolymarketTrade(t model.Trade) {
	if !t.Valid() {
		return
	}
	t = b.enrich(t, b.cfg.PolyCatalog)
	b.detect(t)
	b.persist(t)

	// The normalizer resolves taker/maker to a single ActorAddress (the
	// first wallet-shaped key present on the wire frame), so there is
	// only ever one wallet to feed here, unlike the upstream ingest
	// service which tracks taker and maker as a deduped pair.
	if t.ActorAddress != nil && *t.ActorAddress != "" && b.cfg.PolyWallets != nil {
		if alert, ok := b.cfg.PolyWallets.AddTrade(*t.ActorAddress, t.Timestamp, t.SizeUSD); ok {
			b.cfg.Logger.Info("whale flagged",
				"wallet", alert.Wallet, "total_usd", alert.TotalUSD, "window_hours", 6, "market", t.Market)
			b.incAlert("wallet_accumulation")
		}
	}
}

// HandleKalshiTrade matches kalshi.TradeHandler.
func (b *Bundle) HandleKalshiTrade(t model.Trade) {
	if !t.Valid() {
		return
	}
	t = b.enrich(t, b.cfg.KalshiCatalog)
	b.detect(t)
	b.persist(t)

	if t.Side == model.SideYes && b.cfg.KalshiYesAcc != nil {
		if alert, ok := b.cfg.KalshiYesAcc.Add(t.Timestamp, t.SizeUSD); ok {
			b.cfg.Logger.Warn("kalshi yes accumulation alert",
				"total_usd", alert.TotalUSD, "window_hours", 1, "market", t.Market)
			b.incAlert("venue_accumulation")
		}
	}
}

// enrich looks up the trade's market in catalog (by the single
// venue-native key the normalizer produced), resolves a label and
// text blob, classifies, and assigns a semantic cluster.
func (b *Bundle) enrich(t model.Trade, catalog *classify.Catalog) model.Trade {
	label := t.MarketLabel
	textBlob := label

	var volume *float64
	if catalog != nil {
		if meta, ok := catalog.Lookup(t.Market); ok {
			if meta.Label != "" {
				label = meta.Label
			}
			if meta.TextBlob != "" {
				textBlob = meta.TextBlob
			}
			volume = meta.Volume
			t.MarketCategory = meta.Category
		}
	}
	t.MarketLabel = label
	t.MarketVolume = volume

	if b.cfg.Classifier != nil {
		classification := b.cfg.Classifier.Classify(textBlob, volume)
		t.MarketIsNiche = &classification.IsNiche
		t.MarketIsStock = &classification.IsStock
	}

	if b.cfg.Clusters != nil {
		if id := b.cfg.Clusters.ClusterFor(t.Platform, t.Market, label, textBlob); id != "" {
			t.ClusterID = &id
		}
	}

	return t
}

func (b *Bundle) detect(t model.Trade) {
	if b.cfg.Metrics != nil {
		b.cfg.Metrics.TradesIngested.WithLabelValues(t.Platform).Inc()
	}

	if b.cfg.ZScore != nil {
		if alert, ok := b.cfg.ZScore.AddTrade(t.Platform, t.Market, t.Timestamp, t.SizeUSD); ok {
			b.cfg.Logger.Info("zscore spike detected",
				"platform", alert.Platform, "market", alert.Market, "z", alert.Z, "size_usd", alert.SizeUSD)
			b.incAlert("zscore")
		}
	}
	if b.cfg.Sweep != nil {
		if alert, ok := b.cfg.Sweep.AddTrade(t.Platform, t.Market, t.Side, t.Timestamp, t.Price, t.SizeUSD); ok {
			b.cfg.Logger.Info("sweep detected",
				"platform", alert.Platform, "market", alert.Market, "side", alert.Side,
				"trades", alert.Trades, "total_usd", alert.TotalUSD)
			b.incAlert("sweep")
		}
	}
}

func (b *Bundle) persist(t model.Trade) {
	if !b.cfg.PersistTrades || b.cfg.Store == nil {
		return
	}
	done := func() {}
	if b.cfg.Metrics != nil {
		done = b.cfg.Metrics.ObserveQuery("add_trade")
	}
	defer done()

	if err := b.cfg.Store.AddTrade(context.Background(), t); err != nil {
		b.cfg.Logger.Warn("store add_trade failed", "error", err, "platform", t.Platform, "market", t.Market)
	}
}

func (b *Bundle) incAlert(detector string) {
	if b.cfg.Metrics != nil {
		b.cfg.Metrics.AlertsEmitted.WithLabelValues(detector).Inc()
	}
}
