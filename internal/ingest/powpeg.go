package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bridgeScope/internal/bridge"
	"bridgeScope/internal/metrics"
	"bridgeScope/internal/model"
	"bridgeScope/internal/storage"
	"bridgeScope/internal/storage/postgres"
)

// SourcePowPeg labels the PowPeg collector in cursors, metrics and the
// Postgres mirror.
const SourcePowPeg = "powpeg"

// PowPeg dataset and cursor files.
const (
	PowPegPeginsFile      = "powpeg_pegins.json"
	PowPegPeginEventsFile = "powpeg_pegin_events.json"
	PowPegPegoutsFile     = "powpeg_pegouts.json"
	PowPegReleasesFile    = "powpeg_releases.json"
	PowPegCursorFile      = ".cursor_powpeg.json"
)

// ChainSource is the JSON-RPC slice the PowPeg collector needs. The bridge
// precompile emits too many untracked logs for explorer pagination, so peg-out
// history comes from filtered eth_getLogs queries instead.
type ChainSource interface {
	LatestBlockNumber(ctx context.Context) (int64, error)
	FilterLogs(ctx context.Context, from, to int64, address string, topics []string) ([]model.RawLog, error)
}

// InternalTxSource pages bridge internal transactions out of the explorer.
type InternalTxSource interface {
	InternalTransactions(ctx context.Context, address string, minBlock int64) ([]model.InternalTx, error)
	BlockTimestamper
}

// PowPegConfig holds runtime settings for the PowPeg collector.
type PowPegConfig struct {
	Address     string
	MinBlock    int64
	ReorgBuffer int64
	ChunkSize   int64
	Full        bool
	MaxRetries  int
	RetryDelay  time.Duration
}

// PowPegRunner collects native bridge events into the PowPeg datasets.
type PowPegRunner struct {
	cfg      PowPegConfig
	chain    ChainSource
	explorer InternalTxSource
	store    *storage.Store
	cursor   CursorStore
	mirror   *postgres.Store
	decoder  *bridge.Decoder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewPowPegRunner builds a PowPegRunner with its dependencies. The mirror and
// metrics may be nil.
func NewPowPegRunner(cfg PowPegConfig, chain ChainSource, expl InternalTxSource, store *storage.Store, cursor CursorStore, mirror *postgres.Store, m *metrics.Metrics, logger *zap.Logger) *PowPegRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 200_000
	}
	return &PowPegRunner{
		cfg:      cfg,
		chain:    chain,
		explorer: expl,
		store:    store,
		cursor:   cursor,
		mirror:   mirror,
		decoder:  bridge.NewDecoder(bridge.BridgeEvents()),
		metrics:  m,
		logger:   logger,
	}
}

// Run executes one PowPeg collection pass.
func (r *PowPegRunner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain source is nil")
	}
	if r.explorer == nil {
		return fmt.Errorf("explorer source is nil")
	}
	if r.store == nil {
		return fmt.Errorf("store is nil")
	}
	if r.cursor == nil {
		return fmt.Errorf("cursor store is nil")
	}

	cur, found, err := r.cursor.Load()
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	incremental := found && !r.cfg.Full && cur.LastBlock > 0
	start := StartBlock(cur, found, r.cfg.Full, r.cfg.MinBlock, r.cfg.ReorgBuffer)
	if incremental {
		r.logger.Info("incremental mode",
			zap.Int64("start_block", start),
			zap.Int64("cursor", cur.LastBlock),
			zap.Int64("reorg_buffer", r.cfg.ReorgBuffer))
	} else {
		r.logger.Info("full mode", zap.Int64("start_block", start))
	}

	// The mandatory first call of the run. Retry exhaustion here is fatal.
	var latest int64
	err = withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryDelay, func(ctx context.Context) error {
		var innerErr error
		latest, innerErr = r.chain.LatestBlockNumber(ctx)
		return innerErr
	})
	if err != nil {
		return fmt.Errorf("resolve latest block: %w", err)
	}
	r.logger.Info("resolved chain tip", zap.Int64("latest", latest))

	newPeginEvents := []model.PeginBTC{}
	newPegouts := []model.ReleaseRequested{}
	newReleases := []model.ReleaseEvent{}
	counts := map[string]int{}
	observed := start

	if latest >= start {
		topics := r.decoder.Topics(bridge.TrackedBridgeKinds()...)
		ranges, err := SplitRange(start, latest, r.cfg.ChunkSize)
		if err != nil {
			return fmt.Errorf("split scan range: %w", err)
		}
		for _, rng := range ranges {
			var logs []model.RawLog
			err = withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryDelay, func(ctx context.Context) error {
				var innerErr error
				logs, innerErr = r.chain.FilterLogs(ctx, rng.From, rng.To, r.cfg.Address, topics)
				return innerErr
			})
			if err != nil {
				return fmt.Errorf("filter logs %d-%d: %w", rng.From, rng.To, err)
			}
			r.logger.Info("scanned chunk",
				zap.Int64("from", rng.From),
				zap.Int64("to", rng.To),
				zap.Int("logs", len(logs)))

			for _, lg := range logs {
				kind, known := r.decoder.Kind(lg.Topic0())
				if !known {
					continue
				}
				counts[kind]++
				if lg.BlockNumber > observed {
					observed = lg.BlockNumber
				}

				switch kind {
				case bridge.KindPeginBTC:
					newPeginEvents = append(newPeginEvents, bridge.ParsePeginBTC(lg))
				case bridge.KindReleaseRequestReceived:
					rec := bridge.ParseReleaseRequestReceived(lg)
					if rec.BTCDestination != "" && !bridge.ValidBTCAddress(rec.BTCDestination) {
						r.logger.Warn("btc destination failed validation",
							zap.String("tx_hash", rec.TxHash),
							zap.String("destination", rec.BTCDestination))
					}
					newPegouts = append(newPegouts, rec)
				case bridge.KindPegoutConfirmed:
					newReleases = append(newReleases, bridge.ParsePegoutConfirmed(lg))
				case bridge.KindReleaseBTC:
					newReleases = append(newReleases, bridge.ParseReleaseBTC(lg))
				case bridge.KindBatchPegoutCreated:
					newReleases = append(newReleases, bridge.ParseBatchPegoutCreated(lg))
				}
			}
		}
	} else {
		r.logger.Info("no new blocks to scan", zap.Int64("start", start), zap.Int64("latest", latest))
	}
	for kind, n := range counts {
		r.logger.Info("event breakdown", zap.String("event", kind), zap.Int("count", n))
	}

	// Internal transfers out of the bridge are completed peg-in credits. They
	// arrive with timestamps attached, so only stragglers need enrichment.
	txs, err := r.explorer.InternalTransactions(ctx, r.cfg.Address, start)
	if err != nil {
		return fmt.Errorf("fetch internal transactions: %w", err)
	}
	newCredits := []model.BridgeCredit{}
	for _, tx := range txs {
		credit, ok := bridge.ClassifyInternalTx(tx, r.cfg.Address)
		if !ok {
			continue
		}
		if credit.BlockNumber > observed {
			observed = credit.BlockNumber
		}
		newCredits = append(newCredits, credit)
	}
	r.logger.Info("classified internal transactions",
		zap.Int("total", len(txs)),
		zap.Int("credits", len(newCredits)))

	credits, peginEvents, pegouts, releases := newCredits, newPeginEvents, newPegouts, newReleases
	if incremental {
		credits = Merge(storage.ReadList[model.BridgeCredit](r.store, PowPegPeginsFile), newCredits, creditKey)
		peginEvents = Merge(storage.ReadList[model.PeginBTC](r.store, PowPegPeginEventsFile), newPeginEvents, peginEventKey)
		pegouts = Merge(storage.ReadList[model.ReleaseRequested](r.store, PowPegPegoutsFile), newPegouts, pegoutKey)
		releases = Merge(storage.ReadList[model.ReleaseEvent](r.store, PowPegReleasesFile), newReleases, releaseKey)
	}

	// Enrich after merging so records persisted with an empty timestamp on an
	// earlier run get another lookup, not only this run's batch.
	blocks := MissingStamps(credits, stampBridgeCredit)
	blocks = append(blocks, MissingStamps(peginEvents, stampPeginBTC)...)
	blocks = append(blocks, MissingStamps(pegouts, stampReleaseRequested)...)
	blocks = append(blocks, MissingStamps(releases, stampReleaseEvent)...)
	if len(blocks) > 0 {
		stamps := ResolveTimestamps(ctx, r.explorer, blocks, r.logger)
		FillStamps(credits, stamps, stampBridgeCredit)
		FillStamps(peginEvents, stamps, stampPeginBTC)
		FillStamps(pegouts, stamps, stampReleaseRequested)
		FillStamps(releases, stamps, stampReleaseEvent)
	}

	if err := r.store.WriteJSON(PowPegPeginsFile, credits); err != nil {
		return fmt.Errorf("write pegins: %w", err)
	}
	if err := r.store.WriteJSON(PowPegPeginEventsFile, peginEvents); err != nil {
		return fmt.Errorf("write pegin events: %w", err)
	}
	if err := r.store.WriteJSON(PowPegPegoutsFile, pegouts); err != nil {
		return fmt.Errorf("write pegouts: %w", err)
	}
	if err := r.store.WriteJSON(PowPegReleasesFile, releases); err != nil {
		return fmt.Errorf("write releases: %w", err)
	}

	// The scan covered every block up to the chain tip, so the cursor can sit
	// at the tip even when the tip itself was quiet.
	lastBlock := latest
	if observed > lastBlock {
		lastBlock = observed
	}
	if incremental && cur.LastBlock > lastBlock {
		lastBlock = cur.LastBlock
	}
	if err := r.cursor.Save(lastBlock); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}

	r.logger.Info("saved powpeg datasets",
		zap.Int("pegins", len(credits)),
		zap.Int("pegin_events", len(peginEvents)),
		zap.Int("pegouts", len(pegouts)),
		zap.Int("releases", len(releases)),
		zap.Int64("cursor", lastBlock))
	r.metrics.DatasetSize(SourcePowPeg, "pegins", len(credits))
	r.metrics.DatasetSize(SourcePowPeg, "pegin_events", len(peginEvents))
	r.metrics.DatasetSize(SourcePowPeg, "pegouts", len(pegouts))
	r.metrics.DatasetSize(SourcePowPeg, "releases", len(releases))

	r.mirrorDatasets(ctx, credits, peginEvents, pegouts, releases, lastBlock)

	var peginVolume float64
	recipients := map[string]struct{}{}
	for _, c := range credits {
		peginVolume += c.ValueRBTC
		recipients[c.ToAddress] = struct{}{}
	}
	var pegoutVolume float64
	for _, p := range pegouts {
		pegoutVolume += p.AmountRBTC
	}
	r.logger.Info("powpeg summary",
		zap.Int("pegin_txs", len(credits)),
		zap.Float64("pegin_volume_rbtc", peginVolume),
		zap.Int("unique_recipients", len(recipients)),
		zap.Int("pegout_requests", len(pegouts)),
		zap.Float64("pegout_volume_rbtc", pegoutVolume))

	return nil
}

func (r *PowPegRunner) mirrorDatasets(ctx context.Context, credits []model.BridgeCredit, peginEvents []model.PeginBTC, pegouts []model.ReleaseRequested, releases []model.ReleaseEvent, lastBlock int64) {
	if r.mirror == nil {
		return
	}
	if err := mirrorRecords(ctx, r.mirror, SourcePowPeg, "pegins", credits, creditKey); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "pegins"), zap.Error(err))
	}
	if err := mirrorRecords(ctx, r.mirror, SourcePowPeg, "pegin_events", peginEvents, peginEventKey); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "pegin_events"), zap.Error(err))
	}
	if err := mirrorRecords(ctx, r.mirror, SourcePowPeg, "pegouts", pegouts, pegoutKey); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "pegouts"), zap.Error(err))
	}
	if err := mirrorRecords(ctx, r.mirror, SourcePowPeg, "releases", releases, releaseKey); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "releases"), zap.Error(err))
	}
	if err := r.mirror.SaveCursor(ctx, SourcePowPeg, lastBlock); err != nil {
		r.logger.Warn("postgres cursor mirror failed", zap.Error(err))
	}
}

func creditKey(r model.BridgeCredit) string { return r.TxHash }

func peginEventKey(r model.PeginBTC) string { return fmt.Sprintf("%s:%d", r.TxHash, r.LogIndex) }

func pegoutKey(r model.ReleaseRequested) string { return fmt.Sprintf("%s:%d", r.TxHash, r.LogIndex) }

func releaseKey(r model.ReleaseEvent) string { return fmt.Sprintf("%s:%d", r.TxHash, r.LogIndex) }

func stampBridgeCredit(r *model.BridgeCredit) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}

func stampPeginBTC(r *model.PeginBTC) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}

func stampReleaseRequested(r *model.ReleaseRequested) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}

func stampReleaseEvent(r *model.ReleaseEvent) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}
