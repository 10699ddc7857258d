package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bridgeScope/internal/bridge"
	"bridgeScope/internal/metrics"
	"bridgeScope/internal/model"
	"bridgeScope/internal/storage"
	"bridgeScope/internal/storage/postgres"
)

// SourceFlyover labels the Flyover collector in cursors, metrics and the
// Postgres mirror.
const SourceFlyover = "flyover"

// Flyover dataset and cursor files.
const (
	FlyoverPeginsFile    = "flyover_pegins.json"
	FlyoverPegoutsFile   = "flyover_pegouts.json"
	FlyoverPenaltiesFile = "flyover_penalties.json"
	FlyoverRefundsFile   = "flyover_refunds.json"
	FlyoverLPInfoFile    = "flyover_lp_info.json"
	FlyoverCursorFile    = ".cursor_flyover.json"
)

// LogSource is the slice of the explorer client the Flyover collector needs.
type LogSource interface {
	Logs(ctx context.Context, address string, minBlock int64) ([]model.RawLog, error)
	BlockTimestamper
}

// JSONGetter fetches a URL and decodes its JSON response.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error
}

// FlyoverConfig holds runtime settings for the Flyover collector.
type FlyoverConfig struct {
	Address     string
	MinBlock    int64
	ReorgBuffer int64
	Full        bool

	LPName       string
	LPRBTCWallet string
	LPBTCWallet  string
	LPStatusURL  string
}

// FlyoverRunner collects Liquidity Bridge Contract events into the Flyover
// datasets.
type FlyoverRunner struct {
	cfg     FlyoverConfig
	source  LogSource
	getter  JSONGetter
	store   *storage.Store
	cursor  CursorStore
	mirror  *postgres.Store
	decoder *bridge.Decoder
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewFlyoverRunner builds a FlyoverRunner with its dependencies. The mirror
// and metrics may be nil.
func NewFlyoverRunner(cfg FlyoverConfig, source LogSource, getter JSONGetter, store *storage.Store, cursor CursorStore, mirror *postgres.Store, m *metrics.Metrics, logger *zap.Logger) *FlyoverRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlyoverRunner{
		cfg:     cfg,
		source:  source,
		getter:  getter,
		store:   store,
		cursor:  cursor,
		mirror:  mirror,
		decoder: bridge.NewDecoder(bridge.FlyoverEvents()),
		metrics: m,
		logger:  logger,
	}
}

// Run executes one Flyover collection pass.
func (r *FlyoverRunner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("log source is nil")
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

	logs, err := r.source.Logs(ctx, r.cfg.Address, start)
	if err != nil {
		return fmt.Errorf("fetch lbc logs: %w", err)
	}
	r.logger.Info("fetched lbc logs", zap.Int("count", len(logs)))

	newPegins := []model.CallForUser{}
	newPegouts := []model.PegOutDeposit{}
	newPenalties := []model.Penalized{}
	newRefunds := []model.PegOutUserRefunded{}
	counts := map[string]int{}
	maxBlock := start

	for _, lg := range logs {
		kind, known := r.decoder.Kind(lg.Topic0())
		if !known {
			continue
		}
		counts[kind]++
		if lg.BlockNumber > maxBlock {
			maxBlock = lg.BlockNumber
		}

		switch kind {
		case bridge.KindCallForUser:
			newPegins = append(newPegins, bridge.ParseCallForUser(lg))
		case bridge.KindPegOutDeposit:
			newPegouts = append(newPegouts, bridge.ParsePegOutDeposit(lg))
		case bridge.KindPenalized:
			newPenalties = append(newPenalties, bridge.ParsePenalized(lg))
		case bridge.KindPegOutUserRefunded:
			newRefunds = append(newRefunds, bridge.ParsePegOutUserRefunded(lg))
		default:
			// PegInRegistered and PegOutRefunded advance the cursor but are
			// not persisted.
		}
	}
	for kind, n := range counts {
		r.logger.Info("event breakdown", zap.String("event", kind), zap.Int("count", n))
	}

	pegins, pegouts, penalties, refunds := newPegins, newPegouts, newPenalties, newRefunds
	if incremental {
		pegins = Merge(storage.ReadList[model.CallForUser](r.store, FlyoverPeginsFile), newPegins, txHashKeyCallForUser)
		pegouts = Merge(storage.ReadList[model.PegOutDeposit](r.store, FlyoverPegoutsFile), newPegouts, txHashKeyPegOutDeposit)
		penalties = Merge(storage.ReadList[model.Penalized](r.store, FlyoverPenaltiesFile), newPenalties, txHashKeyPenalized)
		refunds = Merge(storage.ReadList[model.PegOutUserRefunded](r.store, FlyoverRefundsFile), newRefunds, txHashKeyPegOutUserRefunded)
	}

	// Enrich after merging so records persisted with an empty timestamp on an
	// earlier run get another lookup, not only this run's batch.
	blocks := MissingStamps(pegins, stampCallForUser)
	blocks = append(blocks, MissingStamps(pegouts, stampPegOutDeposit)...)
	blocks = append(blocks, MissingStamps(penalties, stampPenalized)...)
	blocks = append(blocks, MissingStamps(refunds, stampPegOutUserRefunded)...)
	if len(blocks) > 0 {
		stamps := ResolveTimestamps(ctx, r.source, blocks, r.logger)
		FillStamps(pegins, stamps, stampCallForUser)
		FillStamps(pegouts, stamps, stampPegOutDeposit)
		FillStamps(penalties, stamps, stampPenalized)
		FillStamps(refunds, stamps, stampPegOutUserRefunded)
	}

	if err := r.store.WriteJSON(FlyoverPeginsFile, pegins); err != nil {
		return fmt.Errorf("write pegins: %w", err)
	}
	if err := r.store.WriteJSON(FlyoverPegoutsFile, pegouts); err != nil {
		return fmt.Errorf("write pegouts: %w", err)
	}
	if err := r.store.WriteJSON(FlyoverPenaltiesFile, penalties); err != nil {
		return fmt.Errorf("write penalties: %w", err)
	}
	if err := r.store.WriteJSON(FlyoverRefundsFile, refunds); err != nil {
		return fmt.Errorf("write refunds: %w", err)
	}

	// The cursor never moves backwards on an incremental run: a quiet window
	// would otherwise drag it down by the reorg buffer every pass.
	if incremental && cur.LastBlock > maxBlock {
		maxBlock = cur.LastBlock
	}
	if err := r.cursor.Save(maxBlock); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}

	r.logger.Info("saved flyover datasets",
		zap.Int("pegins", len(pegins)),
		zap.Int("pegouts", len(pegouts)),
		zap.Int("penalties", len(penalties)),
		zap.Int("refunds", len(refunds)),
		zap.Int64("cursor", maxBlock))
	r.metrics.DatasetSize(SourceFlyover, "pegins", len(pegins))
	r.metrics.DatasetSize(SourceFlyover, "pegouts", len(pegouts))
	r.metrics.DatasetSize(SourceFlyover, "penalties", len(penalties))
	r.metrics.DatasetSize(SourceFlyover, "refunds", len(refunds))

	r.mirrorDatasets(ctx, pegins, pegouts, penalties, refunds, maxBlock)

	if err := r.snapshotLiquidity(ctx); err != nil {
		return err
	}

	var peginVolume, pegoutVolume float64
	for _, e := range pegins {
		if e.Event == bridge.KindCallForUser {
			peginVolume += e.ValueRBTC
		}
	}
	for _, e := range pegouts {
		if e.Event == bridge.KindPegOutDeposit {
			pegoutVolume += e.AmountRBTC
		}
	}
	r.logger.Info("flyover summary",
		zap.Int("pegin_txs", len(pegins)),
		zap.Float64("pegin_volume_rbtc", peginVolume),
		zap.Int("pegout_txs", len(pegouts)),
		zap.Float64("pegout_volume_rbtc", pegoutVolume),
		zap.Int("penalties", len(penalties)),
		zap.Int("user_refunds", len(refunds)))

	return nil
}

func (r *FlyoverRunner) mirrorDatasets(ctx context.Context, pegins []model.CallForUser, pegouts []model.PegOutDeposit, penalties []model.Penalized, refunds []model.PegOutUserRefunded, lastBlock int64) {
	if r.mirror == nil {
		return
	}
	if err := mirrorRecords(ctx, r.mirror, SourceFlyover, "pegins", pegins, txHashKeyCallForUser); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "pegins"), zap.Error(err))
	}
	if err := mirrorRecords(ctx, r.mirror, SourceFlyover, "pegouts", pegouts, txHashKeyPegOutDeposit); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "pegouts"), zap.Error(err))
	}
	if err := mirrorRecords(ctx, r.mirror, SourceFlyover, "penalties", penalties, txHashKeyPenalized); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "penalties"), zap.Error(err))
	}
	if err := mirrorRecords(ctx, r.mirror, SourceFlyover, "refunds", refunds, txHashKeyPegOutUserRefunded); err != nil {
		r.logger.Warn("postgres mirror failed", zap.String("dataset", "refunds"), zap.Error(err))
	}
	if err := r.mirror.SaveCursor(ctx, SourceFlyover, lastBlock); err != nil {
		r.logger.Warn("postgres cursor mirror failed", zap.Error(err))
	}
}

// snapshotLiquidity captures the liquidity provider's live balances. A fetch
// failure degrades to an empty snapshot; only a failed write fails the run.
func (r *FlyoverRunner) snapshotLiquidity(ctx context.Context) error {
	if r.cfg.LPStatusURL == "" || r.getter == nil {
		return nil
	}

	var payload struct {
		PeginLiquidityAmount  json.RawMessage `json:"peginLiquidityAmount"`
		PegoutLiquidityAmount json.RawMessage `json:"pegoutLiquidityAmount"`
	}
	if err := r.getter.GetJSON(ctx, r.cfg.LPStatusURL, nil, &payload); err != nil {
		r.logger.Warn("lp liquidity fetch failed", zap.String("lp", r.cfg.LPName), zap.Error(err))
		if err := r.store.WriteJSON(FlyoverLPInfoFile, struct{}{}); err != nil {
			return fmt.Errorf("write lp info: %w", err)
		}
		return nil
	}

	peginWei := weiAmount(payload.PeginLiquidityAmount)
	pegoutWei := weiAmount(payload.PegoutLiquidityAmount)
	info := model.LPLiquidity{
		LPName:             r.cfg.LPName,
		RBTCWallet:         r.cfg.LPRBTCWallet,
		BTCWallet:          r.cfg.LPBTCWallet,
		PeginLiquidityWei:  peginWei.String(),
		PeginRBTC:          bridge.RBTCFromWei(peginWei),
		PegoutLiquidityWei: pegoutWei.String(),
		PegoutBTC:          bridge.RBTCFromWei(pegoutWei),
		FetchedAt:          time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.store.WriteJSON(FlyoverLPInfoFile, info); err != nil {
		return fmt.Errorf("write lp info: %w", err)
	}
	r.logger.Info("saved lp liquidity",
		zap.String("lp", info.LPName),
		zap.Float64("pegin_rbtc", info.PeginRBTC),
		zap.Float64("pegout_btc", info.PegoutBTC))
	return nil
}

// weiAmount parses a wei quantity that providers report either as a JSON
// number or a decimal string. Anything unparseable counts as zero.
func weiAmount(raw json.RawMessage) *big.Int {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

func txHashKeyCallForUser(r model.CallForUser) string { return r.TxHash }

func txHashKeyPegOutDeposit(r model.PegOutDeposit) string { return r.TxHash }

func txHashKeyPenalized(r model.Penalized) string { return r.TxHash }

func txHashKeyPegOutUserRefunded(r model.PegOutUserRefunded) string { return r.TxHash }

func stampCallForUser(r *model.CallForUser) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}

func stampPegOutDeposit(r *model.PegOutDeposit) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}

func stampPenalized(r *model.Penalized) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}

func stampPegOutUserRefunded(r *model.PegOutUserRefunded) (*string, int64) {
	return &r.BlockTimestamp, r.BlockNumber
}
