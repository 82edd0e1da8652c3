// Command creatorledgerdemo is a thin wiring example, not a product:
// it mints a creator, appends a few events, exports a proof bundle,
// and verifies it — exercising every core package from one real
// caller outside its own tests.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorledger/core/bundle"
	"github.com/creatorledger/core/ledger"
	"github.com/creatorledger/core/ledgererr"
	"github.com/creatorledger/core/vault"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "creatorledgerdemo:", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig("creatorledgerdemo.yaml")
	if err != nil {
		return err
	}

	runID := uuid.New()
	logger.Info("starting demo run", zap.String("run_id", runID.String()))

	v, err := vault.New(vault.Variant(cfg.VaultVariant), vault.Options{Logger: logger})
	if err != nil {
		return err
	}

	ctx := context.Background()
	engine, err := ledger.Open(ctx, "file:"+cfg.DatabasePath, v, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	creator, err := engine.GetCreator(ctx, cfg.CreatorID)
	if err != nil {
		if !ledgererr.Is(err, ledgererr.UnknownCreator) {
			return err
		}
		logger.Info("minting new creator", zap.String("creator_id", cfg.CreatorID))
		creator, err = engine.MintCreator(ctx, cfg.CreatorID, cfg.DisplayName)
		if err != nil {
			return err
		}
	}

	kinds := []string{"registration", "transfer", "revocation"}
	for _, kind := range kinds {
		evt, err := engine.Append(ctx, creator.CreatorID, kind,
			[]byte(fmt.Sprintf("run=%s kind=%s", runID, kind)), time.Now().Unix())
		if err != nil {
			return err
		}
		logger.Info("appended event",
			zap.Uint64("seq", evt.Seq), zap.String("kind", evt.Kind))
	}

	ok, badSeq, err := engine.VerifyChain(ctx, creator.CreatorID)
	if err != nil {
		return err
	}
	logger.Info("chain integrity check", zap.Bool("ok", ok), zap.Uint64("bad_seq", badSeq))

	events, err := engine.ListEvents(ctx, creator.CreatorID, 1, 0)
	if err != nil {
		return err
	}
	b := bundle.FromLedgerEvents(creator.CreatorID, creator.DisplayName, creator.PublicKey, events)
	data, err := bundle.Marshal(b)
	if err != nil {
		return err
	}

	outcome := bundle.Verify(data)
	logger.Info("bundle verification",
		zap.Bool("ok", outcome.OK()), zap.String("kind", string(outcome.Kind)), zap.Uint64("seq", outcome.Seq))

	fmt.Println(string(data))
	return nil
}
