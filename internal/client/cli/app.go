package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/config"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/possync/internal/client/repositories/sales"
	"github.com/dmitrijs2005/possync/internal/client/services"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// pointOfSale is what the commands need from services.PointOfSale.
type pointOfSale interface {
	EditionID() string
	IsOnline() bool
	ScanArticle(ctx context.Context, barcode string) (*models.CachedArticle, error)
	RegisterSale(ctx context.Context, a *models.CachedArticle, method models.PaymentMethod) (*models.SaleResult, error)
	ListDisplaySales(ctx context.Context) (*models.DisplaySales, error)
	PendingCount(ctx context.Context) (int, error)
	Pending(ctx context.Context) ([]*models.PendingSale, error)
	Conflicts(ctx context.Context) ([]*models.PendingSale, error)
	Acknowledge(ctx context.Context, id, note string) error
	Sync(ctx context.Context) (*models.SyncReport, error)
	Prefetch(ctx context.Context) (int, error)
	CatalogSize(ctx context.Context) (int, error)
	LastSyncCount(ctx context.Context) (int, error)
	LastSyncAt(ctx context.Context) (time.Time, error)
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

type App struct {
	config      *config.Config
	log         logging.Logger
	db          *sql.DB
	monitor     *services.Monitor
	link        *services.LinkWatcher
	coordinator *services.Coordinator
	pos         pointOfSale
	out         io.Writer
	in          io.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if c.EditionID == "" {
		return nil, fmt.Errorf("%w: pass -e or set edition_id", common.ErrNoEdition)
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api := client.NewHTTPClient(c.ServerURL, client.WithTimeouts(c.RequestTimeout, c.SyncTimeout))
	meta := metadata.NewSQLiteRepository(db)

	monitor := services.NewMonitor(api, log.With("module", "monitor"), c.ProbeInterval, c.ProbeTimeout)
	link := services.NewLinkWatcher(monitor, log.With("module", "link"), c.LinkInterval)
	cat := services.NewCatalogCache(api, db, meta, log.With("module", "catalog"))
	queue := services.NewOfflineQueue(sales.NewSQLiteRepository(db), log.With("module", "queue"))
	engine := services.NewSyncEngine(api, queue, meta, log.With("module", "sync"), c.SyncTimeout)
	coord := services.NewCoordinator(monitor, cat, queue, engine, c.EditionID, log.With("module", "coordinator"))
	pos := services.NewPointOfSale(api, monitor, cat, queue, engine, log.With("module", "pos"), services.PointOfSaleConfig{
		EditionID:      c.EditionID,
		RegisterNumber: c.RegisterNumber,
		RecentLimit:    c.RecentSalesLimit,
	})

	return &App{
		config:      c,
		log:         log,
		db:          db,
		monitor:     monitor,
		link:        link,
		coordinator: coord,
		pos:         pos,
		out:         os.Stdout,
		in:          os.Stdin,
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// Run starts the monitor, the link watcher and the coordinator and blocks in the REPL until the
// user exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.monitor.Run(gctx) })
	if a.link != nil {
		g.Go(func() error { return a.link.Run(gctx) })
	}
	g.Go(func() error { return a.coordinator.Run(gctx) })

	fmt.Fprintf(a.out, "Register %d, edition %s (type 'help' for commands)\n", a.config.RegisterNumber, a.config.EditionID)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(gctx, a, a.prompt, bufio.NewScanner(a.in))
	}()

	// a blocked read on stdin must not keep a cancelled register alive
	select {
	case <-done:
	case <-gctx.Done():
	}

	cancel()
	return g.Wait()
}

// prompt is empty when stdin is not a terminal so piped input produces clean
// output.
func (a *App) prompt() string {
	if f, ok := a.in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return ""
	}
	return fmt.Sprintf("pos %s> ", a.status(context.Background()))
}

func (a *App) status(ctx context.Context) string {
	mode := "offline"
	if a.pos.IsOnline() {
		mode = "online"
	}
	n, err := a.pos.PendingCount(ctx)
	if err != nil {
		return fmt.Sprintf("(%s)", mode)
	}
	return fmt.Sprintf("(%s, pending=%d)", mode, n)
}
