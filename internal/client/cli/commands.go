package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/possync/internal/client/client"
	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
)

const timeLayout = "2006-01-02 15:04:05"

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

// describe turns an error into the line shown to the cashier.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrArticleNotFoundOffline):
		return "article not found in the offline catalog; it cannot be verified until the register is back online"
	case errors.Is(err, common.ErrArticleNotFound):
		return "article not found"
	case errors.Is(err, common.ErrArticleAlreadySold):
		return "article already sold"
	case errors.Is(err, common.ErrSyncInFlight):
		return "a sync is already running"
	case errors.Is(err, client.ErrUnavailable):
		return "server unreachable"
	}
	return err.Error()
}

func (a *App) Scan(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("scan <barcode>")
	}
	art, err := a.pos.ScanArticle(ctx, args[0])
	if err != nil {
		return err
	}
	a.printArticle(art)
	return nil
}

func (a *App) Sell(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("sell <barcode> <cash|card|check>")
	}
	method, err := models.ParsePaymentMethod(args[1])
	if err != nil {
		return err
	}
	art, err := a.pos.ScanArticle(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := a.pos.RegisterSale(ctx, art, method)
	if err != nil {
		return err
	}

	if res.IsOffline {
		fmt.Fprintf(a.out, "Sold %s for %s (%s), queued offline as %s\n", res.ArticleDescription, res.Price.StringFixed(2), res.PaymentMethod, res.ID)
		return nil
	}
	fmt.Fprintf(a.out, "Sold %s for %s (%s), sale %s\n", res.ArticleDescription, res.Price.StringFixed(2), res.PaymentMethod, res.ID)
	return nil
}

func (a *App) Sales(ctx context.Context) error {
	view, err := a.pos.ListDisplaySales(ctx)
	if err != nil {
		return err
	}
	if len(view.Sales) == 0 {
		fmt.Fprintln(a.out, "No sales yet")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tARTICLE\tPRICE\tPAYMENT\tSTATUS")
	for _, s := range view.Sales {
		status := string(s.Status)
		if s.Offline {
			status += " (offline)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.SoldAt.Local().Format(timeLayout), s.ArticleDescription, s.Price.StringFixed(2), s.PaymentMethod, status)
	}
	fmt.Fprintf(w, "\tTOTAL\t%s\t\t\n", view.Total.StringFixed(2))
	return w.Flush()
}

func (a *App) Pending(ctx context.Context) error {
	list, err := a.pos.Pending(ctx)
	if err != nil {
		return err
	}
	return a.printRecords(list, "No pending sales")
}

func (a *App) Conflicts(ctx context.Context) error {
	list, err := a.pos.Conflicts(ctx)
	if err != nil {
		return err
	}
	return a.printRecords(list, "No open conflicts")
}

func (a *App) Ack(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("ack <id> [note...]")
	}
	if err := a.pos.Acknowledge(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Acknowledged", args[0])
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	r, err := a.pos.Sync(ctx)
	if err != nil {
		return err
	}
	if r.Submitted == 0 {
		fmt.Fprintln(a.out, "Nothing to sync")
		return nil
	}
	fmt.Fprintf(a.out, "Synced %d, conflicts %d, errors %d (of %d)\n", r.Synced, r.Conflicts, r.Errors, r.Submitted)
	return nil
}

func (a *App) Prefetch(ctx context.Context) error {
	n, err := a.pos.Prefetch(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Catalog refreshed, %d articles\n", n)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	fmt.Fprintf(a.out, "Edition:    %s\n", a.pos.EditionID())
	fmt.Fprintf(a.out, "Connection: %s\n", a.status(ctx))

	if n, err := a.pos.CatalogSize(ctx); err == nil {
		fmt.Fprintf(a.out, "Catalog:    %d articles\n", n)
	}
	last, err := a.pos.LastSyncCount(ctx)
	if err != nil {
		return err
	}
	at, err := a.pos.LastSyncAt(ctx)
	if err != nil {
		return err
	}
	if at.IsZero() {
		fmt.Fprintln(a.out, "Last sync:  never")
		return nil
	}
	fmt.Fprintf(a.out, "Last sync:  %s, %d synced\n", at.Local().Format(timeLayout), last)
	return nil
}

func (a *App) Purge(ctx context.Context) error {
	n, err := a.pos.Purge(ctx, a.config.RetentionPeriod)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Purged %d resolved records\n", n)
	return nil
}

func (a *App) printArticle(art *models.CachedArticle) {
	fmt.Fprintf(a.out, "%s  %s  %s\n", art.Barcode, art.Description, art.Price.StringFixed(2))
	details := []string{}
	for _, v := range []string{art.Brand, art.Size, art.Category} {
		if v != "" {
			details = append(details, v)
		}
	}
	if art.IsLot {
		details = append(details, fmt.Sprintf("lot of %d", art.LotQuantity))
	}
	if len(details) > 0 {
		fmt.Fprintln(a.out, "  "+strings.Join(details, ", "))
	}
}

func (a *App) printRecords(list []*models.PendingSale, empty string) error {
	if len(list) == 0 {
		fmt.Fprintln(a.out, empty)
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tARTICLE\tPRICE\tSTATUS\tMESSAGE")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.SoldAt.Local().Format(timeLayout), s.ArticleDescription,
			s.Price.StringFixed(2), s.Status, s.ErrorMessage)
	}
	return w.Flush()
}
