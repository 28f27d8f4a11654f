package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/DRIVN-COOK/front-office/internal/api"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/pricing"
)

func (a *app) menu(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 20, "items per page")
	all := fs.Bool("all", false, "include inactive items")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	params := api.ListMenuParams{Page: *page, PageSize: *size}
	if !*all {
		active := true
		params.Active = &active
	}
	items, err := a.client.ListMenuItems(ctx, params)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE TTC\tAVAILABLE")
	for _, it := range items.Items {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%t\n", it.ID, it.Name, pricing.RoundMoney(pricing.PriceTTC(it)), it.Available())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d, %d of %d items\n", items.Page, len(items.Items), items.Total)
	return nil
}

func (a *app) cart(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
	case "add":
		if len(args) < 2 || len(args) > 3 {
			return errUsage
		}
		qty := 1
		if len(args) == 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return errUsage
			}
			qty = n
		}
		item, err := a.client.GetMenuItem(ctx, args[1])
		if err != nil {
			return err
		}
		if err := a.store.Add(ctx, *item, qty); err != nil {
			return err
		}
	case "remove":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.store.Remove(ctx, args[1]); err != nil {
			return err
		}
	case "qty":
		if len(args) != 3 {
			return errUsage
		}
		n, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return errUsage
		}
		if err := a.store.SetQty(ctx, args[1], n); err != nil {
			return err
		}
	case "clear":
		if err := a.store.Clear(ctx); err != nil {
			return err
		}
	default:
		return errUsage
	}

	return printCart(out, a.store.Lines())
}

func printCart(out io.Writer, lines []domain.CartLine) error {
	if len(lines) == 0 {
		_, err := fmt.Fprintln(out, "Your cart is empty.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tUNIT TTC\tLINE TTC")
	for _, l := range lines {
		lt := pricing.Line(l)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\n", l.Item.ID, l.Item.Name, l.Qty,
			pricing.RoundMoney(pricing.PriceTTC(l.Item)), pricing.RoundMoney(lt.LineTTC))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t := pricing.Cart(lines)
	_, err := fmt.Fprintf(out, "%d items  HT %.2f  TVA %.2f  TTC %.2f\n", pricing.ItemCount(lines),
		pricing.RoundMoney(t.LineHT), pricing.RoundMoney(t.LineTVA), pricing.RoundMoney(t.LineTTC))
	return err
}

type scopeFlags struct {
	franchisee *string
	truck      *string
	warehouse  *string
}

func (a *app) addScopeFlags(fs *flag.FlagSet) scopeFlags {
	return scopeFlags{
		franchisee: fs.String("franchisee", a.cfg.FranchiseeID, "franchisee to order from"),
		truck:      fs.String("truck", a.cfg.TruckID, "truck to pick up from"),
		warehouse:  fs.String("warehouse", a.cfg.WarehouseID, "warehouse to pick up from"),
	}
}

// applyScope rewires ordering when the flags select another outlet.
func (a *app) applyScope(s scopeFlags) {
	if *s.franchisee == a.cfg.FranchiseeID && *s.truck == a.cfg.TruckID && *s.warehouse == a.cfg.WarehouseID {
		return
	}
	a.cfg.FranchiseeID = *s.franchisee
	a.cfg.TruckID = *s.truck
	a.cfg.WarehouseID = *s.warehouse
	a.wireOrdering()
}

// order places the cart to be paid at pickup.
func (a *app) order(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	scope := a.addScopeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a.applyScope(scope)

	orderID, err := a.submitter.Submit(ctx, a.store.Lines())
	if err != nil {
		return err
	}
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("order %s placed but the cart could not be cleared: %w", orderID, err)
	}
	_, err = fmt.Fprintf(out, "Order %s placed. Pay at pickup.\n", orderID)
	return err
}

func (a *app) orders(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	status := fs.String("status", "", "filter by status")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 20, "orders per page")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *status != "" && !domain.OrderStatus(*status).Valid() {
		return fmt.Errorf("unknown order status %q", *status)
	}

	orders, err := a.client.ListMyOrders(ctx, api.ListOrdersParams{
		Status:   domain.OrderStatus(*status),
		Page:     *page,
		PageSize: *size,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTOTAL TTC\tPLACED")
	for _, o := range orders.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.Status, o.TotalTTC, o.PlacedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (a *app) show(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	order, err := a.client.GetOrder(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Order %s  %s  placed %s\n", order.ID, order.Status, order.PlacedAt.Format("2006-01-02 15:04"))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tQTY\tUNIT HT\tTVA %\tLINE HT")
	for _, l := range order.Lines {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", l.MenuItemID, l.Qty, l.UnitPriceHT, l.TvaPct, l.LineTotalHT)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "HT %s  TVA %s  TTC %s\n", order.TotalHT, order.TotalTVA, order.TotalTTC)
	if order.Invoice != nil && order.Invoice.PdfURL != nil {
		fmt.Fprintf(out, "Invoice: %s\n", *order.Invoice.PdfURL)
	}
	return nil
}
