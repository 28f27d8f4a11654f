package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DRIVN-COOK/front-office/internal/cart"
	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/pricing"
)

type cartMsg []domain.CartLine

type errMsg struct{ err error }

type cartModel struct {
	ctx      context.Context
	store    *cart.Store
	updates  <-chan []domain.CartLine
	lines    []domain.CartLine
	selected int
	status   string
}

func newCartModel(ctx context.Context, store *cart.Store, updates <-chan []domain.CartLine) cartModel {
	return cartModel{
		ctx:     ctx,
		store:   store,
		updates: updates,
		lines:   store.Lines(),
		status:  "Watching cart",
	}
}

func waitForCart(updates <-chan []domain.CartLine) tea.Cmd {
	return func() tea.Msg {
		lines, ok := <-updates
		if !ok {
			return nil
		}
		return cartMsg(lines)
	}
}

func (m cartModel) mutate(op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := op(m.ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m cartModel) Init() tea.Cmd {
	return waitForCart(m.updates)
}

func (m cartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up":
			if m.selected > 0 {
				m.selected--
			}
		case "down":
			if m.selected < len(m.lines)-1 {
				m.selected++
			}
		case "+", "=":
			if l, ok := m.current(); ok {
				return m, m.mutate(func(ctx context.Context) error {
					return m.store.SetQty(ctx, l.Item.ID, float64(l.Qty+1))
				})
			}
		case "-":
			if l, ok := m.current(); ok {
				return m, m.mutate(func(ctx context.Context) error {
					return m.store.SetQty(ctx, l.Item.ID, float64(l.Qty-1))
				})
			}
		case "d":
			if l, ok := m.current(); ok {
				return m, m.mutate(func(ctx context.Context) error {
					return m.store.Remove(ctx, l.Item.ID)
				})
			}
		case "c":
			return m, m.mutate(m.store.Clear)
		}
	case cartMsg:
		m.lines = msg
		if m.selected >= len(m.lines) {
			m.selected = max(len(m.lines)-1, 0)
		}
		m.status = "Watching cart"
		return m, waitForCart(m.updates)
	case errMsg:
		m.status = "Error: " + msg.err.Error()
	}
	return m, nil
}

func (m cartModel) current() (domain.CartLine, bool) {
	if m.selected < 0 || m.selected >= len(m.lines) {
		return domain.CartLine{}, false
	}
	return m.lines[m.selected], true
}

func (m cartModel) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "Cart")
	fmt.Fprintln(b, "")
	if len(m.lines) == 0 {
		fmt.Fprintln(b, "  (empty)")
	}
	for i, l := range m.lines {
		marker := " "
		if i == m.selected {
			marker = ">"
		}
		fmt.Fprintf(b, " %s %-24s x%-3d %8.2f\n", marker, l.Item.Name, l.Qty, pricing.RoundMoney(pricing.Line(l).LineTTC))
	}
	t := pricing.Cart(m.lines)
	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Items: %d  HT %.2f  TVA %.2f  TTC %.2f\n", pricing.ItemCount(m.lines),
		pricing.RoundMoney(t.LineHT), pricing.RoundMoney(t.LineTVA), pricing.RoundMoney(t.LineTTC))
	fmt.Fprintf(b, "Status: %s\n", m.status)
	fmt.Fprintln(b, "\nControls: up/down select, +/- quantity, d remove, c clear, q quit")
	return b.String()
}

// watch shows the cart live, including changes made by other processes
// sharing the same storage.
func (a *app) watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := a.store.Run(ctx); err != nil {
			a.log.Warn("cart watch stopped", logger.Err(err))
		}
	}()

	updates, stop := a.store.Subscribe()
	defer stop()

	p := tea.NewProgram(newCartModel(ctx, a.store, updates), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
