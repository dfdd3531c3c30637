// Package tui is the terminal rendition of the gm page.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/h15s/gmtea/pkg/logger"
	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/sender"
	"github.com/h15s/gmtea/stats"
)

const title = "gm tea sepolia"

// GMSender sends one gm() transaction
type GMSender interface {
	HasWallet() bool
	Address() common.Address
	Send(ctx context.Context, report func(sender.Status)) sender.Status
}

// Refresher asks the tracker for an early sync
type Refresher interface {
	Refresh()
}

// Model is the bubbletea model of the page
type Model struct {
	ctx       context.Context
	sender    GMSender
	refresher Refresher
	net       network.Network

	spinner    spinner.Model
	snapshot   *stats.Snapshot
	status     *sender.Status
	syncErr    error
	sending    bool
	refreshing bool
}

// New creates the model. Sends run under ctx.
func New(ctx context.Context, s GMSender, r Refresher, net network.Network) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return Model{
		ctx:       ctx,
		sender:    s,
		refresher: r,
		net:       net,
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.quit):
			return m, tea.Quit
		case key.Matches(msg, keys.send):
			if m.sending {
				return m, nil
			}
			m.sending = true
			m.status = nil
			return m, tea.Batch(m.spinner.Tick, m.cmdSend())
		case key.Matches(msg, keys.refresh):
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, tea.Batch(m.spinner.Tick, m.cmdRefresh())
		}
		return m, nil

	case StatsMsg:
		snap := msg.Snapshot
		m.snapshot = &snap
		m.syncErr = nil
		m.refreshing = false
		return m, nil

	case SyncErrorMsg:
		m.syncErr = msg.Err
		m.refreshing = false
		return m, nil

	case statusMsg:
		status := msg.status
		m.status = &status
		if status.Stage.Final() {
			m.sending = false
			return m, nil
		}
		return m, waitForStatus(msg.next)

	case refreshRequestedMsg:
		return m, nil

	case spinner.TickMsg:
		if !m.sending && !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// cmdSend starts a send and waits for its first update
func (m Model) cmdSend() tea.Cmd {
	return func() tea.Msg {
		// a send reports at most the sent stage and the final one
		updates := make(chan sender.Status, 2)
		go func() {
			defer close(updates)
			m.sender.Send(m.ctx, func(s sender.Status) { updates <- s })
		}()
		return waitForStatus(updates)()
	}
}

func waitForStatus(updates <-chan sender.Status) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-updates
		if !ok {
			return nil
		}
		return statusMsg{status: status, next: updates}
	}
}

func (m Model) cmdRefresh() tea.Cmd {
	return func() tea.Msg {
		m.refresher.Refresh()
		return refreshRequestedMsg{}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("Chain ID: %d (%s)", m.net.ChainID, m.net.Name)))
	b.WriteString("\n\n")

	b.WriteString(m.viewCounters())
	b.WriteString("\n")

	b.WriteString(m.viewSync())
	b.WriteString("\n")
	b.WriteString("Contract: ")
	b.WriteString(m.net.AddressURL(m.net.Contract))
	b.WriteString("\n")
	if m.sender.HasWallet() {
		b.WriteString("Wallet:   ")
		b.WriteString(m.sender.Address().Hex())
	} else {
		b.WriteString(helpStyle.Render("no wallet, set GM_PRIVATE_KEY to send"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewStatus())
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render(helpLine()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Built by H15S"))

	return appStyle.Render(b.String())
}

func (m Model) viewCounters() string {
	total, unique, daily := "-", "-", "-"
	if m.snapshot != nil {
		total = fmt.Sprint(m.snapshot.Counts.TotalTx)
		unique = fmt.Sprint(m.snapshot.Counts.UniqueUsers)
		daily = fmt.Sprint(m.snapshot.Counts.DailyUsers)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		counterStyle.Render(valueStyle.Render(total)+"\nTotal TX (onchain)"),
		counterStyle.Render(valueStyle.Render(daily)+"\nUnique Users Today"),
		counterStyle.Render(valueStyle.Render(unique)+"\nUnique Users All Time"),
	)
}

func (m Model) viewSync() string {
	var line string
	switch {
	case m.snapshot != nil:
		line = fmt.Sprintf("blocks %d..%d via %s at %s",
			m.snapshot.FromBlock, m.snapshot.ToBlock, m.snapshot.Endpoint,
			m.snapshot.TakenAt.Format(logger.BritishTimeFormat))
	default:
		line = "waiting for the first sync"
	}
	if m.refreshing {
		line = m.spinner.View() + " " + line
	}
	if m.syncErr != nil {
		line += "\n" + errorStyle.Render("sync failed: "+m.syncErr.Error())
	}
	return helpStyle.Render(line)
}

func (m Model) viewStatus() string {
	if m.status == nil {
		if m.sending {
			return m.spinner.View() + " sending gm..."
		}
		return ""
	}

	line := m.status.String()
	if m.sending {
		line = m.spinner.View() + " " + line
	}
	if m.status.Stage == sender.StageFailed {
		return errorStyle.Render(line)
	}
	return line
}

func helpLine() string {
	parts := make([]string, 0, 3)
	for _, b := range []key.Binding{keys.send, keys.refresh, keys.quit} {
		parts = append(parts, b.Help().Key+": "+b.Help().Desc)
	}
	return strings.Join(parts, " • ")
}
