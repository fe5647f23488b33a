// Package wallet is the in-process mock wallet the composer executes against.
package wallet

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ggonzalez94/defi-composer/internal/delay"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
)

const (
	DefaultAddress = "0x742d35Cc6335C0532FCD3aa48F9b5a555156c96B"
	ConnectDelay   = 1500 * time.Millisecond
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

var defaultBalances = map[string]float64{
	"ETH":  5.24,
	"DAI":  1250,
	"USDC": 800,
	"WBTC": 0.05,
	"LINK": 100,
	"UNI":  150,
}

type Balance struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// Info is a read-only view of the wallet.
type Info struct {
	State        State     `json:"state"`
	Connected    bool      `json:"connected"`
	Address      string    `json:"address,omitempty"`
	ShortAddress string    `json:"short_address,omitempty"`
	ETHBalance   float64   `json:"eth_balance"`
	Balances     []Balance `json:"balances,omitempty"`
}

type Options struct {
	Address string
	Delayer delay.Delayer
	Logger  *slog.Logger
}

type Wallet struct {
	mu       sync.Mutex
	state    State
	address  string
	balances map[string]float64
	delayer  delay.Delayer
	log      *slog.Logger
}

func New(opts Options) (*Wallet, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		address = DefaultAddress
	}
	if !common.IsHexAddress(address) {
		return nil, clierr.New(clierr.CodeUsage, "wallet address must be a valid EVM address")
	}
	if opts.Delayer == nil {
		opts.Delayer = delay.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Wallet{
		state:   StateDisconnected,
		address: address,
		delayer: opts.Delayer,
		log:     opts.Logger.With("component", "wallet"),
	}, nil
}

// Connect waits out the simulated handshake and marks the wallet connected.
// It is a no-op when already connected and is refused while another connect
// is in flight. Once started the handshake is not cancellable.
func (w *Wallet) Connect(ctx context.Context) (Info, error) {
	w.mu.Lock()
	switch w.state {
	case StateConnected:
		info := w.infoLocked()
		w.mu.Unlock()
		return info, nil
	case StateConnecting:
		w.mu.Unlock()
		return Info{}, clierr.New(clierr.CodeBusy, "wallet connection already in progress")
	}
	w.state = StateConnecting
	w.mu.Unlock()

	w.log.Info("connecting wallet")
	if err := w.delayer.Delay(context.WithoutCancel(ctx), ConnectDelay); err != nil {
		w.mu.Lock()
		w.state = StateDisconnected
		w.mu.Unlock()
		return Info{}, clierr.Wrap(clierr.CodeInternal, "wallet connect", err)
	}

	w.mu.Lock()
	w.state = StateConnected
	w.balances = make(map[string]float64, len(defaultBalances))
	for symbol, amount := range defaultBalances {
		w.balances[symbol] = amount
	}
	info := w.infoLocked()
	w.mu.Unlock()
	w.log.Info("wallet_connected", "address", info.Address, "eth_balance", info.ETHBalance)
	return info, nil
}

func (w *Wallet) Disconnect() Info {
	w.mu.Lock()
	if w.state != StateConnected {
		info := w.infoLocked()
		w.mu.Unlock()
		return info
	}
	w.state = StateDisconnected
	w.balances = nil
	info := w.infoLocked()
	w.mu.Unlock()
	w.log.Info("wallet_disconnected")
	return info
}

func (w *Wallet) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StateConnected
}

// Address returns the wallet address when connected, empty otherwise.
func (w *Wallet) Address() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateConnected {
		return ""
	}
	return w.address
}

func (w *Wallet) Info() Info {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.infoLocked()
}

func (w *Wallet) infoLocked() Info {
	info := Info{State: w.state, Connected: w.state == StateConnected}
	if !info.Connected {
		return info
	}
	info.Address = w.address
	info.ShortAddress = ShortAddress(w.address)
	info.ETHBalance = w.balances["ETH"]
	for symbol, amount := range w.balances {
		info.Balances = append(info.Balances, Balance{Symbol: symbol, Amount: amount})
	}
	sort.Slice(info.Balances, func(i, j int) bool { return info.Balances[i].Symbol < info.Balances[j].Symbol })
	return info
}

// ShortAddress renders 0x742d...c96B style abbreviations.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
