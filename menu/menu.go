// Package menu implements the interactive console loop of the laboratory.
// It reads choices from an injected reader and writes to an injected writer,
// so the whole state machine can be driven from tests. All wallet state lives
// in a wallet.Session passed through the action handlers.
package menu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fatih/color"

	"github.com/supertren/bitcoin-lab-en/explorer"
	"github.com/supertren/bitcoin-lab-en/price"
	"github.com/supertren/bitcoin-lab-en/txbuilder"
	"github.com/supertren/bitcoin-lab-en/wallet"
)

var (
	header  = color.New(color.FgCyan, color.Bold).SprintFunc()
	errText = color.New(color.FgRed).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
)

type Menu struct {
	in       *bufio.Scanner
	out      io.Writer
	params   *chaincfg.Params
	explorer explorer.Explorer
	price    *price.Client
	builder  *txbuilder.Builder
}

func New(
	in io.Reader, out io.Writer, params *chaincfg.Params,
	explorerSvc explorer.Explorer, priceClient *price.Client, builder *txbuilder.Builder,
) *Menu {
	return &Menu{
		in:       bufio.NewScanner(in),
		out:      out,
		params:   params,
		explorer: explorerSvc,
		price:    priceClient,
		builder:  builder,
	}
}

// Run drives the menu until the user exits or the input stream ends.
func (m *Menu) Run() error {
	session := wallet.NewSession()

	for {
		m.show()

		option, ok := m.readLine("\nSelect an option: ")
		if !ok {
			return m.in.Err()
		}

		switch strings.TrimSpace(option) {
		case "1":
			m.createWallet(session, wallet.Legacy)
		case "2":
			m.createWallet(session, wallet.Segwit)
		case "3":
			if !m.checkBalance() {
				return m.in.Err()
			}
		case "4":
			if !m.checkHistory() {
				return m.in.Err()
			}
		case "5":
			m.checkFee()
		case "6":
			m.checkPrice()
		case "7":
			proceed, ack := m.simulate(session)
			if !proceed {
				return m.in.Err()
			}
			if !ack {
				continue
			}
		case "0":
			fmt.Fprintln(m.out, "\nThank you for using the Bitcoin Laboratory. Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "\nInvalid option. Please select a valid option.")
		}

		if !m.pause() {
			return m.in.Err()
		}
	}
}

func (m *Menu) show() {
	fmt.Fprintln(m.out, header("\n===== BITCOIN LABORATORY ====="))
	fmt.Fprintln(m.out, "1. Create new Bitcoin wallet (Legacy)")
	fmt.Fprintln(m.out, "2. Create new Bitcoin wallet (SegWit)")
	fmt.Fprintln(m.out, "3. Check address balance")
	fmt.Fprintln(m.out, "4. Check transaction history")
	fmt.Fprintln(m.out, "5. Estimate current network fee")
	fmt.Fprintln(m.out, "6. Check current Bitcoin price")
	fmt.Fprintln(m.out, "7. Simulate transaction")
	fmt.Fprintln(m.out, "0. Exit")
	fmt.Fprintln(m.out, header("=============================="))
}

func (m *Menu) createWallet(session *wallet.Session, format wallet.Format) {
	var (
		newWallet wallet.Wallet
		err       error
	)
	if format == wallet.Legacy {
		newWallet, err = wallet.NewLegacy(m.params)
	} else {
		newWallet, err = wallet.NewSegwit(m.params)
	}
	if err != nil {
		fmt.Fprintln(m.out, errText(fmt.Sprintf("Error creating wallet: %v", err)))
		return
	}

	session.Add(newWallet)

	title := "--- NEW WALLET CREATED (LEGACY) ---"
	if format == wallet.Segwit {
		title = "--- NEW WALLET CREATED (SEGWIT) ---"
	}
	fmt.Fprintln(m.out, header("\n"+title))
	fmt.Fprintf(m.out, "Address: %s\n", newWallet.Address)
	fmt.Fprintf(m.out, "Private key (WIF): %s\n", newWallet.PrivateKey)
	fmt.Fprintln(m.out, warn("IMPORTANT: Save your private key in a secure place!"))
}

func (m *Menu) checkBalance() bool {
	address, ok := m.readLine("Enter Bitcoin address: ")
	if !ok {
		return false
	}

	balance, err := m.explorer.GetBalance(address)
	if err != nil {
		fmt.Fprintln(m.out, errText(err.Error()))
		return true
	}
	fmt.Fprintf(m.out, "\nBalance: %d satoshis (%.8f BTC)\n", balance, float64(balance)/1e8)
	return true
}

func (m *Menu) checkHistory() bool {
	address, ok := m.readLine("Enter Bitcoin address: ")
	if !ok {
		return false
	}

	txids, err := m.explorer.GetTxHistory(address)
	if err != nil {
		fmt.Fprintln(m.out, errText(err.Error()))
		return true
	}
	fmt.Fprintf(m.out, "\nTransaction history for %s:\n", address)
	for i, txid := range txids {
		fmt.Fprintf(m.out, "%d. TxID: %s\n", i+1, txid)
	}
	return true
}

func (m *Menu) checkFee() {
	fee, err := m.explorer.GetFeeRate()
	if err != nil {
		fmt.Fprintln(m.out, errText(err.Error()))
		return
	}
	fmt.Fprintf(m.out, "\nEstimated fee: %d satoshis/byte\n", fee)
}

func (m *Menu) checkPrice() {
	value, err := m.price.GetPrice()
	if err != nil {
		fmt.Fprintln(m.out, errText(err.Error()))
		return
	}
	fmt.Fprintf(m.out, "\nCurrent Bitcoin price: $%.2f USD\n", value)
}

// simulate returns (proceed, ack): proceed is false on input-stream EOF, ack
// reports whether the loop should still wait for the acknowledgement
// keypress. Guard failures skip the acknowledgement, as the original flow
// returns straight to the menu.
func (m *Menu) simulate(session *wallet.Session) (bool, bool) {
	if session.Len() == 0 {
		fmt.Fprintln(m.out, "\nYou must create at least one wallet first (option 1 or 2).")
		return true, false
	}

	fmt.Fprintln(m.out, "\nAvailable wallets:")
	for i, w := range session.All() {
		fmt.Fprintf(m.out, "%d. %s (%s)\n", i+1, w.Address, w.Format)
	}

	choice, ok := m.readLine("\nSelect source wallet (number): ")
	if !ok {
		return false, false
	}
	index, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil {
		fmt.Fprintln(m.out, "Invalid input. Please enter a valid number.")
		return true, true
	}

	source, ok := session.At(index)
	if !ok {
		fmt.Fprintln(m.out, "Invalid selection.")
		return true, false
	}

	destination, ok := m.readLine("Enter destination address: ")
	if !ok {
		return false, false
	}
	amountStr, ok := m.readLine("Enter amount in BTC: ")
	if !ok {
		return false, false
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid input. Please enter a valid number.")
		return true, true
	}

	result, err := m.builder.Simulate(source.PrivateKey, destination, amount, source.Format)
	if err != nil {
		fmt.Fprintln(m.out, errText(err.Error()))
		return true, true
	}

	txHex := result.TxHex
	if len(txHex) > 64 {
		txHex = txHex[:64] + "..."
	}
	fmt.Fprintln(m.out, header("\n--- TRANSACTION SIMULATION ---"))
	fmt.Fprintf(m.out, "Source: %s\n", result.Source)
	fmt.Fprintf(m.out, "Destination: %s\n", result.Destination)
	fmt.Fprintf(m.out, "Amount: %v BTC\n", result.AmountBTC)
	fmt.Fprintf(m.out, "Fee: %d satoshis\n", result.Fee)
	fmt.Fprintf(m.out, "Transaction hex: %s\n", txHex)
	fmt.Fprintln(m.out, "NOTE: This is just a simulation, no actual transaction has been sent.")
	return true, true
}

func (m *Menu) pause() bool {
	fmt.Fprint(m.out, "\nPress Enter to continue...")
	return m.in.Scan()
}

func (m *Menu) readLine(prompt string) (string, bool) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}
