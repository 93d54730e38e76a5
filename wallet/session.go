package wallet

// Session holds the wallets created during one run, in creation order. It is
// append-only and passed explicitly to the menu actions that need it; nothing
// survives process exit.
type Session struct {
	wallets []Wallet
}

func NewSession() *Session {
	return &Session{wallets: make([]Wallet, 0)}
}

func (s *Session) Add(w Wallet) {
	s.wallets = append(s.wallets, w)
}

func (s *Session) Len() int {
	return len(s.wallets)
}

// All returns a copy of the session list in creation order.
func (s *Session) All() []Wallet {
	wallets := make([]Wallet, len(s.wallets))
	copy(wallets, s.wallets)
	return wallets
}

// At returns the wallet at the given 1-based position, matching the numbering
// shown to the user.
func (s *Session) At(pos int) (Wallet, bool) {
	if pos < 1 || pos > len(s.wallets) {
		return Wallet{}, false
	}
	return s.wallets[pos-1], true
}
