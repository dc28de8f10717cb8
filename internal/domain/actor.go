package domain

// Actor identifies who performs an operation. It is resolved at the transport
// edge and passed explicitly into every core operation; the core never reads
// ambient session state.
type Actor struct {
	ID   string
	Role UserRole
	IP   string
}
