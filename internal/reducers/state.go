// Package reducers implements the pure (state, event) -> state' functions
// that derive every domain's view of the log (spec §4.8). Each domain
// file exposes Apply and CanApply; nothing here touches the log, the
// network, or the keystore — reducers take validated envelope payloads
// and the current State and return the next one.
package reducers

// State is the full derived-state cache rebuilt from the log. It is
// treated as a persistent value: every mutating call returns a modified
// copy of the top-level domain map it touched (copy-on-write per spec
// §5) so concurrent readers never observe a torn intermediate state.
type State struct {
	Identities   map[string]*Identity
	Wallets      map[string]*Wallet
	Escrows      map[string]*Escrow
	Listings     map[string]*Listing
	Bids         map[string]*Bid
	Orders       map[string]*Order
	Deliveries   map[string]*Delivery
	Contracts    map[string]*Contract
	Reputations  map[string]*ReputationRecord
	Proposals    map[string]*Proposal
	Delegations  map[string]*Delegation
	Treasury     Treasury
	ReviewsSeen  map[string]bool // (issuer,ref,dimension) triples already recorded
}

// New returns an empty State with all domain maps initialized, the
// shape every reducer assumes (no reducer nil-checks a domain map).
func New() *State {
	return &State{
		Identities:  make(map[string]*Identity),
		Wallets:     make(map[string]*Wallet),
		Escrows:     make(map[string]*Escrow),
		Listings:    make(map[string]*Listing),
		Bids:        make(map[string]*Bid),
		Orders:      make(map[string]*Order),
		Deliveries:  make(map[string]*Delivery),
		Contracts:   make(map[string]*Contract),
		Reputations: make(map[string]*ReputationRecord),
		Proposals:   make(map[string]*Proposal),
		Delegations: make(map[string]*Delegation),
		ReviewsSeen: make(map[string]bool),
	}
}

// Clone returns a shallow, domain-map-level copy of s: each top-level
// map is a fresh map with the same *pointers* to domain records. A
// reducer that mutates a record must replace it with a new pointer in
// the cloned map rather than mutating the pointee in place, preserving
// the copy-on-write contract readers rely on.
func (s *State) Clone() *State {
	out := &State{
		Identities:  make(map[string]*Identity, len(s.Identities)),
		Wallets:     make(map[string]*Wallet, len(s.Wallets)),
		Escrows:     make(map[string]*Escrow, len(s.Escrows)),
		Listings:    make(map[string]*Listing, len(s.Listings)),
		Bids:        make(map[string]*Bid, len(s.Bids)),
		Orders:      make(map[string]*Order, len(s.Orders)),
		Deliveries:  make(map[string]*Delivery, len(s.Deliveries)),
		Contracts:   make(map[string]*Contract, len(s.Contracts)),
		Reputations: make(map[string]*ReputationRecord, len(s.Reputations)),
		Proposals:   make(map[string]*Proposal, len(s.Proposals)),
		Delegations: make(map[string]*Delegation, len(s.Delegations)),
		ReviewsSeen: make(map[string]bool, len(s.ReviewsSeen)),
		Treasury:    s.Treasury,
	}
	for k, v := range s.Identities {
		out.Identities[k] = v
	}
	for k, v := range s.Wallets {
		out.Wallets[k] = v
	}
	for k, v := range s.Escrows {
		out.Escrows[k] = v
	}
	for k, v := range s.Listings {
		out.Listings[k] = v
	}
	for k, v := range s.Bids {
		out.Bids[k] = v
	}
	for k, v := range s.Orders {
		out.Orders[k] = v
	}
	for k, v := range s.Deliveries {
		out.Deliveries[k] = v
	}
	for k, v := range s.Contracts {
		out.Contracts[k] = v
	}
	for k, v := range s.Reputations {
		out.Reputations[k] = v
	}
	for k, v := range s.Proposals {
		out.Proposals[k] = v
	}
	for k, v := range s.Delegations {
		out.Delegations[k] = v
	}
	for k, v := range s.ReviewsSeen {
		out.ReviewsSeen[k] = v
	}
	return out
}

// Treasury accumulates protocol fees (spec §4.8.2, §4.8.7).
type Treasury struct {
	Balance string
}

// Identity is the derived view of one DID document.
type Identity struct {
	DID          string
	PublicKey    string
	Capabilities []string
	Platforms    []string
	Revoked      bool
	LastEventHash string
}

// Wallet is the derived per-address balance record (spec §3).
type Wallet struct {
	Address  string
	Available string
	Locked    string
	TotalIn   string
	TotalOut  string
}

// EscrowState enumerates an escrow's lifecycle (spec §4.8.3).
type EscrowState string

const (
	EscrowActive    EscrowState = "Active"
	EscrowReleased  EscrowState = "Released"
	EscrowRefunded  EscrowState = "Refunded"
	EscrowExpired   EscrowState = "Expired"
	EscrowDisputed  EscrowState = "Disputed"
)

// Escrow is the derived view of one escrow (spec §3).
type Escrow struct {
	ID                    string
	Depositor             string
	Beneficiary           string
	Arbiter               string
	Amount                string
	ReleasedToBeneficiary string
	RefundedToDepositor   string
	State                 EscrowState
	ReleaseRules          string
	ExpiresAt             int64
	LastEventHash         string
}

// ListingKind enumerates the three markets (spec §4.8.4).
type ListingKind string

const (
	ListingInfo       ListingKind = "info"
	ListingTask       ListingKind = "task"
	ListingCapability ListingKind = "capability"
)

// ListingStatus enumerates a listing's lifecycle.
type ListingStatus string

const (
	ListingActive    ListingStatus = "Active"
	ListingSold      ListingStatus = "Sold"
	ListingWithdrawn ListingStatus = "Withdrawn"
)

// Listing is the derived view of one market listing (spec §3, §4.8.4).
type Listing struct {
	ID            string
	Seller        string
	Kind          ListingKind
	Metadata      map[string]any
	Pricing       map[string]any
	Status        ListingStatus
	LastEventHash string
}

// BidStatus enumerates a bid's lifecycle.
type BidStatus string

const (
	BidOpen     BidStatus = "Open"
	BidAccepted BidStatus = "Accepted"
	BidRejected BidStatus = "Rejected"
)

// Bid is a solicited offer against a task listing.
type Bid struct {
	ID        string
	ListingID string
	Bidder    string
	Amount    string
	Status    BidStatus
}

// Order tracks the acceptance that bound a listing to its fulfilling
// party, funding the backing escrow (spec §4.8.4).
type Order struct {
	ID        string
	ListingID string
	BidID     string // empty for info-market direct purchase
	Buyer     string
	Seller    string
	EscrowID  string
}

// DeliveryStatus enumerates a delivery's lifecycle.
type DeliveryStatus string

const (
	DeliverySubmitted DeliveryStatus = "Submitted"
	DeliveryConfirmed DeliveryStatus = "Confirmed"
	DeliveryRejected  DeliveryStatus = "Rejected"
)

// Delivery is a provider's submission against an accepted order.
type Delivery struct {
	ID      string
	OrderID string
	Status  DeliveryStatus
}

// ContractState enumerates a service contract's lifecycle (spec §4.8.5).
type ContractState string

const (
	ContractDraft               ContractState = "Draft"
	ContractSigned              ContractState = "Signed"
	ContractActive              ContractState = "Active"
	ContractMilestoneInProgress ContractState = "MilestoneInProgress"
	ContractCompleted           ContractState = "Completed"
	ContractDisputed            ContractState = "Disputed"
	ContractCancelled           ContractState = "Cancelled"
)

// MilestoneState enumerates one milestone's lifecycle.
type MilestoneState string

const (
	MilestonePending    MilestoneState = "Pending"
	MilestoneInProgress MilestoneState = "InProgress"
	MilestoneApproved   MilestoneState = "Approved"
)

// Milestone is one payment tranche of a service contract.
type Milestone struct {
	ID     string
	Amount string
	State  MilestoneState
}

// Contract is the derived view of one service contract (spec §3, §4.8.5).
type Contract struct {
	ID              string
	Client          string
	Provider        string
	Arbiter         string
	TotalAmount     string
	Milestones      []Milestone
	State           ContractState
	ClientSigned    bool
	ProviderSigned  bool
	EscrowID        string
	DeadlineAt      int64
	LastEventHash   string
}

// ReputationDimension enumerates the scored facets of a DID's conduct
// (spec §3).
type ReputationDimension string

const (
	DimQuality     ReputationDimension = "quality"
	DimFulfillment ReputationDimension = "fulfillment"
	DimTransaction ReputationDimension = "transaction"
	DimBehavior    ReputationDimension = "behavior"
	DimSocial      ReputationDimension = "social"
)

// ReputationEntry is one recorded score against a subject.
type ReputationEntry struct {
	Issuer    string
	Dimension ReputationDimension
	Score     int
	Ref       string
	Comment   string
	EventHash string
}

// ReputationRecord aggregates all entries for one subject DID.
type ReputationRecord struct {
	Subject string
	Entries []ReputationEntry
	// Averages holds the running arithmetic mean per dimension (spec
	// §4.8.6: "simple arithmetic mean for v1").
	Averages map[ReputationDimension]float64
}

// ProposalState enumerates a DAO proposal's lifecycle (spec §4.8.7).
type ProposalState string

const (
	ProposalDiscussion ProposalState = "Discussion"
	ProposalVoting     ProposalState = "Voting"
	ProposalPassed     ProposalState = "Passed"
	ProposalRejected   ProposalState = "Rejected"
	ProposalQueued     ProposalState = "Queued"
	ProposalExecuted   ProposalState = "Executed"
)

// Proposal is the derived view of one DAO proposal.
type Proposal struct {
	ID             string
	Proposer       string
	Kind           string
	Quorum         float64
	PassThreshold  float64
	State          ProposalState
	VotesFor       float64
	VotesAgainst   float64
	Voters         map[string]bool
	QueuedAt       int64
	TimelockDelay  int64
	LastEventHash  string
}

// Delegation records one voter's delegated voting power (spec §4.8.7).
type Delegation struct {
	Delegator string
	Delegate  string
}
