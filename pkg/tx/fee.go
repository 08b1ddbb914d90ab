package tx

// Static fees in arktoshi, used when the node does not report its own.
const (
	FeeTransfer             uint64 = 10_000_000
	FeeSecondSignature      uint64 = 500_000_000
	FeeDelegateRegistration uint64 = 2_500_000_000
	FeeVote                 uint64 = 100_000_000
)

// DefaultFee returns the static fee of t.
func DefaultFee(t Type) uint64 {
	switch t {
	case TypeTransfer:
		return FeeTransfer
	case TypeSecondSignature:
		return FeeSecondSignature
	case TypeDelegateRegistration:
		return FeeDelegateRegistration
	case TypeVote:
		return FeeVote
	}
	return 0
}

// FeeLookup resolves the fee of a transaction type by name, as reported
// by a node. It returns false when the node has no entry.
type FeeLookup func(name string) (uint64, bool)

// ResolveFee returns the node fee for t when lookup knows it, otherwise
// the static default.
func ResolveFee(t Type, lookup FeeLookup) uint64 {
	if lookup != nil {
		if fee, ok := lookup(t.String()); ok && fee > 0 {
			return fee
		}
	}
	return DefaultFee(t)
}
