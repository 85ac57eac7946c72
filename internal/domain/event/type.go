package event

// Type identifies the type of domain event
type Type string

const (
	TypeVoucherCheckedIn  Type = "voucher.checked_in"
	TypeVoucherCheckedOut Type = "voucher.checked_out"
	TypeVouchersSynced    Type = "vouchers.synced"
	TypeReportGenerated   Type = "report.generated"
	TypeReportEmailed     Type = "report.emailed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeVoucherCheckedIn,
		TypeVoucherCheckedOut,
		TypeVouchersSynced,
		TypeReportGenerated,
		TypeReportEmailed:
		return true
	default:
		return false
	}
}

// All lists every defined event type
func All() []Type {
	return []Type{
		TypeVoucherCheckedIn,
		TypeVoucherCheckedOut,
		TypeVouchersSynced,
		TypeReportGenerated,
		TypeReportEmailed,
	}
}
