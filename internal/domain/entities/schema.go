package entities

// Column names shared by every stage: input header, table columns and JSON keys.
const (
	ColTransactionID     = "transaction_id"
	ColTransactionAmount = "transaction_amount"
	ColTransactionDate   = "transaction_date"
	ColTaxAmount         = "tax_amount"
	ColTransactionType   = "transaction_type"
	ColMallName          = "mall_name"
	ColBranchName        = "branch_name"
	ColTransactionStatus = "transaction_status"

	// Derived during cleaning and persistence.
	ColTransactionDateISO = "transaction_date_iso"
	ColSummaryText        = "summary_text"
)

// Date layouts.
const (
	// InputDateLayout is DD/MM/YYYY HH:MM; one-digit day, month and hour are accepted.
	InputDateLayout = "2/1/2006 15:04"
	// ISOLayout is the ISO-8601 form carried in DateISO.
	ISOLayout = "2006-01-02T15:04:05"
	// StoredDateLayout is the text form of transaction_date in the relational store.
	StoredDateLayout = "2006-01-02 15:04:05"
)

// RequiredInputColumns must be present in the raw input header.
var RequiredInputColumns = []string{
	ColTransactionID,
	ColTransactionAmount,
	ColTransactionDate,
}

// InputColumns lists every raw input column the pipeline understands.
var InputColumns = []string{
	ColTransactionID,
	ColTransactionAmount,
	ColTransactionDate,
	ColTaxAmount,
	ColTransactionType,
	ColMallName,
	ColBranchName,
	ColTransactionStatus,
}

// StoredColumns is the column order of the relational table.
var StoredColumns = []string{
	ColTransactionID,
	ColTransactionAmount,
	ColTransactionDate,
	ColTaxAmount,
	ColTransactionType,
	ColMallName,
	ColBranchName,
	ColTransactionStatus,
	ColTransactionDateISO,
	ColSummaryText,
}

// EntityColumns are the columns a failure-rate check may group on.
var EntityColumns = []string{ColMallName, ColBranchName}

// EntityValue returns the record's value for an entity column.
func (r TransactionRecord) EntityValue(col string) string {
	switch col {
	case ColBranchName:
		return r.Branch
	default:
		return r.Mall
	}
}
