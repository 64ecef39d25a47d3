package entities

// TransactionView is the JSON shape of a record at the HTTP boundary.
type TransactionView struct {
	TransactionID      string   `json:"transaction_id"`
	TransactionAmount  float64  `json:"transaction_amount"`
	TransactionDate    string   `json:"transaction_date"`
	TransactionDateISO string   `json:"transaction_date_iso"`
	TaxAmount          float64  `json:"tax_amount"`
	TransactionType    string   `json:"transaction_type"`
	MallName           string   `json:"mall_name"`
	BranchName         string   `json:"branch_name"`
	TransactionStatus  string   `json:"transaction_status"`
	SemanticScore      *float64 `json:"semantic_score,omitempty"`
}

// UnusualTransactionView is the reduced projection used for outlier listings.
type UnusualTransactionView struct {
	TransactionID      string  `json:"transaction_id"`
	MallName           string  `json:"mall_name"`
	BranchName         string  `json:"branch_name"`
	TransactionDateISO string  `json:"transaction_date_iso"`
	TransactionAmount  float64 `json:"transaction_amount"`
	TransactionStatus  string  `json:"transaction_status"`
}

// NewTransactionView projects a record for JSON output.
func NewTransactionView(r TransactionRecord) TransactionView {
	return TransactionView{
		TransactionID:      r.TransactionID,
		TransactionAmount:  r.Amount.InexactFloat64(),
		TransactionDate:    r.Date.Format(StoredDateLayout),
		TransactionDateISO: r.DateISO,
		TaxAmount:          r.Tax.InexactFloat64(),
		TransactionType:    r.Type,
		MallName:           r.Mall,
		BranchName:         r.Branch,
		TransactionStatus:  r.Status,
	}
}

// NewScoredView projects a scored record, carrying its semantic score.
func NewScoredView(st ScoredTransaction) TransactionView {
	v := NewTransactionView(st.Record)
	score := st.Score
	v.SemanticScore = &score
	return v
}

// NewUnusualTransactionView projects a record for outlier listings.
func NewUnusualTransactionView(r TransactionRecord) UnusualTransactionView {
	return UnusualTransactionView{
		TransactionID:      r.TransactionID,
		MallName:           r.Mall,
		BranchName:         r.Branch,
		TransactionDateISO: r.DateISO,
		TransactionAmount:  r.Amount.InexactFloat64(),
		TransactionStatus:  r.Status,
	}
}
