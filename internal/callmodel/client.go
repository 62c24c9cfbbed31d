package callmodel

import "strconv"

// Client is a read-only reference record the initiate API resolves by id.
// CRUD over clients is out of scope for this service; rows are managed
// externally and only read here.
type Client struct {
	ID                    string  `json:"id" db:"id"`
	Name                  string  `json:"name" db:"name"`
	Phone                 string  `json:"phone" db:"phone"`
	DebtAmount            float64 `json:"debt_amount" db:"debt_amount"`
	ContractNumber        string  `json:"contract_number" db:"contract_number"`
	PartialPaymentAmount  float64 `json:"partial_payment_amount" db:"partial_payment_amount"`
	Company               string  `json:"company" db:"company"`
}

// TemplateFields returns the placeholder substitution map used by
// ResponseSelector's personalization step ({clientName}, {company},
// {amount}, {contract}, {partialAmount}).
func (c Client) TemplateFields() map[string]string {
	return map[string]string{
		"clientName":    c.Name,
		"company":       c.Company,
		"amount":        formatAmount(c.DebtAmount),
		"contract":      c.ContractNumber,
		"partialAmount": formatAmount(c.PartialPaymentAmount),
	}
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
