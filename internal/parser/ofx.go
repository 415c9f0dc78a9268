package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aclindsa/ofxgo"

	"bankbooks/internal/normalize"
)

// OFXResult is the outcome of decoding an OFX document: candidates plus the
// currency declared by the statement, used when the account has none.
type OFXResult struct {
	Candidates []Candidate
	Currency   string
	Skipped    int
}

// ParseOFX decodes an OFX/QFX document with the standard decoder, covering
// both bank and credit-card statement messages. Payee name and memo become
// the description; decoder-native dates and amounts map straight onto the
// canonical fields.
func ParseOFX(data []byte) (OFXResult, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return OFXResult{}, fmt.Errorf("decode ofx: %w", err)
	}

	var res OFXResult
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		if res.Currency == "" {
			res.Currency = stmt.CurDef.String()
		}
		res.addTransactions(stmt.BankTranList.Transactions)
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		if res.Currency == "" {
			res.Currency = stmt.CurDef.String()
		}
		res.addTransactions(stmt.BankTranList.Transactions)
	}
	return res, nil
}

func (r *OFXResult) addTransactions(trans []ofxgo.Transaction) {
	for _, tran := range trans {
		amount, _ := tran.TrnAmt.Float64()
		if amount == 0 {
			r.Skipped++
			continue
		}
		date, ok := normalize.Date(tran.DtPosted.Format(normalize.DateLayout))
		if !ok {
			r.Skipped++
			continue
		}

		desc := strings.TrimSpace(string(tran.Name))
		if memo := strings.TrimSpace(string(tran.Memo)); memo != "" {
			if desc == "" {
				desc = memo
			} else if !strings.Contains(desc, memo) {
				desc = desc + " " + memo
			}
		}

		r.Candidates = append(r.Candidates, Candidate{
			Date:        date,
			Description: desc,
			Amount:      amount,
		})
	}
}
