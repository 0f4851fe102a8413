// Package ofx converts OFX/QFX bank exports into historical transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/seasonal"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line that are missing their closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	// Card terminals prefix the purchase date, e.g. "12.03 REMA 1000".
	datePrefixRegex = regexp.MustCompile(`^\d{2}[./]\d{2}(?:[./]\d{2,4})?\s+`)
)

// Card and bank prefixes stripped from statement descriptions, longest first
// where one prefix extends another.
var descriptionPrefixes = []string{
	"VISA VARE ",
	"VAREKJØP ",
	"VAREKJOP ",
	"KORTKJØP ",
	"KORTKJOP ",
	"BANKAXEPT KJØP ",
	"BANKAXEPT ",
	"POS PURCHASE ",
	"DEBIT CARD PURCHASE ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
}

// MerchantDetector identifies the merchant behind a statement description.
type MerchantDetector interface {
	DetectMerchant(text string) model.DetectionResult
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	detector MerchantDetector
}

// NewParser creates a new OFX parser. A nil detector keeps raw descriptions
// and leaves categories empty.
func NewParser(detector MerchantDetector) *Parser {
	return &Parser{detector: detector}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be INFO, WARN, or ERROR.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns its spending as historical
// transactions. Credits (deposits, refunds) are skipped.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.HistoricalTransaction, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var statements [][]ofxgo.Transaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			statements = append(statements, stmt.BankTranList.Transactions)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			statements = append(statements, stmt.BankTranList.Transactions)
		}
	}

	var transactions []model.HistoricalTransaction
	credits := 0
	for _, list := range statements {
		for _, ofxTx := range list {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			txn, ok := p.convertTransaction(ofxTx)
			if !ok {
				credits++
				continue
			}
			transactions = append(transactions, txn)
		}
	}

	slog.Debug("Parsed OFX file",
		"transactions", len(transactions),
		"statements", len(statements),
		"skipped_credits", credits)

	return transactions, nil
}

// convertTransaction converts a debit into a historical transaction.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) (model.HistoricalTransaction, bool) {
	// OFX uses negative amounts for debits.
	amountFloat, _ := ofxTx.TrnAmt.Float64()
	amount := decimal.NewFromFloat(amountFloat).Round(2)
	if !amount.IsNegative() {
		return model.HistoricalTransaction{}, false
	}

	posted := ofxTx.DtPosted.Time
	period := seasonal.ContextFor(posted)

	description := p.extractMerchantName(ofxTx)
	txn := model.HistoricalTransaction{
		Date:          posted.Format(dateLayout),
		Merchant:      description,
		Season:        period.SeasonLabel,
		CulturalEvent: period.CulturalEvent,
		Amount:        amount.Neg().InexactFloat64(),
	}

	if p.detector != nil {
		detected := p.detector.DetectMerchant(description)
		if detected.MatchedBy != model.MatchedByFallback {
			txn.Merchant = detected.Profile.Name
			txn.Category = detected.Profile.Category
		}
	}

	return txn, true
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	upper := strings.ToUpper(name)
	for _, prefix := range descriptionPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	return strings.TrimSpace(datePrefixRegex.ReplaceAllString(name, ""))
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "VAREKJØP", "VAREKJOP", "KORTKJØP", "KORTKJOP", "DEBIT", "PURCHASE", "PAYMENT", "VISA":
		return true
	}
	return false
}

// GetAccounts extracts unique account IDs from the OFX file in sorted order.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			accountMap[string(stmt.BankAcctFrom.AcctID)] = true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			accountMap[string(stmt.CCAcctFrom.AcctID)] = true
		}
	}

	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)
	return accounts, nil
}
