package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20241231120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>NOK
<BANKACCTFROM>
<BANKID>1503
<ACCTID>15031234567
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20241231120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20241215120000[0:GMT]
<TRNAMT>-63.40
<FITID>2024121501
<NAME>VISA VARE 12.12 REMA 1000 STORGATA
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240517120000[0:GMT]
<TRNAMT>-450.00
<FITID>2024051701
<NAME>VINMONOPOLET OSLO
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240520120000[0:GMT]
<TRNAMT>1500.00
<FITID>2024052001
<NAME>MEDLEMSKONTINGENT
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20241003120000[0:GMT]
<TRNAMT>-99.00
<FITID>2024100301
<NAME>KORTKJOP NILLE
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>10000.00
<DTASOF>20241231120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>NOK
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-1299.00
<FITID>CC2024011001
<NAME>ELKJOP NORGE AS
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-1299.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

// stubDetector matches catalog keys by substring.
type stubDetector map[string]model.MerchantProfile

func (d stubDetector) DetectMerchant(text string) model.DetectionResult {
	upper := strings.ToUpper(text)
	for key, profile := range d {
		if strings.Contains(upper, key) {
			return model.DetectionResult{Profile: profile, Key: key, MatchedBy: model.MatchedByKey}
		}
	}
	return model.DetectionResult{Profile: model.UnknownMerchant(), MatchedBy: model.MatchedByFallback}
}

func testDetector() stubDetector {
	return stubDetector{
		"REMA":         {Name: "REMA 1000", Category: model.CategoryGrocery},
		"VINMONOPOLET": {Name: "Vinmonopolet", Category: model.CategoryAlcohol},
	}
}

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{name: "bank statement skips credits", ofxData: sampleBankOFX, expectedCount: 3},
		{name: "credit card statement", ofxData: sampleCreditCardOFX, expectedCount: 1},
		{name: "invalid OFX data", ofxData: "not valid OFX", expectedError: true},
		{name: "empty OFX", ofxData: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser(testDetector())

			transactions, err := parser.ParseFile(context.Background(), strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, transactions, tt.expectedCount)
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser(testDetector())

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	rema := transactions[0]
	assert.Equal(t, "2024-12-15", rema.Date)
	assert.Equal(t, "REMA 1000", rema.Merchant)
	assert.Equal(t, model.CategoryGrocery, rema.Category)
	assert.Equal(t, "Christmas season", rema.Season)
	assert.Equal(t, "Jul", rema.CulturalEvent)
	assert.InDelta(t, 63.40, rema.Amount, 0.001)

	vinmonopolet := transactions[1]
	assert.Equal(t, "2024-05-17", vinmonopolet.Date)
	assert.Equal(t, "Vinmonopolet", vinmonopolet.Merchant)
	assert.Equal(t, model.CategoryAlcohol, vinmonopolet.Category)
	assert.Equal(t, "17. mai", vinmonopolet.CulturalEvent)
	assert.InDelta(t, 450.0, vinmonopolet.Amount, 0.001)

	// Unknown merchants keep the cleaned description and no category.
	nille := transactions[2]
	assert.Equal(t, "NILLE", nille.Merchant)
	assert.Empty(t, nille.Category)
	assert.Equal(t, "Standard period", nille.Season)
	assert.Empty(t, nille.CulturalEvent)
}

func TestParseWithoutDetector(t *testing.T) {
	parser := NewParser(nil)

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "ELKJOP NORGE AS", transactions[0].Merchant)
	assert.Empty(t, transactions[0].Category)
	assert.InDelta(t, 1299.0, transactions[0].Amount, 0.001)
}

func TestParseFileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil).ParseFile(ctx, strings.NewReader(sampleBankOFX))
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser(nil)

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{name: "visa prefix and date", input: "VISA VARE 12.03 REMA 1000", expected: "REMA 1000"},
		{name: "bankaxept purchase", input: "BANKAXEPT KJØP KIWI MAJORSTUEN", expected: "KIWI MAJORSTUEN"},
		{name: "card purchase prefix", input: "KORTKJØP MENY", expected: "MENY"},
		{name: "generic name uses memo", input: "VAREKJØP", memo: "COOP EXTRA", expected: "COOP EXTRA"},
		{name: "keep clean name", input: "CIRCLE K", expected: "CIRCLE K"},
		{name: "trim whitespace", input: "  NARVESEN  ", expected: "NARVESEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractMerchantName(tx))
		})
	}
}

func TestExtractMerchantNamePrefersPayee(t *testing.T) {
	tx := ofxgo.Transaction{
		Name:  ofxgo.String("VISA VARE 01.02 SPAR"),
		Payee: &ofxgo.Payee{Name: ofxgo.String("Spar Bislett")},
	}
	assert.Equal(t, "Spar Bislett", NewParser(nil).extractMerchantName(tx))
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser(nil)

	accounts, err := parser.GetAccounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"15031234567"}, accounts)

	accounts, err = parser.GetAccounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}
