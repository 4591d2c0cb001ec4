package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/delivery"
)

// ChannelName identifies the spreadsheet channel in logs and health output.
const ChannelName = "sheets"

// DefaultRange is used when no range is configured.
const DefaultRange = "Sheet1!A:E"

// Appender appends one row per submission to a Google Sheet, authenticated
// as a service account.
type Appender struct {
	tokens        oauth2.TokenSource
	service       *sheets.Service
	spreadsheetID string
	rangeA1       string
}

// NewAppender builds an Appender from configuration. The service account is
// taken from CredentialsJSON when present, otherwise from the email and
// private key pair.
func NewAppender(ctx context.Context, cfg config.SheetsConfig) (*Appender, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}

	jwtConfig, err := serviceAccount(cfg)
	if err != nil {
		return nil, err
	}

	tokens := jwtConfig.TokenSource(ctx)
	return NewAppenderWithOptions(ctx, cfg.SpreadsheetID, cfg.Range, tokens,
		option.WithTokenSource(tokens),
	)
}

// NewAppenderWithOptions builds an Appender from a token source and raw
// client options. The token source is used for the authorization step only.
func NewAppenderWithOptions(ctx context.Context, spreadsheetID, rangeA1 string, tokens oauth2.TokenSource, opts ...option.ClientOption) (*Appender, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}
	if rangeA1 == "" {
		rangeA1 = DefaultRange
	}
	return &Appender{
		tokens:        tokens,
		service:       svc,
		spreadsheetID: spreadsheetID,
		rangeA1:       rangeA1,
	}, nil
}

func serviceAccount(cfg config.SheetsConfig) (*jwt.Config, error) {
	if cfg.CredentialsJSON != "" {
		jc, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("sheets: failed to parse credentials: %w", err)
		}
		return jc, nil
	}

	if cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("sheets: service account email and private key are required")
	}

	return &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(NormalizePrivateKey(cfg.PrivateKey)),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}, nil
}

// NormalizePrivateKey turns literal "\n" sequences into newlines. Keys pasted
// into a single-line environment variable arrive escaped.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

func (a *Appender) Name() string { return ChannelName }

func (a *Appender) Configured() bool { return a.service != nil && a.spreadsheetID != "" }

// rawInput stores values exactly as submitted. Form fields are untrusted, so
// Sheets must never evaluate them as formulas.
const rawInput = "RAW"

// AppendRow authorizes the service account and then appends values as a
// single row. The two steps report distinct failure kinds.
func (a *Appender) AppendRow(ctx context.Context, values []string) (delivery.Receipt, error) {
	if !a.Configured() {
		return delivery.Receipt{}, delivery.NotConfigured(ChannelName, "spreadsheet ID")
	}

	if a.tokens != nil {
		if _, err := a.tokens.Token(); err != nil {
			return delivery.Receipt{}, delivery.Unauthorized(ChannelName, err)
		}
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	resp, err := a.service.Spreadsheets.Values.
		Append(a.spreadsheetID, a.rangeA1, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption(rawInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return delivery.Receipt{}, delivery.FromGoogleError(ChannelName, err)
	}

	receipt := delivery.Receipt{Channel: ChannelName}
	if resp.Updates != nil {
		receipt.ProviderMessageID = resp.Updates.UpdatedRange
	}
	return receipt, nil
}
