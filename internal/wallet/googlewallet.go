package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	walletobjects "google.golang.org/api/walletobjects/v1"
)

// GoogleWallet implements the Issuer interface against the Google Wallet
// Objects API, materializing passes as generic wallet objects.
type GoogleWallet struct {
	service  *walletobjects.Service
	issuerID string
	classID  string
}

// NewGoogleWallet creates a GoogleWallet issuer. classID must be an
// existing generic class under the issuer account.
func NewGoogleWallet(ctx context.Context, issuerID, classID string, opts ...option.ClientOption) (*GoogleWallet, error) {
	if issuerID == "" {
		return nil, fmt.Errorf("wallet issuer id is required")
	}
	service, err := walletobjects.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating walletobjects service: %w", err)
	}
	return &GoogleWallet{
		service:  service,
		issuerID: issuerID,
		classID:  classID,
	}, nil
}

// IssuePass inserts the pass as a generic object and returns its object id.
// A conflict means the object already exists remotely (an earlier attempt
// succeeded after we stopped waiting), so the existing id is returned.
func (g *GoogleWallet) IssuePass(ctx context.Context, pass *Pass) (string, error) {
	objectID := fmt.Sprintf("%s.%s", g.issuerID, pass.ID)

	obj := &walletobjects.GenericObject{
		Id:        objectID,
		ClassId:   g.classID,
		State:     "ACTIVE",
		CardTitle: localized(pass.Title),
		Header:    localized(kindHeader(pass.Kind)),
		TextModulesData: []*walletobjects.TextModuleData{
			{Id: "description", Header: "Details", Body: pass.Description},
		},
	}
	if len(pass.Items) > 0 {
		obj.TextModulesData = append(obj.TextModulesData, &walletobjects.TextModuleData{
			Id: "items", Header: "Items", Body: strings.Join(pass.Items, ", "),
		})
	}
	if pass.Amount != nil {
		obj.TextModulesData = append(obj.TextModulesData, &walletobjects.TextModuleData{
			Id: "amount", Header: "Amount", Body: pass.Amount.String(),
		})
	}

	created, err := g.service.Genericobject.Insert(obj).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.Code == http.StatusConflict:
				return objectID, nil
			case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
				return "", &TransientError{Err: err}
			default:
				return "", &PermanentError{Err: err}
			}
		}
		// No structured response at all; assume the network hiccuped
		return "", &TransientError{Err: err}
	}

	return created.Id, nil
}

func kindHeader(kind Kind) string {
	switch kind {
	case KindShopping:
		return "Shopping List"
	case KindInsights:
		return "Spending Insights"
	case KindRecipe:
		return "Recipe"
	case KindReceipt:
		return "Digital Receipt"
	default:
		return "Pass"
	}
}

func localized(value string) *walletobjects.LocalizedString {
	return &walletobjects.LocalizedString{
		DefaultValue: &walletobjects.TranslatedString{
			Language: "en-US",
			Value:    value,
		},
	}
}

// UnconfiguredIssuer is used when no wallet credentials are configured;
// every issuance fails permanently with a clear message.
type UnconfiguredIssuer struct{}

func (UnconfiguredIssuer) IssuePass(ctx context.Context, pass *Pass) (string, error) {
	return "", &PermanentError{Err: fmt.Errorf("wallet issuance is not configured")}
}
