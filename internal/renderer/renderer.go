// Package renderer produces the paginated contract document handed to the
// e-signature provider, together with a tamper-evidence hash.
package renderer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ContractData carries everything the document needs; party and property
// details come pre-resolved from the directory.
type ContractData struct {
	ContractID    string
	LandlordName  string
	TenantName    string
	Address       string
	City          string
	Region        string
	RentAmount    string
	DepositAmount string
	StartDate     string
	EndDate       string
	Clauses       []ClauseData
}

type ClauseData struct {
	ClauseID string
	Version  int
	Summary  string
}

type Renderer interface {
	// RenderContract returns document bytes and the sha256 hex of those bytes.
	RenderContract(ctx context.Context, data ContractData) ([]byte, string, error)
}

// NoOpRenderer produces a deterministic plain-text document; used in tests
// and when PDF rendering is disabled.
type NoOpRenderer struct{}

func (NoOpRenderer) RenderContract(ctx context.Context, data ContractData) ([]byte, string, error) {
	doc := []byte(fmt.Sprintf(
		"RENTAL CONTRACT %s\nLandlord: %s\nTenant: %s\nProperty: %s, %s\nRent: %s\nDeposit: %s\nTerm: %s - %s\n",
		data.ContractID,
		data.LandlordName,
		data.TenantName,
		data.Address,
		data.City,
		data.RentAmount,
		data.DepositAmount,
		data.StartDate,
		data.EndDate,
	))
	return doc, HashDocument(doc), nil
}

// HashDocument returns the hex sha256 digest used for tamper evidence.
func HashDocument(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}
