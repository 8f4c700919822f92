package models

import (
	"time"

	"certledger/pkg/domain"
)

// Issuer is an identity's membership in the issuer set. Membership can be
// granted and withdrawn any number of times.
type Issuer struct {
	Address    domain.Address `json:"address"`
	Authorized bool           `json:"authorized"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Authorize grants membership and reports whether anything changed.
func (i *Issuer) Authorize(now time.Time) bool {
	if i.Authorized {
		return false
	}
	i.Authorized = true
	i.UpdatedAt = now
	return true
}

// Deauthorize withdraws membership and reports whether anything changed.
func (i *Issuer) Deauthorize(now time.Time) bool {
	if !i.Authorized {
		return false
	}
	i.Authorized = false
	i.UpdatedAt = now
	return true
}

// Authorization describes an identity's standing for GET /issuers/{address}.
type Authorization struct {
	Address    domain.Address `json:"address"`
	Authorized bool           `json:"authorized"`
	IsOwner    bool           `json:"is_owner"`
}
