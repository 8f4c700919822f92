package models

type CertificateStatus string

const (
	CertificateStatusValid   CertificateStatus = "valid"
	CertificateStatusRevoked CertificateStatus = "revoked"
)

// MaxDisplayNameLength bounds subject and program names.
const MaxDisplayNameLength = 256
