package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"

	"certledger/pkg/domain"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}, headers map[string]string) error
	DELETE(path string, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Actor(name string) (domain.Address, error)
	AuthHeaders(actor string) (map[string]string, error)
}

// RegisterSteps registers registry-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}

	// Issuer management
	ctx.Step(`^"([^"]*)" authorizes issuer "([^"]*)"$`, steps.authorizeIssuer)
	ctx.Step(`^"([^"]*)" removes issuer "([^"]*)"$`, steps.removeIssuer)
	ctx.Step(`^"([^"]*)" should be an authorized issuer$`, steps.shouldBeAuthorized(true))
	ctx.Step(`^"([^"]*)" should not be an authorized issuer$`, steps.shouldBeAuthorized(false))

	// Certificate lifecycle
	ctx.Step(`^"([^"]*)" issues a certificate for "([^"]*)" with content hash "([^"]*)"$`, steps.issue)
	ctx.Step(`^"([^"]*)" revokes certificate (\d+)$`, steps.revoke)
	ctx.Step(`^certificate (\d+) should have status "([^"]*)"$`, steps.certificateStatus)
	ctx.Step(`^certificate (\d+) should still be held by "([^"]*)" with content hash "([^"]*)"$`, steps.certificateUnchanged)
	ctx.Step(`^verifying certificate (\d+) should report valid "(true|false)"$`, steps.verifyCertificate)
	ctx.Step(`^verifying content hash "([^"]*)" should report id (\d+) and valid "(true|false)"$`, steps.verifyByHash)
	ctx.Step(`^the registry should hold (\d+) certificates?$`, steps.totalCertificates)
	ctx.Step(`^"([^"]*)" should hold certificates "([^"]*)"$`, steps.holderCertificates)

	// Event log
	ctx.Step(`^the last transaction should be retrievable with (\d+) events?$`, steps.lastTransaction)
	ctx.Step(`^the event log should contain (\d+) entries and verify$`, steps.eventLogVerifies)
}

type registrySteps struct {
	tc       TestContext
	lastTxID string
}

func (s *registrySteps) authorizeIssuer(ctx context.Context, caller, identity string) error {
	headers, err := s.tc.AuthHeaders(caller)
	if err != nil {
		return err
	}
	addr, err := s.tc.Actor(identity)
	if err != nil {
		return err
	}
	if err := s.tc.POST("/issuers", map[string]string{"identity": addr.String()}, headers); err != nil {
		return err
	}
	s.rememberTx()
	return nil
}

func (s *registrySteps) removeIssuer(ctx context.Context, caller, identity string) error {
	headers, err := s.tc.AuthHeaders(caller)
	if err != nil {
		return err
	}
	addr, err := s.tc.Actor(identity)
	if err != nil {
		return err
	}
	if err := s.tc.DELETE("/issuers/"+addr.String(), headers); err != nil {
		return err
	}
	s.rememberTx()
	return nil
}

func (s *registrySteps) shouldBeAuthorized(want bool) func(context.Context, string) error {
	return func(ctx context.Context, identity string) error {
		addr, err := s.tc.Actor(identity)
		if err != nil {
			return err
		}
		var auth struct {
			Authorized bool `json:"authorized"`
		}
		if err := s.getJSON("/issuers/"+addr.String(), &auth); err != nil {
			return err
		}
		if auth.Authorized != want {
			return fmt.Errorf("%s authorized = %v, want %v", identity, auth.Authorized, want)
		}
		return nil
	}
}

func (s *registrySteps) issue(ctx context.Context, caller, holder, hash string) error {
	headers, err := s.tc.AuthHeaders(caller)
	if err != nil {
		return err
	}
	addr, err := s.tc.Actor(holder)
	if err != nil {
		return err
	}
	body := map[string]string{
		"holder":       addr.String(),
		"subject_name": "Ada Lovelace",
		"program_name": "Analytical Engines 101",
		"content_hash": hash,
	}
	if err := s.tc.POST("/certificates", body, headers); err != nil {
		return err
	}
	s.rememberTx()
	return nil
}

func (s *registrySteps) revoke(ctx context.Context, caller string, certID int) error {
	headers, err := s.tc.AuthHeaders(caller)
	if err != nil {
		return err
	}
	if err := s.tc.POST(fmt.Sprintf("/certificates/%d/revoke", certID), nil, headers); err != nil {
		return err
	}
	s.rememberTx()
	return nil
}

func (s *registrySteps) certificateStatus(ctx context.Context, certID int, status string) error {
	var cert struct {
		Status string `json:"status"`
	}
	if err := s.getJSON(fmt.Sprintf("/certificates/%d", certID), &cert); err != nil {
		return err
	}
	if cert.Status != status {
		return fmt.Errorf("certificate %d status = %s, want %s", certID, cert.Status, status)
	}
	return nil
}

func (s *registrySteps) certificateUnchanged(ctx context.Context, certID int, holder, hash string) error {
	addr, err := s.tc.Actor(holder)
	if err != nil {
		return err
	}
	var cert struct {
		Holder      string `json:"holder"`
		SubjectName string `json:"subject_name"`
		ProgramName string `json:"program_name"`
		ContentHash string `json:"content_hash"`
	}
	if err := s.getJSON(fmt.Sprintf("/certificates/%d", certID), &cert); err != nil {
		return err
	}
	if cert.Holder != addr.String() || cert.ContentHash != hash {
		return fmt.Errorf("certificate %d changed: holder=%s hash=%s", certID, cert.Holder, cert.ContentHash)
	}
	if cert.SubjectName != "Ada Lovelace" || cert.ProgramName != "Analytical Engines 101" {
		return fmt.Errorf("certificate %d names changed: %s / %s", certID, cert.SubjectName, cert.ProgramName)
	}
	return nil
}

func (s *registrySteps) verifyCertificate(ctx context.Context, certID int, valid string) error {
	var v struct {
		IsValid bool `json:"is_valid"`
	}
	if err := s.getJSON(fmt.Sprintf("/certificates/%d/verify", certID), &v); err != nil {
		return err
	}
	if fmt.Sprint(v.IsValid) != valid {
		return fmt.Errorf("certificate %d is_valid = %v, want %s", certID, v.IsValid, valid)
	}
	return nil
}

func (s *registrySteps) verifyByHash(ctx context.Context, hash string, certID int, valid string) error {
	var v struct {
		IsValid bool   `json:"is_valid"`
		ID      uint64 `json:"id"`
	}
	if err := s.getJSON("/verify?content_hash="+url.QueryEscape(hash), &v); err != nil {
		return err
	}
	if v.ID != uint64(certID) || fmt.Sprint(v.IsValid) != valid {
		return fmt.Errorf("hash %s: id=%d is_valid=%v, want id=%d is_valid=%s", hash, v.ID, v.IsValid, certID, valid)
	}
	return nil
}

func (s *registrySteps) totalCertificates(ctx context.Context, want int) error {
	var count struct {
		Total uint64 `json:"total"`
	}
	if err := s.getJSON("/certificates/count", &count); err != nil {
		return err
	}
	if count.Total != uint64(want) {
		return fmt.Errorf("registry holds %d certificates, want %d", count.Total, want)
	}
	return nil
}

func (s *registrySteps) holderCertificates(ctx context.Context, holder, want string) error {
	addr, err := s.tc.Actor(holder)
	if err != nil {
		return err
	}
	var out struct {
		CertificateIDs []uint64 `json:"certificate_ids"`
	}
	if err := s.getJSON("/holders/"+addr.String()+"/certificates", &out); err != nil {
		return err
	}
	got := fmt.Sprint(out.CertificateIDs)
	if got != "["+want+"]" {
		return fmt.Errorf("%s holds %s, want [%s]", holder, got, want)
	}
	return nil
}

func (s *registrySteps) lastTransaction(ctx context.Context, events int) error {
	if s.lastTxID == "" {
		return fmt.Errorf("no transaction recorded")
	}
	var receipt struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := s.getJSON("/transactions/"+s.lastTxID, &receipt); err != nil {
		return err
	}
	if len(receipt.Events) != events {
		return fmt.Errorf("transaction %s has %d events, want %d", s.lastTxID, len(receipt.Events), events)
	}
	return nil
}

func (s *registrySteps) eventLogVerifies(ctx context.Context, entries int) error {
	var report struct {
		Valid   bool   `json:"valid"`
		Entries uint64 `json:"entries"`
		Reason  string `json:"reason"`
	}
	if err := s.getJSON("/events/integrity", &report); err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("event chain broken: %s", report.Reason)
	}
	if report.Entries != uint64(entries) {
		return fmt.Errorf("event log has %d entries, want %d", report.Entries, entries)
	}
	return nil
}

// rememberTx keeps the tx id of a successful write for later lookups.
func (s *registrySteps) rememberTx() {
	if s.tc.GetLastResponseStatus() >= 300 {
		return
	}
	if txID, err := s.tc.GetResponseField("tx_id"); err == nil {
		s.lastTxID = fmt.Sprint(txID)
	}
}

// getJSON issues a GET that must succeed and decodes its body. The response
// stays available to later assertion steps.
func (s *registrySteps) getJSON(path string, out any) error {
	if err := s.tc.GET(path, nil); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("GET %s: status %d: %s", path, status, s.tc.GetLastResponseBody())
	}
	return json.Unmarshal(s.tc.GetLastResponseBody(), out)
}
