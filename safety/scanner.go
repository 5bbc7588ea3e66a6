/*
Package safety gates text through an external content-scanning service
before it reaches or leaves the agent.

PURPOSE:
  Wraps the synchronous scan API of the security service: submit a
  prompt or a response body, get back an allow/block decision, and turn
  block categories into a human-readable reason.

REQUEST CONSTRUCTION:
  The scan request is built as a typed struct and serialized with
  encoding/json. Untrusted text is never formatted into a request body
  via string substitution.

VERDICTS:
  Allowed:  Verdict{Allowed: true}
  Blocked:  Verdict{Allowed: false, Reason: "<joined category sentences>"}
  Network or endpoint failure is an error return; it is converted to a
  caller-visible message at the dispatch boundary, never a panic.

CONFIGURATION (environment):
  SAFETY_SCAN_ENDPOINT     Scan API URL (default: built-in service URL)
  SAFETY_SCAN_TOKEN        API token sent in the x-pan-token header
  SAFETY_PROMPT_PROFILE    Profile name for kind=prompt
  SAFETY_RESPONSE_PROFILE  Profile name for kind=response

SEE ALSO:
  - api/handlers.go: scan_content dispatch operation
*/
package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes inbound prompts from outbound responses; the
// service applies a different profile to each.
type Kind string

const (
	KindPrompt   Kind = "prompt"
	KindResponse Kind = "response"
)

const defaultEndpoint = "https://service.api.aisecurity.paloaltonetworks.com/v1/scan/sync/request"

var ErrUnknownKind = errors.New("scan kind must be prompt or response")

// Config holds the scanner's endpoint and credentials.
type Config struct {
	Endpoint        string
	Token           string
	PromptProfile   string
	ResponseProfile string
}

// ConfigFromEnv reads scanner configuration from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		Endpoint:        os.Getenv("SAFETY_SCAN_ENDPOINT"),
		Token:           os.Getenv("SAFETY_SCAN_TOKEN"),
		PromptProfile:   os.Getenv("SAFETY_PROMPT_PROFILE"),
		ResponseProfile: os.Getenv("SAFETY_RESPONSE_PROFILE"),
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return cfg
}

// Scanner submits text to the scan endpoint.
type Scanner struct {
	cfg    Config
	client *http.Client
}

// NewScanner creates a scanner with a bounded request timeout.
func NewScanner(cfg Config) *Scanner {
	return &Scanner{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Verdict is the outcome of a scan.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// scanRequest is the wire shape of the scan API request body.
type scanRequest struct {
	Metadata  scanMetadata        `json:"metadata"`
	Contents  []map[string]string `json:"contents"`
	TrID      string              `json:"tr_id"`
	AIProfile scanProfile         `json:"ai_profile"`
}

type scanMetadata struct {
	AIModel string `json:"ai_model"`
	AppName string `json:"app_name"`
	AppUser string `json:"app_user"`
}

type scanProfile struct {
	ProfileName string `json:"profile_name"`
}

// Detection carries the per-category block flags of a scan response.
type Detection struct {
	URLCats        bool `json:"url_cats"`
	DLP            bool `json:"dlp"`
	Injection      bool `json:"injection"`
	ToxicContent   bool `json:"toxic_content"`
	MaliciousCode  bool `json:"malicious_code"`
	Agent          bool `json:"agent"`
	DBSecurity     bool `json:"db_security"`
	Ungrounded     bool `json:"ungrounded"`
	TopicViolation bool `json:"topic_violation"`
}

type scanResponse struct {
	Action           string    `json:"action"`
	PromptDetected   Detection `json:"prompt_detected"`
	ResponseDetected Detection `json:"response_detected"`
}

// Scan submits text for scanning and returns the verdict. appName,
// appUser and trID default when empty; newlines in the text are
// flattened to spaces before submission.
func (s *Scanner) Scan(ctx context.Context, kind Kind, text, appName, appUser, trID string) (Verdict, error) {
	if kind != KindPrompt && kind != KindResponse {
		return Verdict{}, ErrUnknownKind
	}
	if appName == "" {
		appName = "leavedesk"
	}
	if appUser == "" {
		appUser = "unknown"
	}
	if trID == "" {
		trID = uuid.NewString()
	}

	profile := s.cfg.PromptProfile
	if kind == KindResponse {
		profile = s.cfg.ResponseProfile
	}

	req := scanRequest{
		Metadata: scanMetadata{
			AIModel: "Test AI model",
			AppName: appName,
			AppUser: appUser,
		},
		Contents: []map[string]string{
			{string(kind): strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")},
		},
		TrID:      trID,
		AIProfile: scanProfile{ProfileName: profile},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to encode scan request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, err
	}
	httpReq.Header.Set("x-pan-token", s.cfg.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Verdict{}, fmt.Errorf("scan request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("scan endpoint returned status %d", resp.StatusCode)
	}

	var sr scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Verdict{}, fmt.Errorf("failed to decode scan response: %w", err)
	}

	if sr.Action != "block" {
		return Verdict{Allowed: true}, nil
	}

	detected := sr.PromptDetected
	if kind == KindResponse {
		detected = sr.ResponseDetected
	}
	return Verdict{Allowed: false, Reason: BlockReason(detected)}, nil
}

// reasonSentences maps each detection category to its caller-facing
// sentence, in the order they are joined.
var reasonSentences = []struct {
	set      func(Detection) bool
	sentence string
}{
	{func(d Detection) bool { return d.URLCats }, "The content includes URLs that are malicious in nature or not in keeping with the company policy."},
	{func(d Detection) bool { return d.DLP }, "The content has been identified to contain potential sensitive data."},
	{func(d Detection) bool { return d.Injection }, "Security protocols have flagged a potential malicious prompt."},
	{func(d Detection) bool { return d.ToxicContent }, "Toxic or harmful content has been detected."},
	{func(d Detection) bool { return d.MaliciousCode }, "Malicious code was detected."},
	{func(d Detection) bool { return d.Agent }, "Agent security issues have been detected."},
	{func(d Detection) bool { return d.DBSecurity }, "Security protocols have flagged potential illegal database calls."},
	{func(d Detection) bool { return d.Ungrounded }, "Ungrounded content has been detected."},
	{func(d Detection) bool { return d.TopicViolation }, "Topic violations were detected."},
}

// BlockReason assembles the human-readable block reason from the
// detection flags. Empty when nothing was flagged.
func BlockReason(d Detection) string {
	var parts []string
	for _, r := range reasonSentences {
		if r.set(d) {
			parts = append(parts, r.sentence)
		}
	}
	return strings.Join(parts, " ")
}
