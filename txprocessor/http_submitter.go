package txprocessor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lockmint-io/bridge-oracle/common"
)

const DefaultSubmitTimeout = 10 * time.Second

// HttpSubmitter POSTs mint actions to the destination relayer API.
// 2xx -> accepted with a receipt id; 4xx -> rejected with a reason;
// anything else is a transport failure.
type HttpSubmitter struct {
	apiURL string
	client *http.Client
}

func NewHttpSubmitter(apiURL string, timeout time.Duration) *HttpSubmitter {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &HttpSubmitter{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HttpSubmitter) Submit(ctx context.Context, action *MintAction) (*SubmitResult, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("marshal mint action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, common.WrapTransport("submit_mint", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, common.WrapTransport("submit_mint", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body struct {
			ReceiptID string `json:"receipt_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, common.WrapTransport("submit_mint", err)
		}
		return &SubmitResult{Accepted: true, ReceiptID: body.ReceiptID}, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var body struct {
			Reason string `json:"reason"`
		}
		// a rejection without a parseable reason is still a rejection
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Reason == "" {
			body.Reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &SubmitResult{Accepted: false, Reason: body.Reason}, nil

	default:
		return nil, common.WrapTransport("submit_mint",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
