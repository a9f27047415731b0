package riskoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lockmint-io/bridge-oracle/common"
)

const DefaultRequestTimeout = 10 * time.Second

// HttpOracle queries a screening service over HTTP:
// GET {baseURL}/check?address=0x... -> {"blocked": bool}
type HttpOracle struct {
	baseURL string
	client  *http.Client
}

func NewHttpOracle(baseURL string, timeout time.Duration) *HttpOracle {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HttpOracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *HttpOracle) Check(ctx context.Context, address string) (Verdict, error) {
	u := o.baseURL + "/check?address=" + url.QueryEscape(address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Blocked, common.WrapTransport("risk_check", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Blocked, common.WrapTransport("risk_check", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Blocked, common.WrapTransport("risk_check",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body struct {
		Blocked bool `json:"blocked"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Blocked, common.WrapTransport("risk_check", err)
	}

	if body.Blocked {
		return Blocked, nil
	}
	return Allowed, nil
}
