// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/pdiddy/concept-refinery/internal/httputil"
)

// baiduTranslateBase is the Baidu machine translation endpoint. Declared as
// a var so tests can substitute an httptest server.
var baiduTranslateBase = "https://fanyi-api.baidu.com/api/trans/vip/translate"

// Translator translates concept terms via the Baidu API. Sign order is
// appid + query + salt + appkey, hashed with MD5.
type Translator struct {
	Client     *http.Client
	AppID      string
	AppKey     string
	MaxRetries int
}

type translateResponse struct {
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	Results   []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"trans_result"`
}

// Translate converts text from one language to another. Language codes
// follow the Baidu convention ("zh", "en", "auto").
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if t.AppID == "" || t.AppKey == "" {
		return "", fmt.Errorf("translator credentials not configured")
	}

	salt := fmt.Sprintf("%d", rand.Int31())
	sign := fmt.Sprintf("%x", md5.Sum([]byte(t.AppID+text+salt+t.AppKey)))

	params := url.Values{
		"q":     {text},
		"from":  {from},
		"to":    {to},
		"appid": {t.AppID},
		"salt":  {salt},
		"sign":  {sign},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baiduTranslateBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, t.Client, req, t.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate API returned HTTP %d", resp.StatusCode)
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("parsing translate response: %w", err)
	}
	if tr.ErrorCode != "" && tr.ErrorCode != "0" {
		return "", fmt.Errorf("translate API error %s: %s", tr.ErrorCode, tr.ErrorMsg)
	}
	if len(tr.Results) == 0 {
		return "", fmt.Errorf("translate API returned no results")
	}

	return tr.Results[0].Dst, nil
}
