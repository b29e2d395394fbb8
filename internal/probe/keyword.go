package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// KeywordChecker runs the normal HTTP check first and, only when that
// passed, fetches the page again and looks for a literal substring.
// Errors on the second fetch keep the HTTP verdict; the keyword pass
// refines a result, it never manufactures one.
type KeywordChecker struct {
	HTTP *HTTPChecker
}

func (k *KeywordChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	res := k.HTTP.Check(ctx, t)
	if res.Status != domain.StatusUp || t.Keyword == "" {
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.Address, nil)
	if err != nil {
		return res
	}
	resp, err := k.HTTP.Client.Do(req)
	if err != nil {
		return res
	}
	defer resp.Body.Close()
	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return res
	}

	if !bytes.Contains(page, []byte(t.Keyword)) {
		res.Status = domain.StatusDown
		res.Message = fmt.Sprintf("keyword %q not found", t.Keyword)
		return res
	}
	res.Message = fmt.Sprintf("keyword %q found", t.Keyword)
	return res
}
