package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

func keywordTarget(addr, keyword string) *domain.Target {
	tgt := webTarget(addr)
	tgt.Types = []domain.CheckType{domain.CheckKeyword}
	tgt.Keyword = keyword
	return tgt
}

func TestKeywordChecker_Found(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>service is healthy</html>"))
	}))
	defer s.Close()

	chk := &KeywordChecker{HTTP: NewHTTPChecker()}
	out := chk.Check(context.Background(), keywordTarget(s.URL, "healthy"))
	if out.Status != domain.StatusUp {
		t.Fatalf("want up, got %+v", out)
	}
	if out.Message != `keyword "healthy" found` {
		t.Fatalf("want found message, got %q", out.Message)
	}
}

func TestKeywordChecker_Missing(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance page</html>"))
	}))
	defer s.Close()

	chk := &KeywordChecker{HTTP: NewHTTPChecker()}
	out := chk.Check(context.Background(), keywordTarget(s.URL, "healthy"))
	if out.Status != domain.StatusDown {
		t.Fatalf("want down, got %+v", out)
	}
	if out.Message != `keyword "healthy" not found` {
		t.Fatalf("want not-found message, got %q", out.Message)
	}
	if out.HTTPStatus != 200 {
		t.Fatalf("http status must survive the keyword verdict, got %d", out.HTTPStatus)
	}
}

func TestKeywordChecker_SkipsLookupWhenStatusFailed(t *testing.T) {
	var hits atomic.Int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(500)
	}))
	defer s.Close()

	chk := &KeywordChecker{HTTP: NewHTTPChecker()}
	out := chk.Check(context.Background(), keywordTarget(s.URL, "healthy"))
	if out.Status != domain.StatusDown || out.Message != "status code 500" {
		t.Fatalf("want the http verdict, got %+v", out)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("keyword fetch must not run after a failed status check, got %d requests", n)
	}
}

func TestKeywordChecker_SecondFetchErrorKeepsVerdict(t *testing.T) {
	var hits atomic.Int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte("ok"))
			return
		}
		panic("connection torn down") // aborts the second response mid-flight
	}))
	defer s.Close()

	chk := &KeywordChecker{HTTP: NewHTTPChecker()}
	out := chk.Check(context.Background(), keywordTarget(s.URL, "healthy"))
	if out.Status != domain.StatusUp || out.Message != "OK" {
		t.Fatalf("a broken keyword fetch must keep the http verdict, got %+v", out)
	}
}

func TestKeywordChecker_EmptyKeywordIsPlainHTTP(t *testing.T) {
	var hits atomic.Int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer s.Close()

	chk := &KeywordChecker{HTTP: NewHTTPChecker()}
	out := chk.Check(context.Background(), keywordTarget(s.URL, ""))
	if out.Status != domain.StatusUp || out.Message != "OK" {
		t.Fatalf("want plain http result, got %+v", out)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("no second fetch without a keyword, got %d requests", n)
	}
}
